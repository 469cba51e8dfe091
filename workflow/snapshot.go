package workflow

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Snapshot is one persisted step of a thread: the serialized state after a
// node ran, the nodes to execute next (empty when the thread reached END), and
// any pending interrupt payloads. A thread with a non-empty Interrupts in its
// latest snapshot is suspended and resumable.
type Snapshot struct {
	ID         string            `json:"snapshot_id"`
	ThreadID   string            `json:"thread_id"`
	Seq        int64             `json:"seq"`
	Values     json.RawMessage   `json:"values"`
	Next       []string          `json:"next,omitempty"`
	Interrupts []json.RawMessage `json:"interrupts,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SnapshotStore persists thread snapshots. Implementations must serialize
// writes per thread id; Latest must return ErrThreadNotFound for unknown
// threads.
type SnapshotStore interface {
	// Save persists one snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Latest returns the highest-seq snapshot of a thread.
	Latest(ctx context.Context, threadID string) (Snapshot, error)

	// History returns all snapshots of a thread, newest first.
	History(ctx context.Context, threadID string) ([]Snapshot, error)
}

// MemoryStore is an in-memory SnapshotStore for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string][]Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string][]Snapshot)}
}

// Save persists one snapshot.
func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.ThreadID] = append(m.snaps[snap.ThreadID], snap)
	return nil
}

// Latest returns the highest-seq snapshot of a thread.
func (m *MemoryStore) Latest(_ context.Context, threadID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snaps := m.snaps[threadID]
	if len(snaps) == 0 {
		return Snapshot{}, ErrThreadNotFound
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Seq >= latest.Seq {
			latest = s
		}
	}
	return latest, nil
}

// History returns all snapshots of a thread, newest first.
func (m *MemoryStore) History(_ context.Context, threadID string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snaps := m.snaps[threadID]
	if len(snaps) == 0 {
		return nil, ErrThreadNotFound
	}
	out := make([]Snapshot, len(snaps))
	copy(out, snaps)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}
