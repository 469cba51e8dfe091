package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/c360studio/orchestra/workflow"
)

// Save persists one thread snapshot. Writes to the same thread are serialized
// so concurrent engine steps cannot interleave their seq rows.
func (s *Store) Save(ctx context.Context, snap workflow.Snapshot) error {
	next, err := json.Marshal(snap.Next)
	if err != nil {
		return fmt.Errorf("encode next for thread %s: %w", snap.ThreadID, err)
	}
	interrupts, err := json.Marshal(snap.Interrupts)
	if err != nil {
		return fmt.Errorf("encode interrupts for thread %s: %w", snap.ThreadID, err)
	}

	lock := s.threadLock(snap.ThreadID)
	lock.Lock()
	defer lock.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_states (thread_id, seq, snapshot_id, state, next, interrupts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, seq) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			state = excluded.state,
			next = excluded.next,
			interrupts = excluded.interrupts,
			created_at = excluded.created_at
	`, snap.ThreadID, snap.Seq, snap.ID, string(snap.Values),
		string(next), string(interrupts), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot for thread %s: %w", snap.ThreadID, err)
	}
	return nil
}

// Latest returns the highest-seq snapshot of a thread.
func (s *Store) Latest(ctx context.Context, threadID string) (workflow.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, seq, snapshot_id, state, next, interrupts, created_at
		FROM workflow_states WHERE thread_id = ? ORDER BY seq DESC LIMIT 1
	`, threadID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Snapshot{}, workflow.ErrThreadNotFound
	}
	if err != nil {
		return workflow.Snapshot{}, fmt.Errorf("query latest snapshot for thread %s: %w", threadID, err)
	}
	return snap, nil
}

// History returns all snapshots of a thread, newest first.
func (s *Store) History(ctx context.Context, threadID string) ([]workflow.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, seq, snapshot_id, state, next, interrupts, created_at
		FROM workflow_states WHERE thread_id = ? ORDER BY seq DESC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var out []workflow.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, workflow.ErrThreadNotFound
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (workflow.Snapshot, error) {
	var snap workflow.Snapshot
	var state, next, interrupts string
	if err := row.Scan(&snap.ThreadID, &snap.Seq, &snap.ID, &state,
		&next, &interrupts, &snap.CreatedAt); err != nil {
		return workflow.Snapshot{}, err
	}
	snap.Values = json.RawMessage(state)
	if err := json.Unmarshal([]byte(next), &snap.Next); err != nil {
		return workflow.Snapshot{}, fmt.Errorf("decode next: %w", err)
	}
	if err := json.Unmarshal([]byte(interrupts), &snap.Interrupts); err != nil {
		return workflow.Snapshot{}, fmt.Errorf("decode interrupts: %w", err)
	}
	return snap, nil
}
