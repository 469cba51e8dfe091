package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/orchestra/model"
)

// WorkflowStatusStore is the slice of the storage layer the status manager
// writes through.
type WorkflowStatusStore interface {
	GetWorkflow(ctx context.Context, id string) (model.Workflow, error)
	UpdateWorkflowStatus(ctx context.Context, id string, status model.WorkflowStatus, completedAt *time.Time) error
}

// StatusManager owns workflow status transitions: it validates the walk,
// writes the database, and fans the event out. The in-memory map shadows the
// database for active workflows so transition checks do not need a read.
type StatusManager struct {
	store    WorkflowStatusStore
	notifier *Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]model.WorkflowStatus
	marks  map[string]*sync.Mutex
}

// NewStatusManager creates a status manager writing through the given store.
func NewStatusManager(store WorkflowStatusStore, notifier *Notifier, logger *slog.Logger) *StatusManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusManager{
		store:    store,
		notifier: notifier,
		logger:   logger,
		active:   make(map[string]model.WorkflowStatus),
		marks:    make(map[string]*sync.Mutex),
	}
}

// markLock returns the lock serializing one workflow's transitions.
func (m *StatusManager) markLock(workflowID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.marks[workflowID]
	if !ok {
		lock = &sync.Mutex{}
		m.marks[workflowID] = lock
	}
	return lock
}

// Track registers a workflow's current status without a transition.
func (m *StatusManager) Track(workflowID string, status model.WorkflowStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[workflowID] = status
}

// Current returns the tracked status, falling back to the database.
func (m *StatusManager) Current(ctx context.Context, workflowID string) (model.WorkflowStatus, error) {
	m.mu.Lock()
	status, ok := m.active[workflowID]
	m.mu.Unlock()
	if ok {
		return status, nil
	}
	wf, err := m.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}
	return wf.Status, nil
}

// Mark transitions a workflow to status, persists it, and publishes the
// matching event. cause, when non-nil, is recorded on failure events.
// Transitions to failed are always accepted so errors are never lost; any
// other invalid walk is rejected.
func (m *StatusManager) Mark(ctx context.Context, workflowID string, status model.WorkflowStatus, cause error) error {
	// The guard and the write hold a per-workflow lock: of two concurrent
	// marks, the loser is validated against the winner's status instead of
	// the stale one.
	lock := m.markLock(workflowID)
	lock.Lock()
	defer lock.Unlock()

	from, err := m.Current(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("mark %s as %s: %w", workflowID, status, err)
	}

	if !model.CanTransition(from, status) {
		return fmt.Errorf("invalid status transition %s -> %s for workflow %s", from, status, workflowID)
	}
	if status == model.StatusFailed && from.IsTerminal() {
		m.logger.Warn("Forcing terminal workflow to failed",
			"workflow", workflowID,
			"from", from,
			"error", cause)
	}

	var completedAt *time.Time
	if status.IsTerminal() {
		done := time.Now().UTC()
		completedAt = &done
	}
	if err := m.store.UpdateWorkflowStatus(ctx, workflowID, status, completedAt); err != nil {
		return fmt.Errorf("mark %s as %s: %w", workflowID, status, err)
	}

	m.mu.Lock()
	if status.IsTerminal() {
		delete(m.active, workflowID)
	} else {
		m.active[workflowID] = status
	}
	m.mu.Unlock()

	m.logger.Info("Workflow status changed",
		"workflow", workflowID,
		"from", from,
		"to", status)

	ev := model.Event{
		Type:       eventTypeFor(status),
		WorkflowID: workflowID,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	m.notifier.Publish(ev)
	return nil
}

func eventTypeFor(status model.WorkflowStatus) model.EventType {
	switch status {
	case model.StatusAwaitingCheckpoint:
		return model.EventCheckpointReady
	case model.StatusCompleted:
		return model.EventWorkflowCompleted
	case model.StatusFailed:
		return model.EventWorkflowFailed
	default:
		return model.EventStatusUpdate
	}
}
