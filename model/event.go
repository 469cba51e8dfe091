package model

import "time"

// EventType identifies what a workflow event announces.
type EventType string

const (
	// EventCheckpointReady fires when a workflow suspends on a checkpoint and
	// is waiting for a human decision.
	EventCheckpointReady EventType = "checkpoint_ready"

	// EventWorkflowCompleted fires when a workflow reaches completed.
	EventWorkflowCompleted EventType = "workflow_completed"

	// EventWorkflowFailed fires when a workflow reaches failed.
	EventWorkflowFailed EventType = "workflow_failed"

	// EventStatusUpdate fires on every other status change.
	EventStatusUpdate EventType = "status_update"
)

// Event is a workflow lifecycle notification delivered to subscribers.
type Event struct {
	Type       EventType      `json:"type"`
	WorkflowID string         `json:"workflow_id"`
	Status     WorkflowStatus `json:"status,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
