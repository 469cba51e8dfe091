// Package model defines the domain types shared across the workflow runtime:
// workflows and their status machine, checkpoints and resolutions, agent
// execution records, and notification events.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	// StatusPending is the initial state before execution starts.
	StatusPending WorkflowStatus = "pending"

	// StatusRunning means the engine is actively executing nodes.
	StatusRunning WorkflowStatus = "running"

	// StatusAwaitingCheckpoint means the workflow is suspended on a human checkpoint.
	StatusAwaitingCheckpoint WorkflowStatus = "awaiting_checkpoint"

	// StatusCompleted is the terminal success state.
	StatusCompleted WorkflowStatus = "completed"

	// StatusFailed is the terminal error state.
	StatusFailed WorkflowStatus = "failed"

	// StatusCancelled is the terminal state for user-cancelled workflows.
	StatusCancelled WorkflowStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsValid checks if the status is a known workflow status.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusAwaitingCheckpoint,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s WorkflowStatus) String() string {
	return string(s)
}

// validTransitions enumerates the allowed status walks. Failures are handled
// separately: any status may transition to failed so errors are never lost.
var validTransitions = map[WorkflowStatus][]WorkflowStatus{
	StatusPending: {StatusRunning},
	StatusRunning: {
		StatusAwaitingCheckpoint,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	},
	StatusAwaitingCheckpoint: {
		StatusRunning,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
	},
}

// CanTransition reports whether from → to is an allowed status transition.
// Transitions to StatusFailed are always allowed; callers that detect an
// otherwise-invalid walk to failed should log a warning but proceed.
func CanTransition(from, to WorkflowStatus) bool {
	if to == StatusFailed {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// WorkflowType identifies the graph a workflow executes.
type WorkflowType string

const (
	// TypePlanReview is the planner + parallel reviewers workflow with
	// human checkpoints after the plan and after each review round.
	TypePlanReview WorkflowType = "plan_review"
)

// Workflow is the persisted identity of one workflow run.
type Workflow struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          WorkflowType   `json:"type"`
	Status        WorkflowStatus `json:"status"`
	WorkspacePath string         `json:"workspace_path,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// NewWorkflowID generates a workflow identifier of the form "wf-" followed by
// twelve hex characters. The short form keeps log lines and thread ids readable
// while staying unique enough for a single deployment.
func NewWorkflowID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "wf-" + hex[:12]
}
