package model

import (
	"regexp"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     WorkflowStatus
		to       WorkflowStatus
		expected bool
	}{
		{"pending to running", StatusPending, StatusRunning, true},
		{"running to awaiting", StatusRunning, StatusAwaitingCheckpoint, true},
		{"running to completed", StatusRunning, StatusCompleted, true},
		{"running to cancelled", StatusRunning, StatusCancelled, true},
		{"awaiting to running", StatusAwaitingCheckpoint, StatusRunning, true},
		{"awaiting to completed", StatusAwaitingCheckpoint, StatusCompleted, true},
		{"awaiting to cancelled", StatusAwaitingCheckpoint, StatusCancelled, true},
		// Failed is reachable from anywhere so errors are never lost.
		{"pending to failed", StatusPending, StatusFailed, true},
		{"completed to failed", StatusCompleted, StatusFailed, true},
		{"cancelled to failed", StatusCancelled, StatusFailed, true},
		// Invalid walks.
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"pending to awaiting", StatusPending, StatusAwaitingCheckpoint, false},
		{"completed to running", StatusCompleted, StatusRunning, false},
		{"failed to running", StatusFailed, StatusRunning, false},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
		{"running to pending", StatusRunning, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.from, tt.to)
			if got != tt.expected {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestWorkflowStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   WorkflowStatus
		expected bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusAwaitingCheckpoint, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := tt.status.IsTerminal()
			if got != tt.expected {
				t.Errorf("WorkflowStatus(%q).IsTerminal() = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestWorkflowStatusIsValid(t *testing.T) {
	tests := []struct {
		status   WorkflowStatus
		expected bool
	}{
		{StatusPending, true},
		{StatusRunning, true},
		{StatusAwaitingCheckpoint, true},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
		{WorkflowStatus("paused"), false},
		{WorkflowStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := tt.status.IsValid()
			if got != tt.expected {
				t.Errorf("WorkflowStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestNewWorkflowID(t *testing.T) {
	pattern := regexp.MustCompile(`^wf-[0-9a-f]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewWorkflowID()
		if !pattern.MatchString(id) {
			t.Fatalf("NewWorkflowID() = %q, want match for %q", id, pattern)
		}
		if seen[id] {
			t.Fatalf("NewWorkflowID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}
