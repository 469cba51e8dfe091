package model

import "time"

// ExecutionStatus represents the lifecycle state of one agent invocation.
type ExecutionStatus string

const (
	// ExecutionRunning means the subprocess has been launched.
	ExecutionRunning ExecutionStatus = "running"

	// ExecutionCompleted means the agent returned usable output.
	ExecutionCompleted ExecutionStatus = "completed"

	// ExecutionFailed means the call ended in an error; the reason is stored
	// in OutputContent.
	ExecutionFailed ExecutionStatus = "failed"
)

// AgentExecution records a single agent invocation: the full prompt sent, the
// output (or failure reason) received, and timing. Exactly one row exists per
// invocation and it is always closed to completed or failed.
type AgentExecution struct {
	ID              int64           `json:"id"`
	WorkflowID      string          `json:"workflow_id"`
	AgentName       string          `json:"agent_name"`
	AgentType       string          `json:"agent_type"`
	InputContent    string          `json:"input_content"`
	OutputContent   string          `json:"output_content"`
	Status          ExecutionStatus `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	ExecutionTimeMS int64           `json:"execution_time_ms"`

	// ApprovalStatus is filled on read for review executions by the verdict
	// analyzer; it is advisory and never authoritative.
	ApprovalStatus string `json:"approval_status,omitempty"`
}
