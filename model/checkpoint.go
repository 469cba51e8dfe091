package model

import "time"

// CheckpointStatus represents the lifecycle state of a human checkpoint row.
type CheckpointStatus string

const (
	// CheckpointPending means the workflow is suspended waiting for a resolution.
	CheckpointPending CheckpointStatus = "pending"

	// CheckpointApproved means the user accepted the content as-is.
	CheckpointApproved CheckpointStatus = "approved"

	// CheckpointEdited means the user modified content or prompts before continuing.
	CheckpointEdited CheckpointStatus = "edited"

	// CheckpointRejected means the user cancelled at this checkpoint.
	CheckpointRejected CheckpointStatus = "rejected"
)

// Checkpoint step names emitted by the plan-review workflow.
const (
	StepPlanReadyForReview           = "plan_ready_for_review"
	StepReviewsReadyForConsolidation = "reviews_ready_for_consolidation"
	StepEditReviewerPrompt           = "edit_reviewer_prompt"
	StepEditPlannerPrompt            = "edit_planner_prompt"
	StepAgentTimeout                 = "agent_timeout"
)

// Checkpoint actions a resolution may carry. The primary/secondary split is
// presentation only; the runtime treats every action uniformly.
const (
	ActionSendToReviewers          = "send_to_reviewers"
	ActionSendToPlannerForRevision = "send_to_planner_for_revision"
	ActionRequestRevision          = "request_revision"
	ActionApprovePlan              = "approve_plan"
	ActionApprove                  = "approve"
	ActionEditAndContinue          = "edit_and_continue"
	ActionEditPromptAndRevise      = "edit_prompt_and_revise"
	ActionEditFullPrompt           = "edit_full_prompt"
	ActionRetryWithExtension       = "retry_with_extension"
	ActionSkip                     = "skip"
	ActionCancel                   = "cancel"
)

// AgentOutput is one agent artifact attached to a checkpoint payload.
type AgentOutput struct {
	AgentName string    `json:"agent_name"`
	AgentType string    `json:"agent_type"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckpointActions lists the resolutions offered to the user.
type CheckpointActions struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
}

// Checkpoint is the wire-facing payload of one suspension point. The same
// shape is persisted for audit and surfaced to callers polling a suspended
// workflow.
type Checkpoint struct {
	ID              string            `json:"checkpoint_id"`
	WorkflowID      string            `json:"workflow_id"`
	Number          int               `json:"checkpoint_number"`
	StepName        string            `json:"step_name"`
	Iteration       int               `json:"iteration"`
	AgentOutputs    []AgentOutput     `json:"agent_outputs,omitempty"`
	Instructions    string            `json:"instructions"`
	Actions         CheckpointActions `json:"actions"`
	EditableContent string            `json:"editable_content"`
	Context         map[string]any    `json:"context,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Resolution is the user's answer to a pending checkpoint.
type Resolution struct {
	Action        string `json:"action"`
	EditedContent string `json:"edited_content,omitempty"`
	UserNotes     string `json:"user_notes,omitempty"`
}

// ResolutionStatus maps a checkpoint action to the terminal status recorded
// for the checkpoint row. Unknown actions default to approved so that new
// actions never strand a checkpoint in pending.
func ResolutionStatus(action string) CheckpointStatus {
	switch action {
	case ActionSendToReviewers, ActionSendToPlannerForRevision,
		ActionRequestRevision, ActionApprovePlan, ActionApprove:
		return CheckpointApproved
	case ActionEditAndContinue, ActionEditPromptAndRevise, ActionEditFullPrompt:
		return CheckpointEdited
	case ActionCancel:
		return CheckpointRejected
	default:
		return CheckpointApproved
	}
}
