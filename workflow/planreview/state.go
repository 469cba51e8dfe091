// Package planreview implements the plan-review-iterate workflow: a planner
// agent drafts a plan, three reviewer agents critique it in parallel, and a
// human decides between revision rounds at persisted checkpoints. The graph
// suspends at every checkpoint and at agent timeouts, and resumes from a typed
// resolution.
package planreview

import (
	"time"

	"github.com/c360studio/orchestra/model"
)

// Workflow status values carried in State.Status. Terminal values decide the
// workflow's final status when the graph reaches END.
const (
	StatusStarting              = "starting"
	StatusPlanCreated           = "plan_created"
	StatusReadyForReview        = "ready_for_review"
	StatusEditingReviewerPrompt = "editing_reviewer_prompt"
	StatusReviewsCollected      = "reviews_collected"
	StatusRevisionNeeded        = "revision_needed"
	StatusEditingPlannerPrompt  = "editing_planner_prompt"
	StatusCompleted             = "completed"
	StatusCancelled             = "cancelled"
)

// State is the shared state of one plan-review thread. It serializes to JSON
// for snapshots; every field must round-trip.
type State struct {
	WorkflowID string          `json:"workflow_id"`
	Messages   []model.Message `json:"messages"`

	CurrentPlan    string                 `json:"current_plan,omitempty"`
	ReviewFeedback []model.ReviewFeedback `json:"review_feedback,omitempty"`

	IterationCount   int    `json:"iteration_count"`
	CheckpointNumber int    `json:"checkpoint_number"`
	Status           string `json:"status,omitempty"`

	// UserEdits holds the plan text as the user last edited it at a
	// checkpoint; reviewers see it in place of CurrentPlan when set.
	UserEdits string `json:"user_edits,omitempty"`

	// NextStep is the routing label consumed by conditional edges.
	NextStep string `json:"next_step,omitempty"`

	// Prompt overrides set at the edit-prompt checkpoints.
	ReviewerPrompt string `json:"reviewer_prompt,omitempty"`
	PlannerPrompt  string `json:"planner_prompt,omitempty"`

	// ConsolidatedFeedback is the user's edited consolidation from the
	// review checkpoint, fed to the planner on revision.
	ConsolidatedFeedback string `json:"consolidated_feedback,omitempty"`

	// Timeout-checkpoint bookkeeping. TimedOutAgent names the agent whose
	// timeout suspended the workflow; the retry/skip flags steer the
	// re-entered node.
	TimedOutAgent        string `json:"timed_out_agent,omitempty"`
	RetryAgent           bool   `json:"retry_agent,omitempty"`
	TimeoutExtensionSecs int    `json:"timeout_extension_secs,omitempty"`
	SkipTimedOutAgent    string `json:"skip_timed_out_agent,omitempty"`
}

// Update is the record a node returns; nil pointer fields leave the state
// untouched. Messages append; ReviewFeedback replaces when non-nil; everything
// else is last-write-wins.
type Update struct {
	Messages       []model.Message
	CurrentPlan    *string
	ReviewFeedback []model.ReviewFeedback

	IterationCount   *int
	CheckpointNumber *int
	Status           *string

	UserEdits *string
	NextStep  *string

	ReviewerPrompt       *string
	PlannerPrompt        *string
	ConsolidatedFeedback *string

	TimedOutAgent        *string
	RetryAgent           *bool
	TimeoutExtensionSecs *int
	SkipTimedOutAgent    *string
}

// Reduce merges an update into the previous state.
func Reduce(prev State, u Update) State {
	prev.Messages = append(prev.Messages, u.Messages...)
	if u.CurrentPlan != nil {
		prev.CurrentPlan = *u.CurrentPlan
	}
	if u.ReviewFeedback != nil {
		prev.ReviewFeedback = u.ReviewFeedback
	}
	if u.IterationCount != nil {
		prev.IterationCount = *u.IterationCount
	}
	if u.CheckpointNumber != nil {
		prev.CheckpointNumber = *u.CheckpointNumber
	}
	if u.Status != nil {
		prev.Status = *u.Status
	}
	if u.UserEdits != nil {
		prev.UserEdits = *u.UserEdits
	}
	if u.NextStep != nil {
		prev.NextStep = *u.NextStep
	}
	if u.ReviewerPrompt != nil {
		prev.ReviewerPrompt = *u.ReviewerPrompt
	}
	if u.PlannerPrompt != nil {
		prev.PlannerPrompt = *u.PlannerPrompt
	}
	if u.ConsolidatedFeedback != nil {
		prev.ConsolidatedFeedback = *u.ConsolidatedFeedback
	}
	if u.TimedOutAgent != nil {
		prev.TimedOutAgent = *u.TimedOutAgent
	}
	if u.RetryAgent != nil {
		prev.RetryAgent = *u.RetryAgent
	}
	if u.TimeoutExtensionSecs != nil {
		prev.TimeoutExtensionSecs = *u.TimeoutExtensionSecs
	}
	if u.SkipTimedOutAgent != nil {
		prev.SkipTimedOutAgent = *u.SkipTimedOutAgent
	}
	return prev
}

// InitialState seeds a new thread with the user's prompt.
func InitialState(workflowID, initialPrompt string) State {
	return State{
		WorkflowID: workflowID,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: initialPrompt},
		},
		Status: StatusStarting,
	}
}

// PlanToReview returns the plan text reviewers should see: the user's edited
// version when one exists, otherwise the planner's output.
func (s State) PlanToReview() string {
	if s.UserEdits != "" {
		return s.UserEdits
	}
	return s.CurrentPlan
}

// pointer helpers for building updates.
func str(v string) *string { return &v }
func num(v int) *int       { return &v }
func flag(v bool) *bool    { return &v }

// now returns the current UTC time; a variable so tests can pin it.
var now = func() time.Time { return time.Now().UTC() }
