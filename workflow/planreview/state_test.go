package planreview

import (
	"encoding/json"
	"testing"

	"github.com/c360studio/orchestra/model"
)

func TestReduce(t *testing.T) {
	prev := State{
		WorkflowID:  "wf-1",
		Messages:    []model.Message{{Role: model.RoleUser, Content: "hi"}},
		CurrentPlan: "plan v1",
		ReviewFeedback: []model.ReviewFeedback{
			{AgentName: "claude_reviewer", Feedback: "old"},
		},
		IterationCount: 1,
		NextStep:       "retry",
	}

	// An empty update leaves everything untouched.
	got := Reduce(prev, Update{})
	if got.CurrentPlan != "plan v1" || got.IterationCount != 1 || got.NextStep != "retry" {
		t.Errorf("empty update changed state: %+v", got)
	}
	if len(got.ReviewFeedback) != 1 {
		t.Errorf("nil ReviewFeedback replaced existing feedback")
	}

	// Messages append; pointer fields overwrite; ReviewFeedback replaces
	// when non-nil.
	got = Reduce(prev, Update{
		Messages:       []model.Message{{Role: model.RolePlanner, Content: "plan v2"}},
		CurrentPlan:    str("plan v2"),
		ReviewFeedback: []model.ReviewFeedback{},
		NextStep:       str(""),
	})
	if len(got.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(got.Messages))
	}
	if got.CurrentPlan != "plan v2" {
		t.Errorf("CurrentPlan = %q, want %q", got.CurrentPlan, "plan v2")
	}
	if len(got.ReviewFeedback) != 0 {
		t.Errorf("non-nil ReviewFeedback did not replace existing feedback")
	}
	if got.NextStep != "" {
		t.Errorf("NextStep = %q, want empty", got.NextStep)
	}
}

func TestInitialState(t *testing.T) {
	s := InitialState("wf-1", "Build a todo app")
	if s.WorkflowID != "wf-1" || s.Status != StatusStarting {
		t.Errorf("unexpected initial state: %+v", s)
	}
	if len(s.Messages) != 1 || s.Messages[0].Role != model.RoleUser {
		t.Errorf("initial state missing user message: %+v", s.Messages)
	}
}

func TestPlanToReview(t *testing.T) {
	s := State{CurrentPlan: "agent plan"}
	if got := s.PlanToReview(); got != "agent plan" {
		t.Errorf("PlanToReview() = %q, want agent plan", got)
	}
	s.UserEdits = "edited plan"
	if got := s.PlanToReview(); got != "edited plan" {
		t.Errorf("PlanToReview() = %q, want edited plan", got)
	}
}

func TestStateRoundTripsThroughJSON(t *testing.T) {
	s := State{
		WorkflowID:           "wf-1",
		Messages:             []model.Message{{Role: model.RoleUser, Content: "hi"}},
		CurrentPlan:          "plan",
		IterationCount:       2,
		CheckpointNumber:     5,
		Status:               StatusRevisionNeeded,
		ConsolidatedFeedback: "do better",
		TimedOutAgent:        "codex_reviewer",
		RetryAgent:           true,
		TimeoutExtensionSecs: 300,
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.CheckpointNumber != 5 || back.TimedOutAgent != "codex_reviewer" || !back.RetryAgent {
		t.Errorf("state did not round-trip: %+v", back)
	}
}
