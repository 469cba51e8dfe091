package review

import (
	"reflect"
	"strings"
	"testing"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
	}{
		{
			name:  "explicit approval",
			input: "APPROVED",
			want:  StatusApproved,
		},
		{
			name:  "multiple approval signals",
			input: "The plan looks good. Ready to proceed with implementation.",
			want:  StatusApproved,
		},
		{
			name:  "no concerns",
			input: "No concerns.",
			want:  StatusApproved,
		},
		{
			name:  "uppercase approval",
			input: "LOOKS GOOD TO ME",
			want:  StatusApproved,
		},
		{
			name:  "well structured and comprehensive",
			input: "Well-structured and comprehensive plan.",
			want:  StatusApproved,
		},
		{
			name:  "all good",
			input: "All good.",
			want:  StatusApproved,
		},
		{
			name:  "no major issues",
			input: "Excellent plan, no major issues.",
			want:  StatusApproved,
		},
		{
			name:  "must fix",
			input: "You must fix the migration ordering before merge.",
			want:  StatusHasFeedback,
		},
		{
			name:  "concern outweighs approval",
			input: "Approved overall, but there is a critical issue in the schema.",
			want:  StatusHasFeedback,
		},
		{
			name:  "not ready needs revision",
			input: "This plan is not ready. Needs revision.",
			want:  StatusHasFeedback,
		},
		{
			name:  "rejection",
			input: "I reject this approach.",
			want:  StatusHasFeedback,
		},
		{
			name:  "blocking suggestion before implementation",
			input: "You should add integration tests before implementation.",
			want:  StatusHasFeedback,
		},
		{
			name:  "significant concern",
			input: "There is a significant concern about rollback safety.",
			want:  StatusHasFeedback,
		},
		{
			name:  "missing critical piece",
			input: "Missing critical error handling.",
			want:  StatusHasFeedback,
		},
		{
			name:  "required change",
			input: "A required change: rename the table.",
			want:  StatusHasFeedback,
		},
		{
			name:  "approval phrase negated by not ready",
			input: "not ready to proceed",
			want:  StatusHasFeedback,
		},
		{
			name:  "three should statements",
			input: "You should document the API. You should version the schema. You should pin dependencies.",
			want:  StatusHasFeedback,
		},
		{
			name:  "two should statements stay unclear",
			input: "You should document the API. You should version the schema.",
			want:  StatusUnclear,
		},
		{
			name:  "long neutral review",
			input: strings.Repeat("The reviewer restated the design in neutral terms. ", 5),
			want:  StatusHasFeedback,
		},
		{
			name:  "short neutral review",
			input: "Interesting approach.",
			want:  StatusUnclear,
		},
		{
			name:  "empty",
			input: "",
			want:  StatusUnclear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.input); got != tt.want {
				t.Errorf("Analyze(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	reviews := []Review{
		{AgentIdentifier: "REVIEW AGENT 1", AgentName: "claude_reviewer", Feedback: "Looks good. Ready to proceed."},
		{AgentIdentifier: "REVIEW AGENT 2", AgentName: "codex_reviewer", Feedback: "You must fix the index before merge."},
		{AgentName: "gemini_reviewer", Feedback: "Hmm."},
	}

	s := Summarize(reviews)

	if s.ApprovedCount != 1 || s.FeedbackCount != 1 || s.UnclearCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", s.ApprovedCount, s.FeedbackCount, s.UnclearCount)
	}
	if s.AllApproved {
		t.Error("AllApproved = true, want false")
	}
	if got := s.ByStatus[StatusApproved]; !reflect.DeepEqual(got, []string{"REVIEW AGENT 1"}) {
		t.Errorf("approved agents = %v, want [REVIEW AGENT 1]", got)
	}
	if got := s.ByStatus[StatusHasFeedback]; !reflect.DeepEqual(got, []string{"REVIEW AGENT 2"}) {
		t.Errorf("feedback agents = %v, want [REVIEW AGENT 2]", got)
	}
	if got := s.ByStatus[StatusUnclear]; !reflect.DeepEqual(got, []string{"gemini_reviewer"}) {
		t.Errorf("unclear agents = %v, want [gemini_reviewer]", got)
	}
}

func TestSummarizeAllApproved(t *testing.T) {
	s := Summarize([]Review{
		{AgentIdentifier: "REVIEW AGENT 1", Feedback: "Approved."},
		{AgentIdentifier: "REVIEW AGENT 2", Feedback: "No concerns, all good."},
	})

	if !s.AllApproved {
		t.Error("AllApproved = false, want true")
	}
	if s.ApprovedCount != 2 {
		t.Errorf("ApprovedCount = %d, want 2", s.ApprovedCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	if s.AllApproved {
		t.Error("AllApproved = true for zero reviews, want false")
	}
	if s.ApprovedCount != 0 || s.FeedbackCount != 0 || s.UnclearCount != 0 {
		t.Errorf("counts = %d/%d/%d, want 0/0/0", s.ApprovedCount, s.FeedbackCount, s.UnclearCount)
	}
	// Status lists are present even when empty.
	for _, status := range []Status{StatusApproved, StatusHasFeedback, StatusUnclear} {
		if s.ByStatus[status] == nil {
			t.Errorf("ByStatus[%s] = nil, want empty list", status)
		}
	}
}

func TestSummarizeUnknownAgent(t *testing.T) {
	s := Summarize([]Review{{Feedback: "Approved."}})

	if got := s.ByStatus[StatusApproved]; !reflect.DeepEqual(got, []string{"Unknown"}) {
		t.Errorf("approved agents = %v, want [Unknown]", got)
	}
}
