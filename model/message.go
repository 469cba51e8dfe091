package model

import (
	"fmt"
	"time"
)

// ReviewerRole returns the positional message role for reviewer slot n
// (1-based).
func ReviewerRole(n int) string {
	return fmt.Sprintf("reviewer_%d", n)
}

// Message roles in a workflow conversation. Reviewer messages carry a
// positional role of the form "reviewer_1", "reviewer_2", built with
// ReviewerRole.
const (
	RoleUser    = "user"
	RolePlanner = "planner"
)

// Message is one entry in a workflow's conversation history. History is
// append-only in node-execution order.
type Message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// ReviewFeedback is one reviewer's output from a review round. AgentIdentifier
// is the stable generic label used inside prompts ("REVIEW AGENT 1"); AgentName
// is the real agent name kept for persistence.
type ReviewFeedback struct {
	AgentName       string    `json:"agent_name"`
	AgentType       string    `json:"agent_type"`
	AgentIdentifier string    `json:"agent_identifier"`
	Feedback        string    `json:"feedback"`
	Timestamp       time.Time `json:"timestamp"`
}
