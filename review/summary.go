package review

// Review is one reviewer's output, as fed to Summarize.
type Review struct {
	// AgentIdentifier is the positional label shown to the user,
	// e.g. "REVIEW AGENT 1". Falls back to AgentName when empty.
	AgentIdentifier string `json:"agent_identifier,omitempty"`
	AgentName       string `json:"agent_name,omitempty"`
	Feedback        string `json:"feedback"`
}

// Summary aggregates classification results across a set of reviews.
type Summary struct {
	ApprovedCount int `json:"approved_count"`
	FeedbackCount int `json:"feedback_count"`
	UnclearCount  int `json:"unclear_count"`
	// AllApproved is true only when every review classified as approved
	// and at least one review exists.
	AllApproved bool                `json:"all_approved"`
	ByStatus    map[Status][]string `json:"reviews_by_status"`
}

// Summarize classifies each review and aggregates the results.
func Summarize(reviews []Review) Summary {
	byStatus := map[Status][]string{
		StatusApproved:    {},
		StatusHasFeedback: {},
		StatusUnclear:     {},
	}

	for _, r := range reviews {
		id := r.AgentIdentifier
		if id == "" {
			id = r.AgentName
		}
		if id == "" {
			id = "Unknown"
		}
		status := Analyze(r.Feedback)
		byStatus[status] = append(byStatus[status], id)
	}

	approved := len(byStatus[StatusApproved])
	return Summary{
		ApprovedCount: approved,
		FeedbackCount: len(byStatus[StatusHasFeedback]),
		UnclearCount:  len(byStatus[StatusUnclear]),
		AllApproved:   approved == len(reviews) && len(reviews) > 0,
		ByStatus:      byStatus,
	}
}
