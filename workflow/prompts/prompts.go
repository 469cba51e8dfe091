// Package prompts builds the default prompts sent to planner and reviewer
// agents. The plan-review workflow takes a Templates value as a collaborator,
// so deployments can substitute their own prompt content without touching the
// workflow itself.
package prompts

import (
	"fmt"
	"strings"

	"github.com/c360studio/orchestra/model"
)

// Templates builds the default agent prompts.
type Templates struct{}

// NewTemplates creates the default prompt builder.
func NewTemplates() *Templates { return &Templates{} }

// PlanningInitial builds the first planning prompt from the user's
// requirements.
func (t *Templates) PlanningInitial(requirements string) string {
	return fmt.Sprintf(`You are a PLANNING AGENT helping develop a comprehensive plan.

The user has the following requirements:

%s

Please create a detailed development plan that addresses these requirements.

IMPORTANT: Respond directly with your plan. Do NOT use any tools or try to read files.
Base your plan on the requirements provided above.

Include:
- Architecture overview
- Implementation steps
- Timeline estimates
- Potential challenges

Your plan will be reviewed by multiple REVIEW AGENTS before implementation.

Provide your complete plan in your response.`, requirements)
}

// PlanningRevision builds a revision prompt from the current plan and the
// reviewers' feedback, without conversation history. It is also the editable
// default shown at the edit-planner-prompt checkpoint.
func (t *Templates) PlanningRevision(currentPlan string, feedback []model.ReviewFeedback) string {
	return fmt.Sprintf(`The REVIEW AGENT(s) have provided feedback on your plan.

**** CURRENT PLAN START ****
%s
**** CURRENT PLAN END ****

%s

Please revise your plan based on the feedback above.
Address the concerns raised and incorporate the suggestions.
`, currentPlan, feedbackBlocks(feedback))
}

// PlanningWithHistory builds a revision prompt that carries the full
// conversation history so the planner remembers previous attempts and user
// preferences. The consolidated feedback, if the user edited one at the review
// checkpoint, takes precedence over the raw per-agent feedback.
func (t *Templates) PlanningWithHistory(messages []model.Message, feedback []model.ReviewFeedback, consolidated string) string {
	var b strings.Builder
	b.WriteString("You are a PLANNING AGENT revising a development plan.\n\n")
	b.WriteString("Below is the full conversation so far, including your previous plan(s) and all review feedback:\n\n")
	b.WriteString(transcript(messages))

	if consolidated != "" {
		b.WriteString("\n**** CONSOLIDATED FEEDBACK START ****\n")
		b.WriteString(consolidated)
		b.WriteString("\n**** CONSOLIDATED FEEDBACK END ****\n")
	} else if len(feedback) > 0 {
		b.WriteString("\n")
		b.WriteString(feedbackBlocks(feedback))
		b.WriteString("\n")
	}

	b.WriteString(`
Please revise your plan based on the feedback above.
Address the concerns raised and incorporate the suggestions.
Respond with the complete revised plan, not a diff.
`)
	return b.String()
}

// ReviewRequest builds the review prompt for one reviewer. reviewerLabel is
// the generic identifier shown to the agent ("REVIEW AGENT 1"), never the real
// agent name.
func (t *Templates) ReviewRequest(plan, reviewerLabel string) string {
	return fmt.Sprintf(`You are a REVIEW AGENT (%s) helping review a development plan.

The PLANNING AGENT has prepared the following plan:

**** PLAN START ****
%s
**** PLAN END ****

Please provide expert review feedback on the plan.
Focus on:
- Technical feasibility
- Architecture concerns
- Missing considerations
- Timeline realism
- Security and scalability

Provide direct, unambiguous feedback that will help improve the plan.
`, reviewerLabel, plan)
}

// ReviewWithHistory builds a review prompt carrying the conversation history,
// so a reviewer can reference its previous review in later iterations.
func (t *Templates) ReviewWithHistory(messages []model.Message, plan, reviewerLabel string) string {
	return fmt.Sprintf(`You are a REVIEW AGENT (%s) reviewing a revised development plan.

Below is the full conversation so far, including previous plans and reviews:

%s
The PLANNING AGENT has revised the plan. Here is the current version:

**** PLAN START ****
%s
**** PLAN END ****

Please review the revised plan. Note whether your previous concerns were
addressed, and raise any new issues the revision introduced.

Provide direct, unambiguous feedback that will help improve the plan.
`, reviewerLabel, transcript(messages), plan)
}

// feedbackBlocks renders per-agent feedback with delimiter markers. The
// generic identifier labels each block so reviewer identities stay stable
// across iterations.
func feedbackBlocks(feedback []model.ReviewFeedback) string {
	blocks := make([]string, 0, len(feedback))
	for _, fb := range feedback {
		label := fb.AgentIdentifier
		if label == "" {
			label = fb.AgentName
		}
		blocks = append(blocks, fmt.Sprintf("**** %s FEEDBACK START ****\n%s\n**** %s FEEDBACK END ****", label, fb.Feedback, label))
	}
	return strings.Join(blocks, "\n\n")
}

// transcript renders the conversation history as labeled turns.
func transcript(messages []model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		label := strings.ToUpper(m.Role)
		b.WriteString(fmt.Sprintf("--- %s ---\n%s\n\n", label, m.Content))
	}
	return b.String()
}
