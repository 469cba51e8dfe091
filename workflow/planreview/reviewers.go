package planreview

import (
	"context"
	"errors"
	"fmt"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow"
	"golang.org/x/sync/errgroup"
)

// reviewersNode fans the plan out to every configured review agent in
// parallel. A round is complete when every non-skipped slot has feedback; a
// timeout suspends with the successes preserved so a retry or skip only
// touches the missing slots.
func (w *Workflow) reviewersNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		return workflow.Continue(w.resolveTimeout(asResolution(res), state, routeRetry)), nil
	}
	// A cancellation at the preceding edit checkpoint arrives over an
	// unconditional edge; the router ends the run after this no-op.
	if state.NextStep == routeEnd {
		return workflow.Continue(Update{}), nil
	}

	reviewers := w.agents.ReviewAgents()
	if len(reviewers) == 0 {
		return workflow.NodeResult[Update]{}, errors.New("no review agents configured")
	}
	plan := state.PlanToReview()

	// A mid-round re-entry (retry or skip after a timeout) keeps the
	// feedback already collected; a fresh round replaces it wholesale.
	existing := make(map[string]model.ReviewFeedback)
	if state.RetryAgent || state.SkipTimedOutAgent != "" {
		for _, fb := range state.ReviewFeedback {
			existing[fb.AgentName] = fb
		}
	}

	type outcome struct {
		text string
		err  error
	}
	outcomes := make([]outcome, len(reviewers))
	prompts := make([]string, len(reviewers))

	var ran int
	var g errgroup.Group
	for i, a := range reviewers {
		if a.Name() == state.SkipTimedOutAgent {
			continue
		}
		if _, ok := existing[a.Name()]; ok {
			continue
		}
		i, a := i, a
		prompts[i] = w.reviewPrompt(state, plan, reviewerLabel(i+1))
		ran++
		g.Go(func() error {
			text, err := w.invokeAgent(ctx, a, state, prompts[i])
			outcomes[i] = outcome{text: text, err: err}
			return nil
		})
	}

	w.logger.Info("Running reviewers",
		"workflow", state.WorkflowID,
		"iteration", state.IterationCount,
		"agents", len(reviewers),
		"invoked", ran)

	// Siblings run to completion even when one fails; outcomes are
	// classified after the whole round settles.
	_ = g.Wait()

	var (
		feedback []model.ReviewFeedback
		messages []model.Message
		timedOut = -1
	)
	for i, a := range reviewers {
		if a.Name() == state.SkipTimedOutAgent {
			continue
		}
		if fb, ok := existing[a.Name()]; ok {
			feedback = append(feedback, fb)
			continue
		}
		oc := outcomes[i]
		if oc.err != nil {
			if agent.IsTimeout(oc.err) {
				if timedOut < 0 {
					timedOut = i
				}
				continue
			}
			return workflow.NodeResult[Update]{}, fmt.Errorf("reviewer %s: %w", a.Name(), oc.err)
		}
		feedback = append(feedback, model.ReviewFeedback{
			AgentName:       a.Name(),
			AgentType:       string(a.Role()),
			AgentIdentifier: reviewerLabel(i + 1),
			Feedback:        oc.text,
			Timestamp:       now(),
		})
		messages = append(messages, model.Message{
			Role:    model.ReviewerRole(i + 1),
			Name:    a.Name(),
			Content: oc.text,
		})
	}

	if timedOut >= 0 {
		a := reviewers[timedOut]
		return w.suspendOnTimeout(ctx, state, a, prompts[timedOut], outcomes[timedOut].err, Update{
			ReviewFeedback: feedback,
			Messages:       messages,
		}), nil
	}

	return workflow.Continue(Update{
		ReviewFeedback:       feedback,
		Messages:             messages,
		Status:               str(StatusReviewsCollected),
		CheckpointNumber:     num(state.CheckpointNumber + 1),
		NextStep:             str(""),
		ReviewerPrompt:       str(""),
		TimedOutAgent:        str(""),
		RetryAgent:           flag(false),
		TimeoutExtensionSecs: num(0),
		SkipTimedOutAgent:    str(""),
	}), nil
}

// reviewPrompt selects the prompt for one reviewer: the user's edited prompt
// when one was set, a history-aware prompt after the first iteration, the
// plain review request otherwise.
func (w *Workflow) reviewPrompt(state State, plan, label string) string {
	if state.ReviewerPrompt != "" {
		return state.ReviewerPrompt
	}
	if state.IterationCount > 0 {
		return w.prompts.ReviewWithHistory(state.Messages, plan, label)
	}
	return w.prompts.ReviewRequest(plan, label)
}

// reviewerLabel is the generic identifier a reviewer sees in prompts and the
// planner sees in feedback blocks. Real agent names stay out of prompt text.
func reviewerLabel(n int) string {
	return fmt.Sprintf("REVIEW AGENT %d", n)
}
