package planreview

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow"
	"github.com/google/uuid"
)

// plannerNode invokes the planning agent. On a timeout it suspends with a
// timeout checkpoint; the resolution re-enters this node and is handled at the
// top before anything is re-invoked.
func (w *Workflow) plannerNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		return workflow.Continue(w.resolveTimeout(asResolution(res), state, "")), nil
	}
	// A cancellation at the preceding edit checkpoint arrives over an
	// unconditional edge; the router ends the run after this no-op.
	if state.NextStep == routeEnd {
		return workflow.Continue(Update{}), nil
	}

	planner := w.agents.Get(agent.RolePlanning, plannerAgentName)
	prompt := w.plannerPrompt(state)

	w.logger.Info("Running planner",
		"workflow", state.WorkflowID,
		"iteration", state.IterationCount,
		"custom_prompt", state.PlannerPrompt != "",
		"prompt_chars", len(prompt))

	text, err := w.invokeAgent(ctx, planner, state, prompt)
	if err != nil {
		if agent.IsTimeout(err) {
			return w.suspendOnTimeout(ctx, state, planner, prompt, err, Update{}), nil
		}
		return workflow.NodeResult[Update]{}, fmt.Errorf("planner %s: %w", planner.Name(), err)
	}

	return workflow.Continue(Update{
		CurrentPlan:      str(text),
		Status:           str(StatusPlanCreated),
		CheckpointNumber: num(state.CheckpointNumber + 1),
		Messages: []model.Message{
			{Role: model.RolePlanner, Name: planner.Name(), Content: text},
		},
		NextStep:             str(""),
		PlannerPrompt:        str(""),
		ConsolidatedFeedback: str(""),
		TimedOutAgent:        str(""),
		RetryAgent:           flag(false),
		TimeoutExtensionSecs: num(0),
		SkipTimedOutAgent:    str(""),
	}), nil
}

// plannerPrompt selects the prompt for this planning round: the user's custom
// prompt when one was edited, a history-aware revision prompt after the first
// iteration, the initial template otherwise.
func (w *Workflow) plannerPrompt(state State) string {
	if state.PlannerPrompt != "" {
		return state.PlannerPrompt
	}
	if state.IterationCount > 0 {
		return w.prompts.PlanningWithHistory(state.Messages, state.ReviewFeedback, state.ConsolidatedFeedback)
	}
	return w.prompts.PlanningInitial(initialRequirements(state))
}

// initialRequirements returns the user's original prompt.
func initialRequirements(state State) string {
	for _, m := range state.Messages {
		if m.Role == model.RoleUser {
			return m.Content
		}
	}
	return ""
}

// invokeAgent runs one agent call bracketed by an execution row. The row is
// always closed: the output on success, the failure reason otherwise.
func (w *Workflow) invokeAgent(ctx context.Context, a agent.Agent, state State, prompt string) (string, error) {
	ex := &model.AgentExecution{
		WorkflowID:   state.WorkflowID,
		AgentName:    a.Name(),
		AgentType:    string(a.Role()),
		InputContent: prompt,
		Status:       model.ExecutionRunning,
		StartedAt:    now(),
	}
	if err := w.executions.Start(ctx, ex); err != nil {
		w.logger.Warn("Failed to record agent execution", "agent", a.Name(), "error", err)
	}

	callCtx := ctx
	if state.RetryAgent && state.TimedOutAgent == a.Name() && state.TimeoutExtensionSecs > 0 {
		extended := a.Timeout() + time.Duration(state.TimeoutExtensionSecs)*time.Second
		w.logger.Info("Retrying agent with extended deadline", "agent", a.Name(), "timeout", extended)
		callCtx = agent.WithCallTimeout(ctx, extended)
	}

	text, err := a.Send(callCtx, prompt)

	completed := now()
	ex.CompletedAt = &completed
	ex.ExecutionTimeMS = completed.Sub(ex.StartedAt).Milliseconds()
	if err != nil {
		ex.Status = model.ExecutionFailed
		ex.OutputContent = err.Error()
	} else {
		ex.Status = model.ExecutionCompleted
		ex.OutputContent = text
	}
	if ferr := w.executions.Finish(ctx, ex); ferr != nil {
		w.logger.Warn("Failed to close agent execution", "agent", a.Name(), "error", ferr)
	}

	return text, err
}

// suspendOnTimeout records a timeout checkpoint and suspends on it. The extra
// update carries any partial progress (successful sibling reviews) into the
// persisted state.
func (w *Workflow) suspendOnTimeout(ctx context.Context, state State, a agent.Agent, prompt string, cause error, extra Update) workflow.NodeResult[Update] {
	timeout := a.Timeout()
	if state.RetryAgent && state.TimeoutExtensionSecs > 0 {
		timeout += time.Duration(state.TimeoutExtensionSecs) * time.Second
	}

	cp := model.Checkpoint{
		ID:         uuid.New().String(),
		WorkflowID: state.WorkflowID,
		Number:     state.CheckpointNumber + 1,
		StepName:   model.StepAgentTimeout,
		Iteration:  state.IterationCount,
		Instructions: fmt.Sprintf(
			"Agent %s timed out after %d seconds. Retry with an extended deadline, skip this agent, or cancel the workflow.",
			a.DisplayName(), int(timeout.Seconds())),
		Actions: model.CheckpointActions{
			Primary:   model.ActionRetryWithExtension,
			Secondary: []string{model.ActionSkip, model.ActionCancel},
		},
		Context: map[string]any{
			"kind":            "timeout",
			"agent_name":      a.Name(),
			"agent_type":      string(a.Role()),
			"timeout_seconds": int(timeout.Seconds()),
			"error":           cause.Error(),
			"prompt":          prompt,
		},
		CreatedAt: now(),
	}
	w.recordCheckpoint(ctx, cp)

	w.logger.Warn("Agent timed out, suspending for user decision",
		"workflow", state.WorkflowID,
		"agent", a.Name(),
		"timeout", timeout)

	extra.CheckpointNumber = num(cp.Number)
	extra.TimedOutAgent = str(a.Name())
	return workflow.Suspend(extra, cp)
}

// resolveTimeout turns a timeout-checkpoint resolution into state updates.
// skipRoute is the label skip continues on: reviewers re-enter themselves to
// finish the round, the planner falls through to its checkpoint.
func (w *Workflow) resolveTimeout(res model.Resolution, state State, skipRoute string) Update {
	switch res.Action {
	case model.ActionSkip:
		w.logger.Info("User skipped timed-out agent", "workflow", state.WorkflowID, "agent", state.TimedOutAgent)
		return Update{
			SkipTimedOutAgent: str(state.TimedOutAgent),
			TimedOutAgent:     str(""),
			NextStep:          str(skipRoute),
			Messages: []model.Message{
				{Role: model.RoleUser, Content: fmt.Sprintf("[User skipped timed-out agent %s]", state.TimedOutAgent)},
			},
		}
	case model.ActionCancel:
		return cancelled()
	default:
		// retry_with_extension, and the fallback for unknown actions.
		secs := int(w.extension.Seconds())
		w.logger.Info("User requested retry with extension",
			"workflow", state.WorkflowID,
			"agent", state.TimedOutAgent,
			"extension_secs", secs)
		return Update{
			RetryAgent:           flag(true),
			TimeoutExtensionSecs: num(secs),
			NextStep:             str(routeRetry),
			Messages: []model.Message{
				{Role: model.RoleUser, Content: fmt.Sprintf("[User retried timed-out agent %s with extension]", state.TimedOutAgent)},
			},
		}
	}
}

// recordCheckpoint persists a checkpoint row, best-effort: an audit write must
// never block a suspension.
func (w *Workflow) recordCheckpoint(ctx context.Context, cp model.Checkpoint) {
	if err := w.checkpoints.RecordCreated(ctx, cp); err != nil {
		w.logger.Warn("Failed to persist checkpoint row", "checkpoint", cp.ID, "error", err)
	}
}
