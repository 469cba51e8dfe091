package planreview

import (
	"context"
	"strings"

	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow"
	"github.com/google/uuid"
)

// planCheckpointNode suspends after the planner produced a plan. The user can
// edit the plan and send it to the reviewers, take over the full reviewer
// prompt, or cancel.
func (w *Workflow) planCheckpointNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		r := asResolution(res)
		switch r.Action {
		case model.ActionEditAndContinue:
			return workflow.Continue(Update{
				Status:   str(StatusEditingReviewerPrompt),
				NextStep: str(routeEditReviewerPrompt),
				Messages: marker("[User wants to edit full reviewer prompt]"),
			}), nil
		case model.ActionCancel:
			return workflow.Continue(cancelled()), nil
		default:
			// send_to_reviewers, and the fallback for unknown actions.
			u := Update{
				Status:   str(StatusReadyForReview),
				NextStep: str(routeReviewAgents),
				Messages: marker("[User approved plan for review]"),
			}
			if r.EditedContent != "" {
				u.UserEdits = str(r.EditedContent)
			}
			return workflow.Continue(u), nil
		}
	}

	cp := model.Checkpoint{
		ID:           uuid.New().String(),
		WorkflowID:   state.WorkflowID,
		Number:       state.CheckpointNumber,
		StepName:     model.StepPlanReadyForReview,
		Iteration:    state.IterationCount,
		Instructions: "The PLANNING AGENT has created a plan. Review and edit if needed before sending to REVIEW AGENTS.",
		Actions: model.CheckpointActions{
			Primary:   model.ActionSendToReviewers,
			Secondary: []string{model.ActionEditAndContinue, model.ActionCancel},
		},
		AgentOutputs: []model.AgentOutput{
			{AgentName: plannerAgentName, AgentType: "planning", Output: state.CurrentPlan, Timestamp: now()},
		},
		EditableContent: state.CurrentPlan,
		CreatedAt:       now(),
	}
	w.recordCheckpoint(ctx, cp)
	return workflow.Suspend(Update{}, cp), nil
}

// reviewCheckpointNode suspends once all reviews are in. The user consolidates
// the feedback and requests a revision, takes over the full planner prompt,
// approves the plan as-is, or cancels.
func (w *Workflow) reviewCheckpointNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		r := asResolution(res)
		switch r.Action {
		case model.ActionEditPromptAndRevise:
			return workflow.Continue(Update{
				Status:   str(StatusEditingPlannerPrompt),
				NextStep: str(routeEditPlannerPrompt),
				Messages: marker("[User wants to edit full planner prompt]"),
			}), nil
		case model.ActionApprovePlan:
			return workflow.Continue(Update{
				Status:   str(StatusCompleted),
				NextStep: str(routeEnd),
				Messages: marker("[User approved plan without revision]"),
			}), nil
		case model.ActionCancel:
			return workflow.Continue(cancelled()), nil
		default:
			// request_revision, and the fallback for unknown actions.
			return workflow.Continue(Update{
				ConsolidatedFeedback: str(r.EditedContent),
				Status:               str(StatusRevisionNeeded),
				NextStep:             str(routePlanner),
				IterationCount:       num(state.IterationCount + 1),
				Messages:             marker("[User requested plan revision based on reviews]"),
			}), nil
		}
	}

	cp := model.Checkpoint{
		ID:           uuid.New().String(),
		WorkflowID:   state.WorkflowID,
		Number:       state.CheckpointNumber,
		StepName:     model.StepReviewsReadyForConsolidation,
		Iteration:    state.IterationCount,
		Instructions: "All REVIEW AGENTS have provided feedback. Consolidate the reviews below, then request a revision, approve the plan as-is, or cancel.",
		Actions: model.CheckpointActions{
			Primary:   model.ActionRequestRevision,
			Secondary: []string{model.ActionEditPromptAndRevise, model.ActionApprovePlan, model.ActionCancel},
		},
		AgentOutputs:    reviewOutputs(state.ReviewFeedback),
		EditableContent: consolidateReviews(state.ReviewFeedback),
		CreatedAt:       now(),
	}
	w.recordCheckpoint(ctx, cp)
	return workflow.Suspend(Update{}, cp), nil
}

// editReviewerPromptNode suspends with the full reviewer prompt as editable
// content. Approval stores the edited prompt; the unconditional edge then
// carries the run into the reviewers.
func (w *Workflow) editReviewerPromptNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		r := asResolution(res)
		if r.Action == model.ActionCancel {
			return workflow.Continue(cancelled()), nil
		}
		u := Update{
			Status:   str(StatusReadyForReview),
			NextStep: str(""),
			Messages: marker("[User edited reviewer prompt and approved for review]"),
		}
		if r.EditedContent != "" {
			u.ReviewerPrompt = str(r.EditedContent)
		}
		return workflow.Continue(u), nil
	}

	cp := model.Checkpoint{
		ID:         uuid.New().String(),
		WorkflowID: state.WorkflowID,
		Number:     state.CheckpointNumber + 1,
		StepName:   model.StepEditReviewerPrompt,
		Iteration:  state.IterationCount,
		Instructions: "Edit the full prompt that will be sent to each REVIEW AGENT. " +
			"Tip: wrap your own guidance in **** USER FEEDBACK START **** / **** USER FEEDBACK END **** markers so it stands out from the plan.",
		Actions: model.CheckpointActions{
			Primary:   model.ActionSendToReviewers,
			Secondary: []string{model.ActionCancel},
		},
		EditableContent: w.prompts.ReviewRequest(state.PlanToReview(), "REVIEW_AGENT"),
		CreatedAt:       now(),
	}
	w.recordCheckpoint(ctx, cp)
	return workflow.Suspend(Update{CheckpointNumber: num(cp.Number)}, cp), nil
}

// editPlannerPromptNode suspends with the full revision prompt as editable
// content. Approval stores the edited prompt and starts a new iteration; the
// unconditional edge then carries the run back into the planner.
func (w *Workflow) editPlannerPromptNode(ctx context.Context, run *workflow.Run, state State) (workflow.NodeResult[Update], error) {
	if res, ok := run.Resumed(); ok {
		r := asResolution(res)
		if r.Action == model.ActionCancel {
			return workflow.Continue(cancelled()), nil
		}
		u := Update{
			Status:         str(StatusRevisionNeeded),
			NextStep:       str(""),
			IterationCount: num(state.IterationCount + 1),
			Messages:       marker("[User edited planner prompt and requested revision]"),
		}
		if r.EditedContent != "" {
			u.PlannerPrompt = str(r.EditedContent)
		}
		return workflow.Continue(u), nil
	}

	cp := model.Checkpoint{
		ID:         uuid.New().String(),
		WorkflowID: state.WorkflowID,
		Number:     state.CheckpointNumber + 1,
		StepName:   model.StepEditPlannerPrompt,
		Iteration:  state.IterationCount,
		Instructions: "Edit the full revision prompt that will be sent to the PLANNING AGENT. " +
			"Tip: wrap your own guidance in **** USER FEEDBACK START **** / **** USER FEEDBACK END **** markers so it stands out from the feedback.",
		Actions: model.CheckpointActions{
			Primary:   model.ActionSendToPlannerForRevision,
			Secondary: []string{model.ActionCancel},
		},
		EditableContent: w.prompts.PlanningRevision(state.PlanToReview(), state.ReviewFeedback),
		CreatedAt:       now(),
	}
	w.recordCheckpoint(ctx, cp)
	return workflow.Suspend(Update{CheckpointNumber: num(cp.Number)}, cp), nil
}

// consolidateReviews renders the editable consolidation document shown at the
// review checkpoint. Sections are labeled with generic identifiers; the user
// edits the final section before requesting a revision.
func consolidateReviews(feedback []model.ReviewFeedback) string {
	var b strings.Builder
	b.WriteString("=== CONSOLIDATED REVIEW FEEDBACK ===\n\n")
	sep := strings.Repeat("=", 60)
	for _, fb := range feedback {
		label := fb.AgentIdentifier
		if label == "" {
			label = fb.AgentName
		}
		b.WriteString("## " + label + "\n\n")
		b.WriteString(fb.Feedback)
		b.WriteString("\n\n" + sep + "\n\n")
	}
	b.WriteString("=== USER CONSOLIDATION ===\n")
	b.WriteString("[Edit this section to consolidate the feedback and set priorities for the planner.]")
	return b.String()
}

// reviewOutputs converts collected feedback into checkpoint agent outputs.
func reviewOutputs(feedback []model.ReviewFeedback) []model.AgentOutput {
	outputs := make([]model.AgentOutput, 0, len(feedback))
	for _, fb := range feedback {
		outputs = append(outputs, model.AgentOutput{
			AgentName: fb.AgentName,
			AgentType: fb.AgentType,
			Output:    fb.Feedback,
			Timestamp: fb.Timestamp,
		})
	}
	return outputs
}

// marker wraps a user-visible decision marker as a conversation message.
func marker(text string) []model.Message {
	return []model.Message{{Role: model.RoleUser, Content: text}}
}

// cancelled is the update every cancel action reduces to.
func cancelled() Update {
	return Update{
		Status:   str(StatusCancelled),
		NextStep: str(routeEnd),
		Messages: marker("[User cancelled workflow]"),
	}
}
