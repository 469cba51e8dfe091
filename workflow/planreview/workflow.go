package planreview

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow"
)

// Graph node names.
const (
	NodePlanner            = "planner"
	NodePlanCheckpoint     = "plan_checkpoint"
	NodeEditReviewerPrompt = "edit_reviewer_prompt_checkpoint"
	NodeReviewers          = "reviewers"
	NodeReviewCheckpoint   = "review_checkpoint"
	NodeEditPlannerPrompt  = "edit_planner_prompt_checkpoint"
)

// Routing labels consumed by conditional edges; checkpoint nodes write them
// into State.NextStep.
const (
	routeRetry              = "retry"
	routeEnd                = "end"
	routeContinue           = "continue"
	routeReviewAgents       = "review_agents"
	routeEditReviewerPrompt = "edit_reviewer_prompt"
	routeEditPlannerPrompt  = "edit_planner_prompt"
	routePlanner            = "planning_agent"
)

// plannerAgentName is the fixed planning agent.
const plannerAgentName = "claude_planner"

// defaultTimeoutExtension is added to an agent's deadline when the user picks
// retry_with_extension at a timeout checkpoint.
const defaultTimeoutExtension = 300 * time.Second

// AgentSource supplies configured agents. *agent.Registry satisfies it.
type AgentSource interface {
	Get(role agent.Role, name string) agent.Agent
	ReviewAgents() []agent.Agent
}

// ExecutionRecorder persists agent-execution rows. Start assigns the row id;
// Finish closes it. Every invocation opens exactly one row and always closes
// it, whether the call succeeded or failed.
type ExecutionRecorder interface {
	Start(ctx context.Context, ex *model.AgentExecution) error
	Finish(ctx context.Context, ex *model.AgentExecution) error
}

// CheckpointRecorder persists checkpoint rows for audit. RecordCreated must be
// idempotent on the checkpoint id.
type CheckpointRecorder interface {
	RecordCreated(ctx context.Context, cp model.Checkpoint) error
}

// PromptBuilder supplies the default prompt templates. *prompts.Templates
// satisfies it.
type PromptBuilder interface {
	PlanningInitial(requirements string) string
	PlanningRevision(currentPlan string, feedback []model.ReviewFeedback) string
	PlanningWithHistory(messages []model.Message, feedback []model.ReviewFeedback, consolidated string) string
	ReviewRequest(plan, reviewerLabel string) string
	ReviewWithHistory(messages []model.Message, plan, reviewerLabel string) string
}

// Workflow wires the plan-review graph: planner and reviewer nodes that invoke
// agents, and checkpoint nodes that suspend for human decisions.
type Workflow struct {
	agents      AgentSource
	prompts     PromptBuilder
	executions  ExecutionRecorder
	checkpoints CheckpointRecorder
	logger      *slog.Logger
	extension   time.Duration
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

// WithTimeoutExtension overrides the deadline extension granted by
// retry_with_extension.
func WithTimeoutExtension(d time.Duration) Option {
	return func(w *Workflow) { w.extension = d }
}

// New creates a plan-review workflow over the given collaborators.
func New(agents AgentSource, prompts PromptBuilder, executions ExecutionRecorder, checkpoints CheckpointRecorder, opts ...Option) *Workflow {
	w := &Workflow{
		agents:      agents,
		prompts:     prompts,
		executions:  executions,
		checkpoints: checkpoints,
		logger:      slog.Default(),
		extension:   defaultTimeoutExtension,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Graph builds the executable graph over the given snapshot store.
//
//	planner ──▶ plan_checkpoint ──▶ reviewers ──▶ review_checkpoint ──▶ END
//	   ▲  ╲retry        │edit            ▲ ╲retry        │revise
//	   │                ▼                │               ▼
//	   └──── edit_planner_prompt  edit_reviewer_prompt ──┘ (loop back)
func (w *Workflow) Graph(store workflow.SnapshotStore) *workflow.Graph[State, Update] {
	g := workflow.NewGraph(Reduce, store, workflow.WithGraphLogger[State, Update](w.logger))

	g.AddNode(NodePlanner, w.plannerNode)
	g.AddNode(NodePlanCheckpoint, w.planCheckpointNode)
	g.AddNode(NodeEditReviewerPrompt, w.editReviewerPromptNode)
	g.AddNode(NodeReviewers, w.reviewersNode)
	g.AddNode(NodeReviewCheckpoint, w.reviewCheckpointNode)
	g.AddNode(NodeEditPlannerPrompt, w.editPlannerPromptNode)

	g.SetEntryPoint(NodePlanner)

	g.AddConditionalEdges(NodePlanner, agentRouter, map[string]string{
		routeRetry:    NodePlanner,
		routeEnd:      workflow.END,
		routeContinue: NodePlanCheckpoint,
	})
	g.AddConditionalEdges(NodePlanCheckpoint, nextStepRouter(routeReviewAgents), map[string]string{
		routeEditReviewerPrompt: NodeEditReviewerPrompt,
		routeReviewAgents:       NodeReviewers,
		routeEnd:                workflow.END,
	})
	g.AddEdge(NodeEditReviewerPrompt, NodeReviewers)
	g.AddConditionalEdges(NodeReviewers, agentRouter, map[string]string{
		routeRetry:    NodeReviewers,
		routeEnd:      workflow.END,
		routeContinue: NodeReviewCheckpoint,
	})
	g.AddConditionalEdges(NodeReviewCheckpoint, nextStepRouter(routeEnd), map[string]string{
		routeEditPlannerPrompt: NodeEditPlannerPrompt,
		routePlanner:           NodePlanner,
		routeEnd:               workflow.END,
	})
	g.AddEdge(NodeEditPlannerPrompt, NodePlanner)

	return g
}

// agentRouter routes after an agent node: a timeout-checkpoint retry loops
// back into the node, a cancellation ends the run, anything else continues to
// the node's checkpoint.
func agentRouter(s State) string {
	switch s.NextStep {
	case routeRetry:
		return routeRetry
	case routeEnd:
		return routeEnd
	default:
		return routeContinue
	}
}

// nextStepRouter routes on State.NextStep with a fallback label.
func nextStepRouter(fallback string) workflow.Router[State] {
	return func(s State) string {
		if s.NextStep == "" {
			return fallback
		}
		return s.NextStep
	}
}

// asResolution normalizes the resume payload delivered through the engine into
// a typed Resolution. Callers resume with model.Resolution; the generic forms
// cover payloads that crossed a serialization boundary.
func asResolution(v any) model.Resolution {
	switch r := v.(type) {
	case model.Resolution:
		return r
	case *model.Resolution:
		return *r
	case json.RawMessage:
		var res model.Resolution
		_ = json.Unmarshal(r, &res)
		return res
	case map[string]any:
		res := model.Resolution{}
		if s, ok := r["action"].(string); ok {
			res.Action = s
		}
		if s, ok := r["edited_content"].(string); ok {
			res.EditedContent = s
		}
		if s, ok := r["user_notes"].(string); ok {
			res.UserNotes = s
		}
		return res
	default:
		return model.Resolution{}
	}
}
