// Package orchestrator drives workflow runs end to end: it creates workflow
// rows, executes the plan-review graph in the background, surfaces pending
// checkpoints to callers, applies resolutions, and fans lifecycle events out
// to subscribers.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/review"
	"github.com/c360studio/orchestra/storage"
	"github.com/c360studio/orchestra/workflow"
	"github.com/c360studio/orchestra/workflow/planreview"
	"github.com/c360studio/orchestra/workflow/prompts"
	"github.com/prometheus/client_golang/prometheus"
)

// Service is the workflow runtime facade.
type Service struct {
	store    *storage.Store
	agents   *agent.Registry
	graph    *workflow.Graph[planreview.State, planreview.Update]
	status   *StatusManager
	notifier *Notifier
	metrics  *Metrics
	logger   *slog.Logger

	wg sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	extension  time.Duration
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithRegisterer sets the Prometheus registerer metrics are registered with.
// The default is a private registry, so embedding deployments opt in to
// exposure explicitly.
func WithRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(c *serviceConfig) { c.registerer = reg }
}

// WithExtension overrides the deadline extension granted when a user retries
// a timed-out agent.
func WithExtension(d time.Duration) ServiceOption {
	return func(c *serviceConfig) { c.extension = d }
}

// NewService wires the runtime over the given store and agent registry.
func NewService(store *storage.Store, agents *agent.Registry, opts ...ServiceOption) *Service {
	cfg := serviceConfig{
		logger:     slog.Default(),
		registerer: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	metrics := NewMetrics(cfg.registerer)
	notifier := NewNotifier(cfg.logger)

	wfOpts := []planreview.Option{planreview.WithLogger(cfg.logger)}
	if cfg.extension > 0 {
		wfOpts = append(wfOpts, planreview.WithTimeoutExtension(cfg.extension))
	}
	wf := planreview.New(
		agents,
		prompts.NewTemplates(),
		instrumentedExecutions{store: store, metrics: metrics},
		instrumentedCheckpoints{store: store, metrics: metrics},
		wfOpts...,
	)

	return &Service{
		store:    store,
		agents:   agents,
		graph:    wf.Graph(store),
		status:   NewStatusManager(store, notifier, cfg.logger),
		notifier: notifier,
		metrics:  metrics,
		logger:   cfg.logger,
	}
}

// Create starts a new plan-review workflow and returns its row. The graph
// executes in the background; subscribe or poll to follow it.
func (s *Service) Create(ctx context.Context, name, initialPrompt string) (model.Workflow, error) {
	now := time.Now().UTC()
	wf := model.Workflow{
		ID:        model.NewWorkflowID(),
		Name:      name,
		Type:      model.TypePlanReview,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWorkflow(ctx, wf); err != nil {
		return model.Workflow{}, fmt.Errorf("create workflow: %w", err)
	}
	s.status.Track(wf.ID, model.StatusPending)
	s.metrics.WorkflowStarted()

	s.logger.Info("Workflow created", "workflow", wf.ID, "name", name)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.Background()
		if err := s.status.Mark(ctx, wf.ID, model.StatusRunning, nil); err != nil {
			s.logger.Error("Failed to mark workflow running", "workflow", wf.ID, "error", err)
		}
		res, err := s.graph.Invoke(ctx, wf.ID, planreview.InitialState(wf.ID, initialPrompt))
		s.settle(ctx, wf.ID, res, err)
	}()
	return wf, nil
}

// Resume applies a checkpoint resolution to a suspended workflow and continues
// it in the background.
func (s *Service) Resume(ctx context.Context, workflowID string, res model.Resolution) error {
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}
	if wf.Status != model.StatusAwaitingCheckpoint {
		return fmt.Errorf("workflow %s is %s, not awaiting a checkpoint", workflowID, wf.Status)
	}

	snap, err := s.store.Latest(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("load state for %s: %w", workflowID, err)
	}
	if len(snap.Interrupts) == 0 {
		return fmt.Errorf("workflow %s: %w", workflowID, workflow.ErrNotSuspended)
	}

	// Close the checkpoint row for audit before continuing the graph.
	var cp model.Checkpoint
	if err := json.Unmarshal(snap.Interrupts[0], &cp); err == nil && cp.ID != "" {
		if err := s.store.RecordCreated(ctx, cp); err != nil {
			s.logger.Warn("Failed to persist checkpoint row", "checkpoint", cp.ID, "error", err)
		}
		if err := s.store.RecordResolution(ctx, cp.ID, res); err != nil {
			s.logger.Warn("Failed to record checkpoint resolution", "checkpoint", cp.ID, "error", err)
		}
	}

	if err := s.status.Mark(ctx, workflowID, model.StatusRunning, nil); err != nil {
		return err
	}

	s.logger.Info("Resuming workflow",
		"workflow", workflowID,
		"checkpoint", cp.ID,
		"action", res.Action)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.Background()
		result, err := s.graph.Resume(ctx, workflowID, workflow.Command{Resume: res})
		s.settle(ctx, workflowID, result, err)
	}()
	return nil
}

// settle translates one Invoke/Resume outcome into a status transition.
func (s *Service) settle(ctx context.Context, workflowID string, res workflow.Result[planreview.State], err error) {
	switch {
	case err != nil:
		s.logger.Error("Workflow failed", "workflow", workflowID, "error", err)
		s.mark(ctx, workflowID, model.StatusFailed, err)
	case res.Suspended:
		s.mark(ctx, workflowID, model.StatusAwaitingCheckpoint, nil)
	case res.State.Status == planreview.StatusCancelled:
		s.mark(ctx, workflowID, model.StatusCancelled, nil)
	default:
		s.mark(ctx, workflowID, model.StatusCompleted, nil)
	}
}

func (s *Service) mark(ctx context.Context, workflowID string, status model.WorkflowStatus, cause error) {
	if err := s.status.Mark(ctx, workflowID, status, cause); err != nil {
		s.logger.Error("Failed to update workflow status",
			"workflow", workflowID,
			"status", status,
			"error", err)
		return
	}
	if status.IsTerminal() {
		s.metrics.WorkflowFinished(status)
	}
}

// WorkflowDetail is the full view of one workflow: its row, the live state
// summary, the pending checkpoint if suspended, and all execution rows with
// review approvals classified.
type WorkflowDetail struct {
	Workflow          model.Workflow         `json:"workflow"`
	Iteration         int                    `json:"iteration"`
	CurrentPlan       string                 `json:"current_plan,omitempty"`
	PendingCheckpoint *model.Checkpoint      `json:"pending_checkpoint,omitempty"`
	ReviewSummary     *review.Summary        `json:"review_summary,omitempty"`
	Executions        []model.AgentExecution `json:"executions,omitempty"`
}

// Get returns the detail view of one workflow.
func (s *Service) Get(ctx context.Context, workflowID string) (WorkflowDetail, error) {
	wf, err := s.store.GetWorkflow(ctx, workflowID)
	if err != nil {
		return WorkflowDetail{}, err
	}
	detail := WorkflowDetail{Workflow: wf}

	snap, err := s.store.Latest(ctx, workflowID)
	switch {
	case err == nil:
		var state planreview.State
		if err := json.Unmarshal(snap.Values, &state); err != nil {
			return WorkflowDetail{}, fmt.Errorf("decode state for %s: %w", workflowID, err)
		}
		detail.Iteration = state.IterationCount
		detail.CurrentPlan = state.PlanToReview()

		if len(state.ReviewFeedback) > 0 {
			reviews := make([]review.Review, len(state.ReviewFeedback))
			for i, fb := range state.ReviewFeedback {
				reviews[i] = review.Review{
					AgentIdentifier: fb.AgentIdentifier,
					AgentName:       fb.AgentName,
					Feedback:        fb.Feedback,
				}
			}
			summary := review.Summarize(reviews)
			detail.ReviewSummary = &summary
		}

		if len(snap.Interrupts) > 0 {
			var cp model.Checkpoint
			if err := json.Unmarshal(snap.Interrupts[0], &cp); err == nil && cp.ID != "" {
				detail.PendingCheckpoint = &cp
				// Pollers may observe the interrupt before the node's own
				// audit write landed; the insert is idempotent.
				if err := s.store.RecordCreated(ctx, cp); err != nil {
					s.logger.Warn("Failed to persist checkpoint row", "checkpoint", cp.ID, "error", err)
				}
			}
		}
	case errors.Is(err, workflow.ErrThreadNotFound):
		// Created but not yet stepped; the row alone is the answer.
	default:
		return WorkflowDetail{}, fmt.Errorf("load state for %s: %w", workflowID, err)
	}

	execs, err := s.store.ListExecutions(ctx, workflowID)
	if err != nil {
		return WorkflowDetail{}, err
	}
	for i := range execs {
		if execs[i].AgentType == string(agent.RoleReview) && execs[i].Status == model.ExecutionCompleted {
			execs[i].ApprovalStatus = string(review.Analyze(execs[i].OutputContent))
		}
	}
	detail.Executions = execs
	return detail, nil
}

// List returns all workflow rows, newest first.
func (s *Service) List(ctx context.Context) ([]model.Workflow, error) {
	return s.store.ListWorkflows(ctx)
}

// Checkpoints returns a workflow's checkpoint audit trail in creation order.
func (s *Service) Checkpoints(ctx context.Context, workflowID string) ([]storage.CheckpointRecord, error) {
	return s.store.ListCheckpoints(ctx, workflowID)
}

// HistoryEntry is one persisted step of a workflow.
type HistoryEntry struct {
	Seq              int64     `json:"seq"`
	Step             string    `json:"step"`
	Status           string    `json:"status"`
	Iteration        int       `json:"iteration"`
	CheckpointNumber int       `json:"checkpoint_number"`
	Suspended        bool      `json:"suspended"`
	CreatedAt        time.Time `json:"created_at"`
}

// History returns a workflow's persisted steps, oldest first. Each entry is
// typed by what the state held at that point: review once feedback exists,
// plan once a plan exists, unknown before either.
func (s *Service) History(ctx context.Context, workflowID string) ([]HistoryEntry, error) {
	snaps, err := s.store.History(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		snap := snaps[i]
		var state planreview.State
		if err := json.Unmarshal(snap.Values, &state); err != nil {
			return nil, fmt.Errorf("decode state for %s seq %d: %w", workflowID, snap.Seq, err)
		}
		out = append(out, HistoryEntry{
			Seq:              snap.Seq,
			Step:             stepKind(state),
			Status:           state.Status,
			Iteration:        state.IterationCount,
			CheckpointNumber: state.CheckpointNumber,
			Suspended:        len(snap.Interrupts) > 0,
			CreatedAt:        snap.CreatedAt,
		})
	}
	return out, nil
}

func stepKind(state planreview.State) string {
	switch {
	case len(state.ReviewFeedback) > 0:
		return "review"
	case state.CurrentPlan != "":
		return "plan"
	default:
		return "unknown"
	}
}

// Subscribe registers for one workflow's lifecycle events.
func (s *Service) Subscribe(workflowID string) (<-chan model.Event, func()) {
	return s.notifier.Subscribe(workflowID)
}

// Wait blocks until every background run started by this service returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close waits for background runs and releases the agent registry.
func (s *Service) Close() {
	s.wg.Wait()
	s.agents.StopAll()
}
