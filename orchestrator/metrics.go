package orchestrator

import (
	"context"

	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow/planreview"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the runtime's Prometheus instrumentation.
type Metrics struct {
	workflowsStarted   prometheus.Counter
	workflowsFinished  *prometheus.CounterVec
	checkpointsCreated prometheus.Counter
	agentExecutions    *prometheus.CounterVec
	agentDuration      *prometheus.HistogramVec
}

// NewMetrics registers the runtime metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		workflowsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "orchestra_workflows_started_total",
			Help: "Workflows created.",
		}),
		workflowsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestra_workflows_finished_total",
			Help: "Workflows that reached a terminal status.",
		}, []string{"status"}),
		checkpointsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "orchestra_checkpoints_created_total",
			Help: "Human checkpoints created.",
		}),
		agentExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestra_agent_executions_total",
			Help: "Agent invocations by agent and final status.",
		}, []string{"agent", "status"}),
		agentDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orchestra_agent_execution_seconds",
			Help:    "Agent invocation duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"agent"}),
	}
}

// WorkflowStarted counts one created workflow.
func (m *Metrics) WorkflowStarted() {
	if m == nil {
		return
	}
	m.workflowsStarted.Inc()
}

// WorkflowFinished counts one terminal workflow.
func (m *Metrics) WorkflowFinished(status model.WorkflowStatus) {
	if m == nil {
		return
	}
	m.workflowsFinished.WithLabelValues(string(status)).Inc()
}

// ExecutionStore is the slice of the storage layer execution rows go through.
type ExecutionStore interface {
	StartExecution(ctx context.Context, ex *model.AgentExecution) error
	FinishExecution(ctx context.Context, ex *model.AgentExecution) error
}

// instrumentedExecutions records execution rows through the store and counts
// them. It is the ExecutionRecorder the workflow nodes see.
type instrumentedExecutions struct {
	store   ExecutionStore
	metrics *Metrics
}

func (r instrumentedExecutions) Start(ctx context.Context, ex *model.AgentExecution) error {
	return r.store.StartExecution(ctx, ex)
}

func (r instrumentedExecutions) Finish(ctx context.Context, ex *model.AgentExecution) error {
	if r.metrics != nil {
		r.metrics.agentExecutions.WithLabelValues(ex.AgentName, string(ex.Status)).Inc()
		r.metrics.agentDuration.WithLabelValues(ex.AgentName).
			Observe(float64(ex.ExecutionTimeMS) / 1000.0)
	}
	return r.store.FinishExecution(ctx, ex)
}

// CheckpointStore is the slice of the storage layer checkpoint rows go through.
type CheckpointStore interface {
	RecordCreated(ctx context.Context, cp model.Checkpoint) error
}

// instrumentedCheckpoints records checkpoint rows through the store and counts
// them. It is the CheckpointRecorder the workflow nodes see.
type instrumentedCheckpoints struct {
	store   CheckpointStore
	metrics *Metrics
}

func (r instrumentedCheckpoints) RecordCreated(ctx context.Context, cp model.Checkpoint) error {
	if r.metrics != nil {
		r.metrics.checkpointsCreated.Inc()
	}
	return r.store.RecordCreated(ctx, cp)
}

var (
	_ planreview.ExecutionRecorder  = instrumentedExecutions{}
	_ planreview.CheckpointRecorder = instrumentedCheckpoints{}
)
