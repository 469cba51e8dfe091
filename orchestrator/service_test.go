package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "orchestra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := agent.NewRegistry(agent.Settings{UseMock: true})
	svc := NewService(store, registry)
	t.Cleanup(svc.Close)
	return svc
}

func waitForStatus(t *testing.T, svc *Service, id string, want model.WorkflowStatus) WorkflowDetail {
	t.Helper()
	var detail WorkflowDetail
	require.Eventually(t, func() bool {
		d, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		detail = d
		return d.Workflow.Status == want
	}, 5*time.Second, 10*time.Millisecond, "workflow never reached %s", want)
	return detail
}

func TestServiceEndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	wf, err := svc.Create(ctx, "Todo app", "Build a todo app")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, wf.Status)

	// The planner runs and the workflow suspends on the plan checkpoint.
	detail := waitForStatus(t, svc, wf.ID, model.StatusAwaitingCheckpoint)
	require.NotNil(t, detail.PendingCheckpoint)
	assert.Equal(t, model.StepPlanReadyForReview, detail.PendingCheckpoint.StepName)
	assert.Equal(t, 1, detail.PendingCheckpoint.Number)
	assert.NotEmpty(t, detail.CurrentPlan)
	assert.Nil(t, detail.ReviewSummary, "no reviews collected yet")

	// Events for the continuation are observable once subscribed.
	events, cancel := svc.Subscribe(wf.ID)
	defer cancel()

	require.NoError(t, svc.Resume(ctx, wf.ID, model.Resolution{Action: model.ActionSendToReviewers}))

	detail = waitForStatus(t, svc, wf.ID, model.StatusAwaitingCheckpoint)
	require.NotNil(t, detail.PendingCheckpoint)
	assert.Equal(t, model.StepReviewsReadyForConsolidation, detail.PendingCheckpoint.StepName)
	assert.Len(t, detail.PendingCheckpoint.AgentOutputs, 3)

	// Collected reviews are summarized on read, keyed by generic identifier.
	require.NotNil(t, detail.ReviewSummary)
	sum := detail.ReviewSummary
	assert.Equal(t, 3, sum.ApprovedCount+sum.FeedbackCount+sum.UnclearCount)
	var labeled int
	for _, ids := range sum.ByStatus {
		labeled += len(ids)
		for _, id := range ids {
			assert.Contains(t, id, "REVIEW AGENT")
		}
	}
	assert.Equal(t, 3, labeled)

	var sawCheckpointReady bool
	for !sawCheckpointReady {
		select {
		case ev := <-events:
			if ev.Type == model.EventCheckpointReady {
				sawCheckpointReady = true
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no checkpoint_ready event after resume")
		}
	}

	// One execution row per agent call, reviews classified on read.
	require.Len(t, detail.Executions, 4)
	reviews := 0
	for _, ex := range detail.Executions {
		assert.Equal(t, model.ExecutionCompleted, ex.Status)
		if ex.AgentType == string(agent.RoleReview) {
			reviews++
			assert.NotEmpty(t, ex.ApprovalStatus)
		}
	}
	assert.Equal(t, 3, reviews)

	require.NoError(t, svc.Resume(ctx, wf.ID, model.Resolution{Action: model.ActionApprovePlan}))
	waitForStatus(t, svc, wf.ID, model.StatusCompleted)

	// Both checkpoints are persisted and resolved.
	recs, err := svc.Checkpoints(ctx, wf.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, model.CheckpointApproved, rec.Status)
		require.NotNil(t, rec.ResolvedAt)
	}

	// History runs oldest first with strictly increasing seq.
	history, err := svc.History(ctx, wf.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, int64(1), history[0].Seq)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Seq, history[i-1].Seq)
	}
	assert.Equal(t, "plan", history[0].Step)
	last := history[len(history)-1]
	assert.Equal(t, "review", last.Step)
	assert.False(t, last.Suspended)
}

func TestServiceCancelAtPlanCheckpoint(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	wf, err := svc.Create(ctx, "Todo app", "Build a todo app")
	require.NoError(t, err)
	waitForStatus(t, svc, wf.ID, model.StatusAwaitingCheckpoint)

	require.NoError(t, svc.Resume(ctx, wf.ID, model.Resolution{Action: model.ActionCancel}))
	waitForStatus(t, svc, wf.ID, model.StatusCancelled)

	recs, err := svc.Checkpoints(ctx, wf.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.CheckpointRejected, recs[0].Status)
}

func TestServiceResumeValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.Resume(ctx, "wf-missing", model.Resolution{Action: model.ActionCancel})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	wf, err := svc.Create(ctx, "Todo app", "Build a todo app")
	require.NoError(t, err)
	waitForStatus(t, svc, wf.ID, model.StatusAwaitingCheckpoint)
	require.NoError(t, svc.Resume(ctx, wf.ID, model.Resolution{Action: model.ActionCancel}))
	waitForStatus(t, svc, wf.ID, model.StatusCancelled)

	err = svc.Resume(ctx, wf.ID, model.Resolution{Action: model.ActionCancel})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not awaiting a checkpoint")
}

func TestServiceListWorkflows(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "First", "Build a todo app")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "Second", "Build a blog")
	require.NoError(t, err)

	waitForStatus(t, svc, first.ID, model.StatusAwaitingCheckpoint)
	waitForStatus(t, svc, second.ID, model.StatusAwaitingCheckpoint)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Resume(ctx, first.ID, model.Resolution{Action: model.ActionCancel}))
	require.NoError(t, svc.Resume(ctx, second.ID, model.Resolution{Action: model.ActionCancel}))
	waitForStatus(t, svc, first.ID, model.StatusCancelled)
	waitForStatus(t, svc, second.ID, model.StatusCancelled)
}
