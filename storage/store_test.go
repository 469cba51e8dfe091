package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/orchestra/model"
	"github.com/c360studio/orchestra/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var _ workflow.SnapshotStore = (*Store)(nil)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "orchestra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedWorkflow(t *testing.T, s *Store, id string) model.Workflow {
	t.Helper()
	wf := model.Workflow{
		ID:        id,
		Name:      "Build a todo app",
		Type:      model.TypePlanReview,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateWorkflow(context.Background(), wf))
	return wf
}

func TestWorkflowRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedWorkflow(t, s, "wf-1")

	got, err := s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Build a todo app", got.Name)
	assert.Equal(t, model.TypePlanReview, got.Type)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	_, err = s.GetWorkflow(ctx, "wf-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateWorkflowStatus(ctx, "wf-1", model.StatusRunning, nil))
	done := time.Now().UTC()
	require.NoError(t, s.UpdateWorkflowStatus(ctx, "wf-1", model.StatusCompleted, &done))

	got, err = s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	err = s.UpdateWorkflowStatus(ctx, "wf-missing", model.StatusRunning, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListWorkflows(t *testing.T) {
	s := newStore(t)
	seedWorkflow(t, s, "wf-1")
	seedWorkflow(t, s, "wf-2")

	all, err := s.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExecutionLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedWorkflow(t, s, "wf-1")

	ex := &model.AgentExecution{
		WorkflowID:   "wf-1",
		AgentName:    "claude_planner",
		AgentType:    "planning",
		InputContent: "the prompt",
		Status:       model.ExecutionRunning,
		StartedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.StartExecution(ctx, ex))
	require.NotZero(t, ex.ID)

	completed := time.Now().UTC()
	ex.Status = model.ExecutionCompleted
	ex.OutputContent = "the plan"
	ex.CompletedAt = &completed
	ex.ExecutionTimeMS = 1234
	require.NoError(t, s.FinishExecution(ctx, ex))

	rows, err := s.ListExecutions(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ExecutionCompleted, rows[0].Status)
	assert.Equal(t, "the plan", rows[0].OutputContent)
	assert.Equal(t, int64(1234), rows[0].ExecutionTimeMS)
	require.NotNil(t, rows[0].CompletedAt)

	err = s.FinishExecution(ctx, &model.AgentExecution{ID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckpointIdempotencyAndResolution(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedWorkflow(t, s, "wf-1")

	cp := model.Checkpoint{
		ID:              "cp-1",
		WorkflowID:      "wf-1",
		Number:          1,
		StepName:        model.StepPlanReadyForReview,
		Instructions:    "review the plan",
		EditableContent: "the plan",
		Actions: model.CheckpointActions{
			Primary:   model.ActionSendToReviewers,
			Secondary: []string{model.ActionEditAndContinue, model.ActionCancel},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.RecordCreated(ctx, cp))
	// The suspending node and a poller may both record the same checkpoint.
	require.NoError(t, s.RecordCreated(ctx, cp))

	recs, err := s.ListCheckpoints(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.CheckpointPending, recs[0].Status)
	assert.Equal(t, model.StepPlanReadyForReview, recs[0].Checkpoint.StepName)
	assert.Equal(t, model.ActionSendToReviewers, recs[0].Checkpoint.Actions.Primary)

	require.NoError(t, s.RecordResolution(ctx, "cp-1", model.Resolution{
		Action:        model.ActionSendToReviewers,
		EditedContent: "the plan (edited)",
	}))

	recs, err = s.ListCheckpoints(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.CheckpointApproved, recs[0].Status)
	assert.Equal(t, "the plan (edited)", recs[0].Resolution.EditedContent)
	require.NotNil(t, recs[0].ResolvedAt)

	err = s.RecordResolution(ctx, "cp-missing", model.Resolution{Action: model.ActionCancel})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolutionStatusMapping(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedWorkflow(t, s, "wf-1")

	cases := []struct {
		action string
		want   model.CheckpointStatus
	}{
		{model.ActionApprovePlan, model.CheckpointApproved},
		{model.ActionEditPromptAndRevise, model.CheckpointEdited},
		{model.ActionCancel, model.CheckpointRejected},
	}
	for i, tc := range cases {
		cp := model.Checkpoint{
			ID:         fmt.Sprintf("cp-%d", i),
			WorkflowID: "wf-1",
			Number:     i + 1,
			StepName:   model.StepReviewsReadyForConsolidation,
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, s.RecordCreated(ctx, cp))
		require.NoError(t, s.RecordResolution(ctx, cp.ID, model.Resolution{Action: tc.action}))
	}

	recs, err := s.ListCheckpoints(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, recs, len(cases))
	for i, tc := range cases {
		assert.Equal(t, tc.want, recs[i].Status, "action %s", tc.action)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx, "wf-1")
	assert.ErrorIs(t, err, workflow.ErrThreadNotFound)
	_, err = s.History(ctx, "wf-1")
	assert.ErrorIs(t, err, workflow.ErrThreadNotFound)

	payload := json.RawMessage(`{"checkpoint_id":"cp-1"}`)
	for seq := int64(1); seq <= 3; seq++ {
		snap := workflow.Snapshot{
			ID:        fmt.Sprintf("snap-%d", seq),
			ThreadID:  "wf-1",
			Seq:       seq,
			Values:    json.RawMessage(fmt.Sprintf(`{"checkpoint_number":%d}`, seq)),
			CreatedAt: time.Now().UTC(),
		}
		if seq == 3 {
			snap.Next = []string{"plan_checkpoint"}
			snap.Interrupts = []json.RawMessage{payload}
		}
		require.NoError(t, s.Save(ctx, snap))
	}

	latest, err := s.Latest(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.Seq)
	assert.Equal(t, []string{"plan_checkpoint"}, latest.Next)
	require.Len(t, latest.Interrupts, 1)
	assert.JSONEq(t, string(payload), string(latest.Interrupts[0]))

	history, err := s.History(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i-1].Seq, history[i].Seq, "history must be newest first")
	}
	// Snapshots below the suspension carry no pending interrupts.
	assert.Empty(t, history[1].Next)
	assert.Empty(t, history[1].Interrupts)
}

func TestSnapshotSaveIsIdempotentPerSeq(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := workflow.Snapshot{
		ID: "snap-a", ThreadID: "wf-1", Seq: 1,
		Values: json.RawMessage(`{"v":1}`), CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, first))

	// A re-entered node that suspends again overwrites its seq row.
	second := first
	second.ID = "snap-b"
	second.Values = json.RawMessage(`{"v":2}`)
	require.NoError(t, s.Save(ctx, second))

	latest, err := s.Latest(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "snap-b", latest.ID)
	assert.JSONEq(t, `{"v":2}`, string(latest.Values))
}

func TestConcurrentSnapshotSaves(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			thread := fmt.Sprintf("wf-%d", i%2)
			return s.Save(ctx, workflow.Snapshot{
				ID:        fmt.Sprintf("snap-%d", i),
				ThreadID:  thread,
				Seq:       int64(i + 1),
				Values:    json.RawMessage(`{}`),
				CreatedAt: time.Now().UTC(),
			})
		})
	}
	require.NoError(t, g.Wait())

	for _, thread := range []string{"wf-0", "wf-1"} {
		history, err := s.History(ctx, thread)
		require.NoError(t, err)
		assert.Len(t, history, 4)
	}
}
