package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/orchestra/model"
)

// CheckpointRecord is one persisted checkpoint with its resolution, if any.
type CheckpointRecord struct {
	Checkpoint model.Checkpoint       `json:"checkpoint"`
	Status     model.CheckpointStatus `json:"status"`
	Resolution model.Resolution       `json:"resolution,omitempty"`
	ResolvedAt *time.Time             `json:"resolved_at,omitempty"`
}

// RecordCreated persists a pending checkpoint row. It is idempotent on the
// checkpoint id: both the suspending node and pollers that observe the same
// interrupt may record it.
func (s *Store) RecordCreated(ctx context.Context, cp model.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", cp.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_checkpoints (id, workflow_id, checkpoint_number, step_name, iteration, payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, cp.ID, cp.WorkflowID, cp.Number, cp.StepName, cp.Iteration,
		string(payload), string(model.CheckpointPending), cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert checkpoint %s: %w", cp.ID, err)
	}
	return nil
}

// RecordResolution closes a checkpoint row with the user's decision. The
// stored status follows the action's resolution mapping.
func (s *Store) RecordResolution(ctx context.Context, checkpointID string, res model.Resolution) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_checkpoints
		SET status = ?, resolution_action = ?, edited_content = ?, user_notes = ?, resolved_at = ?
		WHERE id = ?
	`, string(model.ResolutionStatus(res.Action)), res.Action, res.EditedContent,
		res.UserNotes, time.Now().UTC(), checkpointID)
	if err != nil {
		return fmt.Errorf("resolve checkpoint %s: %w", checkpointID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve checkpoint %s: %w", checkpointID, err)
	}
	if n == 0 {
		return fmt.Errorf("checkpoint %s: %w", checkpointID, ErrNotFound)
	}
	return nil
}

// ListCheckpoints returns a workflow's checkpoints in creation order.
func (s *Store) ListCheckpoints(ctx context.Context, workflowID string) ([]CheckpointRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload, status, resolution_action, edited_content, user_notes, resolved_at
		FROM user_checkpoints WHERE workflow_id = ? ORDER BY checkpoint_number
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints for %s: %w", workflowID, err)
	}
	defer rows.Close()

	var out []CheckpointRecord
	for rows.Next() {
		var rec CheckpointRecord
		var payload, status string
		if err := rows.Scan(&payload, &status, &rec.Resolution.Action,
			&rec.Resolution.EditedContent, &rec.Resolution.UserNotes, &rec.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Checkpoint); err != nil {
			return nil, fmt.Errorf("decode checkpoint payload: %w", err)
		}
		rec.Status = model.CheckpointStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
