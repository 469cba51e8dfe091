package storage

import (
	"context"
	"fmt"

	"github.com/c360studio/orchestra/model"
)

// StartExecution inserts a new agent execution row and assigns its id.
func (s *Store) StartExecution(ctx context.Context, ex *model.AgentExecution) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_executions (workflow_id, agent_name, agent_type, input_content, output_content, status, started_at, execution_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ex.WorkflowID, ex.AgentName, ex.AgentType, ex.InputContent, ex.OutputContent,
		string(ex.Status), ex.StartedAt, ex.ExecutionTimeMS)
	if err != nil {
		return fmt.Errorf("insert execution for %s: %w", ex.AgentName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert execution for %s: %w", ex.AgentName, err)
	}
	ex.ID = id
	return nil
}

// FinishExecution closes an execution row with its output and timing.
func (s *Store) FinishExecution(ctx context.Context, ex *model.AgentExecution) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agent_executions
		SET output_content = ?, status = ?, completed_at = ?, execution_time_ms = ?
		WHERE id = ?
	`, ex.OutputContent, string(ex.Status), ex.CompletedAt, ex.ExecutionTimeMS, ex.ID)
	if err != nil {
		return fmt.Errorf("update execution %d: %w", ex.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update execution %d: %w", ex.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("execution %d: %w", ex.ID, ErrNotFound)
	}
	return nil
}

// ListExecutions returns all execution rows of a workflow in start order.
func (s *Store) ListExecutions(ctx context.Context, workflowID string) ([]model.AgentExecution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow_id, agent_name, agent_type, input_content, output_content, status, started_at, completed_at, execution_time_ms
		FROM agent_executions WHERE workflow_id = ? ORDER BY id
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("query executions for %s: %w", workflowID, err)
	}
	defer rows.Close()

	var out []model.AgentExecution
	for rows.Next() {
		var ex model.AgentExecution
		var status string
		if err := rows.Scan(&ex.ID, &ex.WorkflowID, &ex.AgentName, &ex.AgentType,
			&ex.InputContent, &ex.OutputContent, &status,
			&ex.StartedAt, &ex.CompletedAt, &ex.ExecutionTimeMS); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		ex.Status = model.ExecutionStatus(status)
		out = append(out, ex)
	}
	return out, rows.Err()
}
