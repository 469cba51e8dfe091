package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/orchestra/model"
)

// CreateWorkflow inserts a new workflow row.
func (s *Store) CreateWorkflow(ctx context.Context, wf model.Workflow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, name, type, status, workspace_path, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, wf.ID, wf.Name, string(wf.Type), string(wf.Status), wf.WorkspacePath,
		wf.CreatedAt, wf.UpdatedAt, wf.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert workflow %s: %w", wf.ID, err)
	}
	return nil
}

// GetWorkflow loads one workflow by id. Returns ErrNotFound for unknown ids.
func (s *Store) GetWorkflow(ctx context.Context, id string) (model.Workflow, error) {
	var wf model.Workflow
	var typ, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, status, workspace_path, created_at, updated_at, completed_at
		FROM workflows WHERE id = ?
	`, id).Scan(&wf.ID, &wf.Name, &typ, &status, &wf.WorkspacePath,
		&wf.CreatedAt, &wf.UpdatedAt, &wf.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Workflow{}, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Workflow{}, fmt.Errorf("query workflow %s: %w", id, err)
	}
	wf.Type = model.WorkflowType(typ)
	wf.Status = model.WorkflowStatus(status)
	return wf, nil
}

// UpdateWorkflowStatus sets a workflow's status. completedAt, when non-nil,
// marks the terminal time.
func (s *Store) UpdateWorkflowStatus(ctx context.Context, id string, status model.WorkflowStatus, completedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET status = ?, updated_at = ?, completed_at = COALESCE(?, completed_at)
		WHERE id = ?
	`, string(status), time.Now().UTC(), completedAt, id)
	if err != nil {
		return fmt.Errorf("update workflow %s status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workflow %s status: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListWorkflows returns all workflows, newest first.
func (s *Store) ListWorkflows(ctx context.Context) ([]model.Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, status, workspace_path, created_at, updated_at, completed_at
		FROM workflows ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}
	defer rows.Close()

	var out []model.Workflow
	for rows.Next() {
		var wf model.Workflow
		var typ, status string
		if err := rows.Scan(&wf.ID, &wf.Name, &typ, &status, &wf.WorkspacePath,
			&wf.CreatedAt, &wf.UpdatedAt, &wf.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		wf.Type = model.WorkflowType(typ)
		wf.Status = model.WorkflowStatus(status)
		out = append(out, wf)
	}
	return out, rows.Err()
}
