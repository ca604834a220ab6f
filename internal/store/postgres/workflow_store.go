package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

const workflowColumns = `workflow_id, org_id, name, statuses, is_default, created_at, updated_at`

type workflowStore struct {
	tx pgx.Tx
}

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var wf models.Workflow
	err := row.Scan(
		&wf.WorkflowID,
		&wf.OrgID,
		&wf.Name,
		&wf.Statuses,
		&wf.IsDefault,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// Create stores a workflow. The partial unique index on (org_id) WHERE
// is_default rejects a second default workflow.
func (s *workflowStore) Create(ctx context.Context, wf *models.Workflow) error {
	query := `
		INSERT INTO workflows (
			workflow_id, org_id, name, statuses, is_default, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.tx.Exec(ctx, query,
		wf.WorkflowID,
		wf.OrgID,
		wf.Name,
		wf.Statuses,
		wf.IsDefault,
		wf.CreatedAt,
		wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("workflow_id", wf.WorkflowID.String()).
		Str("org_id", wf.OrgID.String()).
		Bool("is_default", wf.IsDefault).
		Msg("Created workflow")

	return nil
}

func (s *workflowStore) Get(ctx context.Context, workflowID uuid.UUID) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE workflow_id = $1`

	wf, err := scanWorkflow(s.tx.QueryRow(ctx, query, workflowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", mapPostgresError(err))
	}
	return wf, nil
}

func (s *workflowStore) GetDefault(ctx context.Context, orgID uuid.UUID) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE org_id = $1 AND is_default`

	wf, err := scanWorkflow(s.tx.QueryRow(ctx, query, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to get default workflow: %w", mapPostgresError(err))
	}
	return wf, nil
}

// Update writes name and statuses. is_default is not part of the statement.
func (s *workflowStore) Update(ctx context.Context, wf *models.Workflow) error {
	wf.UpdatedAt = time.Now()

	query := `
		UPDATE workflows SET
			name = $2,
			statuses = $3,
			updated_at = $4
		WHERE workflow_id = $1
	`

	result, err := s.tx.Exec(ctx, query,
		wf.WorkflowID,
		wf.Name,
		wf.Statuses,
		wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrWorkflowNotFound
	}

	log.Debug().
		Str("workflow_id", wf.WorkflowID.String()).
		Strs("statuses", wf.Statuses).
		Msg("Updated workflow")

	return nil
}

func (s *workflowStore) Delete(ctx context.Context, workflowID uuid.UUID) error {
	result, err := s.tx.Exec(ctx, `DELETE FROM workflows WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrWorkflowNotFound
	}
	return nil
}

func (s *workflowStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE ($1::uuid IS NULL OR org_id = $1)
		ORDER BY created_at, workflow_id
	`

	rows, err := s.tx.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", mapPostgresError(err))
	}

	return collect(rows, func(row pgx.CollectableRow) (*models.Workflow, error) {
		return scanWorkflow(row)
	})
}
