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

const projectColumns = `project_id, org_id, name, description, workflow_id, created_at, updated_at`

type projectStore struct {
	tx pgx.Tx
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ProjectID,
		&p.OrgID,
		&p.Name,
		&p.Description,
		&p.WorkflowID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *projectStore) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (
			project_id, org_id, name, description, workflow_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.tx.Exec(ctx, query,
		project.ProjectID,
		project.OrgID,
		project.Name,
		project.Description,
		project.WorkflowID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("project_id", project.ProjectID.String()).
		Str("org_id", project.OrgID.String()).
		Msg("Created project")

	return nil
}

func (s *projectStore) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1`

	project, err := scanProject(s.tx.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", mapPostgresError(err))
	}
	return project, nil
}

func (s *projectStore) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects SET
			name = $2,
			description = $3,
			workflow_id = $4,
			updated_at = $5
		WHERE project_id = $1
	`

	result, err := s.tx.Exec(ctx, query,
		project.ProjectID,
		project.Name,
		project.Description,
		project.WorkflowID,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}
	return nil
}

func (s *projectStore) Delete(ctx context.Context, projectID uuid.UUID) error {
	result, err := s.tx.Exec(ctx, `DELETE FROM projects WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	log.Info().Str("project_id", projectID.String()).Msg("Deleted project")
	return nil
}

func (s *projectStore) query(ctx context.Context, where string, args ...any) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE ` + where + ` ORDER BY created_at, project_id`

	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapPostgresError(err))
	}

	return collect(rows, func(row pgx.CollectableRow) (*models.Project, error) {
		return scanProject(row)
	})
}

func (s *projectStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.Project, error) {
	return s.query(ctx, `($1::uuid IS NULL OR org_id = $1)`, orgID)
}

func (s *projectStore) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Project, error) {
	return s.query(ctx, `workflow_id = $1`, workflowID)
}

func (s *projectStore) ListUsingDefault(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error) {
	return s.query(ctx, `org_id = $1 AND workflow_id IS NULL`, orgID)
}

const epicColumns = `epic_id, org_id, project_id, name, description, created_at, updated_at`

type epicStore struct {
	tx pgx.Tx
}

func scanEpic(row pgx.Row) (*models.Epic, error) {
	var e models.Epic
	err := row.Scan(
		&e.EpicID,
		&e.OrgID,
		&e.ProjectID,
		&e.Name,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *epicStore) Create(ctx context.Context, epic *models.Epic) error {
	query := `
		INSERT INTO epics (
			epic_id, org_id, project_id, name, description, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.tx.Exec(ctx, query,
		epic.EpicID,
		epic.OrgID,
		epic.ProjectID,
		epic.Name,
		epic.Description,
		epic.CreatedAt,
		epic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create epic: %w", mapPostgresError(err))
	}
	return nil
}

func (s *epicStore) Get(ctx context.Context, epicID uuid.UUID) (*models.Epic, error) {
	query := `SELECT ` + epicColumns + ` FROM epics WHERE epic_id = $1`

	epic, err := scanEpic(s.tx.QueryRow(ctx, query, epicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEpicNotFound
		}
		return nil, fmt.Errorf("failed to get epic: %w", mapPostgresError(err))
	}
	return epic, nil
}

func (s *epicStore) Update(ctx context.Context, epic *models.Epic) error {
	epic.UpdatedAt = time.Now()

	result, err := s.tx.Exec(ctx, `
		UPDATE epics SET
			name = $2,
			description = $3,
			updated_at = $4
		WHERE epic_id = $1
	`, epic.EpicID, epic.Name, epic.Description, epic.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update epic: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrEpicNotFound
	}
	return nil
}

func (s *epicStore) Delete(ctx context.Context, epicID uuid.UUID) error {
	result, err := s.tx.Exec(ctx, `DELETE FROM epics WHERE epic_id = $1`, epicID)
	if err != nil {
		return fmt.Errorf("failed to delete epic: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrEpicNotFound
	}
	return nil
}

func (s *epicStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Epic, error) {
	query := `SELECT ` + epicColumns + ` FROM epics WHERE project_id = $1 ORDER BY created_at, epic_id`

	rows, err := s.tx.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list epics: %w", mapPostgresError(err))
	}

	return collect(rows, func(row pgx.CollectableRow) (*models.Epic, error) {
		return scanEpic(row)
	})
}

func (s *epicStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := s.tx.Exec(ctx, `DELETE FROM epics WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete project epics: %w", mapPostgresError(err))
	}
	return nil
}
