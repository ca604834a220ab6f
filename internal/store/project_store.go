package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
)

// Sentinel errors for project and epic store operations
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrEpicNotFound    = errors.New("epic not found")
)

// ProjectStore defines the interface for project storage operations.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error

	// Get retrieves a project by ID.
	// Returns ErrProjectNotFound if the project doesn't exist.
	Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error)

	// Update updates name, description and workflow reference.
	Update(ctx context.Context, project *models.Project) error

	Delete(ctx context.Context, projectID uuid.UUID) error

	// List returns projects, restricted to orgID when it is not nil.
	List(ctx context.Context, orgID *uuid.UUID) ([]*models.Project, error)

	// ListByWorkflow returns projects that explicitly reference workflowID.
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Project, error)

	// ListUsingDefault returns projects of orgID that have no workflow set and
	// therefore use the organization's default workflow.
	ListUsingDefault(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error)
}

// EpicStore defines the interface for epic storage operations.
type EpicStore interface {
	Create(ctx context.Context, epic *models.Epic) error

	// Get retrieves an epic by ID.
	// Returns ErrEpicNotFound if the epic doesn't exist.
	Get(ctx context.Context, epicID uuid.UUID) (*models.Epic, error)

	Update(ctx context.Context, epic *models.Epic) error
	Delete(ctx context.Context, epicID uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Epic, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}
