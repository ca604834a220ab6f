package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
)

// Sentinel errors for workflow store operations
var (
	ErrWorkflowNotFound      = errors.New("workflow not found")
	ErrDefaultWorkflowExists = errors.New("default workflow already exists")
)

// WorkflowStore defines the interface for workflow storage operations.
type WorkflowStore interface {
	// Create creates a workflow.
	// Returns ErrDefaultWorkflowExists when creating a second default workflow
	// for the same organization.
	Create(ctx context.Context, wf *models.Workflow) error

	// Get retrieves a workflow by ID.
	// Returns ErrWorkflowNotFound if the workflow doesn't exist.
	Get(ctx context.Context, workflowID uuid.UUID) (*models.Workflow, error)

	// GetDefault retrieves the default workflow of an organization.
	// Returns ErrWorkflowNotFound if the organization has none.
	GetDefault(ctx context.Context, orgID uuid.UUID) (*models.Workflow, error)

	// Update updates name and statuses. IsDefault is never written.
	Update(ctx context.Context, wf *models.Workflow) error

	Delete(ctx context.Context, workflowID uuid.UUID) error

	// List returns workflows, restricted to orgID when it is not nil.
	List(ctx context.Context, orgID *uuid.UUID) ([]*models.Workflow, error)
}
