package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// DefaultWorkflowName is the name given to each organization's default workflow.
const DefaultWorkflowName = "Default"

// Update describes a change to a workflow. Nil fields are left unchanged.
type Update struct {
	Name      *string
	Statuses  []string
	IsDefault *bool
}

// Registry creates, changes and resolves workflows inside a transaction.
type Registry struct {
	now func() time.Time
}

// NewRegistry creates a workflow registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// CreateDefault creates the default workflow of a new organization.
func (r *Registry) CreateDefault(ctx context.Context, tx store.Tx, orgID uuid.UUID) (*models.Workflow, error) {
	wf := r.newWorkflow(orgID, DefaultWorkflowName, DefaultStatuses)
	wf.IsDefault = true

	if err := tx.Workflows().Create(ctx, wf); err != nil {
		if errors.Is(err, store.ErrDefaultWorkflowExists) {
			return nil, apperr.Wrap(apperr.KindIntegrityConflict, err, "organization already has a default workflow")
		}
		return nil, fmt.Errorf("failed to create default workflow: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("org_id", orgID.String()).
		Str("workflow_id", wf.WorkflowID.String()).
		Msg("Created default workflow")

	return wf, nil
}

// Create validates and stores a new non-default workflow.
func (r *Registry) Create(ctx context.Context, tx store.Tx, orgID uuid.UUID, name string, statuses []string) (*models.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidationFailed, "workflow name is required")
	}
	if err := ValidateStatuses(statuses); err != nil {
		return nil, err
	}

	wf := r.newWorkflow(orgID, name, statuses)
	if err := tx.Workflows().Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return wf, nil
}

// Update applies upd to wf. Removing statuses still held by tickets bound to
// wf is rejected, as is any attempt to change the default flag.
func (r *Registry) Update(ctx context.Context, tx store.Tx, wf *models.Workflow, upd Update) (*models.Workflow, error) {
	if upd.IsDefault != nil && *upd.IsDefault != wf.IsDefault {
		return nil, apperr.New(apperr.KindValidationFailed, "the default flag of a workflow cannot be changed")
	}

	next := wf.Clone()

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.New(apperr.KindValidationFailed, "workflow name is required")
		}
		next.Name = name
	}

	if upd.Statuses != nil {
		if err := ValidateStatuses(upd.Statuses); err != nil {
			return nil, err
		}

		o, err := NewGuard(r).StatusRemoval(ctx, tx, wf, upd.Statuses)
		if err != nil {
			return nil, err
		}
		if err := o.Err(); err != nil {
			return nil, err
		}

		next.Statuses = slices.Clone(upd.Statuses)
	}

	if err := tx.Workflows().Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return next, nil
}

// Delete removes wf. Default workflows and workflows referenced by any
// project cannot be deleted.
func (r *Registry) Delete(ctx context.Context, tx store.Tx, wf *models.Workflow) error {
	if wf.IsDefault {
		o := rejected(apperr.KindIntegrityConflict, "the default workflow cannot be deleted")
		return observe(ctx, "delete", o).Err()
	}

	projects, err := tx.Projects().ListByWorkflow(ctx, wf.WorkflowID)
	if err != nil {
		return fmt.Errorf("failed to list projects by workflow: %w", err)
	}

	if len(projects) > 0 {
		o := rejected(apperr.KindIntegrityConflict,
			fmt.Sprintf("workflow is used by %d project(s)", len(projects)))
		for _, p := range projects {
			o.Projects = append(o.Projects, p.ProjectID)
		}
		o.Hint = "assign a different workflow to these projects first"
		return observe(ctx, "delete", o).Err()
	}

	if err := tx.Workflows().Delete(ctx, wf.WorkflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Effective returns the workflow that governs project's tickets.
func (r *Registry) Effective(ctx context.Context, tx store.Tx, project *models.Project) (*models.Workflow, error) {
	var (
		wf  *models.Workflow
		err error
	)

	if project.WorkflowID != nil {
		wf, err = tx.Workflows().Get(ctx, *project.WorkflowID)
	} else {
		wf, err = tx.Workflows().GetDefault(ctx, project.OrgID)
	}

	if err != nil {
		if errors.Is(err, store.ErrWorkflowNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "effective workflow of project %s not found", project.ProjectID)
		}
		return nil, fmt.Errorf("failed to get effective workflow: %w", err)
	}

	return wf, nil
}

// Resolve returns the workflow a project would use when assigned workflowID,
// where nil selects the organization's default.
func (r *Registry) Resolve(ctx context.Context, tx store.Tx, orgID uuid.UUID, workflowID *uuid.UUID) (*models.Workflow, error) {
	return r.Effective(ctx, tx, &models.Project{OrgID: orgID, WorkflowID: workflowID})
}

func (r *Registry) newWorkflow(orgID uuid.UUID, name string, statuses []string) *models.Workflow {
	now := r.now()
	return &models.Workflow{
		WorkflowID: uuid.Must(uuid.NewV7()),
		OrgID:      orgID,
		Name:       name,
		Statuses:   slices.Clone(statuses),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
