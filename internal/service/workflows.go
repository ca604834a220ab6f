package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/workflow"
)

// CreateWorkflowInput holds the fields of a new workflow.
type CreateWorkflowInput struct {
	OrgID    *uuid.UUID
	Name     string
	Statuses []string
}

func loadWorkflow(ctx context.Context, tx store.Tx, workflowID uuid.UUID, action auth.Action) (*models.Workflow, error) {
	wf, err := tx.Workflows().Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, action, auth.On(auth.ResourceWorkflow, wf.OrgID)); err != nil {
		return nil, err
	}
	return wf, nil
}

// CreateWorkflow creates a custom workflow.
func (s *Service) CreateWorkflow(ctx context.Context, in CreateWorkflowInput) (*models.Workflow, error) {
	actor, err := precheck(ctx, auth.ActWorkflowCreate, auth.ResourceWorkflow)
	if err != nil {
		return nil, err
	}

	orgID, err := targetOrg(actor, in.OrgID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, auth.ActWorkflowCreate, auth.On(auth.ResourceWorkflow, orgID)); err != nil {
		return nil, err
	}

	var wf *models.Workflow
	err = s.write(ctx, "CreateWorkflow", func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Organizations().Get(ctx, orgID); err != nil {
			return err
		}
		var err error
		wf, err = s.registry.Create(ctx, tx, orgID, in.Name, in.Statuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("org_id", orgID.String()).
		Str("workflow_id", wf.WorkflowID.String()).
		Strs("statuses", wf.Statuses).
		Msg("Created workflow")

	return wf, nil
}

// GetWorkflow returns a workflow.
func (s *Service) GetWorkflow(ctx context.Context, workflowID uuid.UUID) (*models.Workflow, error) {
	if _, err := precheck(ctx, auth.ActWorkflowRead, auth.ResourceWorkflow); err != nil {
		return nil, err
	}

	var wf *models.Workflow
	err := s.read(ctx, "GetWorkflow", func(ctx context.Context, tx store.Tx) error {
		var err error
		wf, err = loadWorkflow(ctx, tx, workflowID, auth.ActWorkflowRead)
		return err
	})
	if err != nil {
		return nil, err
	}

	return wf, nil
}

// ListWorkflows returns the workflows visible to the actor.
func (s *Service) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	actor, err := precheck(ctx, auth.ActWorkflowList, auth.ResourceWorkflow)
	if err != nil {
		return nil, err
	}

	var wfs []*models.Workflow
	err = s.read(ctx, "ListWorkflows", func(ctx context.Context, tx store.Tx) error {
		var err error
		wfs, err = tx.Workflows().List(ctx, auth.ScopeFilter(actor))
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, wfs, func(w *models.Workflow) uuid.UUID { return w.OrgID }), nil
}

// UpdateWorkflow renames a workflow or replaces its statuses. Removing a
// status still held by a bound ticket is rejected.
func (s *Service) UpdateWorkflow(ctx context.Context, workflowID uuid.UUID, upd workflow.Update) (*models.Workflow, error) {
	if _, err := precheck(ctx, auth.ActWorkflowUpdate, auth.ResourceWorkflow); err != nil {
		return nil, err
	}

	var wf *models.Workflow
	err := s.write(ctx, "UpdateWorkflow", func(ctx context.Context, tx store.Tx) error {
		current, err := loadWorkflow(ctx, tx, workflowID, auth.ActWorkflowUpdate)
		if err != nil {
			return err
		}
		wf, err = s.registry.Update(ctx, tx, current, upd)
		return err
	})
	if err != nil {
		return nil, err
	}

	return wf, nil
}

// DeleteWorkflow deletes a workflow that is neither the default nor
// referenced by any project.
func (s *Service) DeleteWorkflow(ctx context.Context, workflowID uuid.UUID) error {
	if _, err := precheck(ctx, auth.ActWorkflowDelete, auth.ResourceWorkflow); err != nil {
		return err
	}

	return s.write(ctx, "DeleteWorkflow", func(ctx context.Context, tx store.Tx) error {
		wf, err := loadWorkflow(ctx, tx, workflowID, auth.ActWorkflowDelete)
		if err != nil {
			return err
		}
		return s.registry.Delete(ctx, tx, wf)
	})
}

// EffectiveWorkflow returns the workflow governing a project's tickets.
func (s *Service) EffectiveWorkflow(ctx context.Context, projectID uuid.UUID) (*models.Workflow, error) {
	if _, err := precheck(ctx, auth.ActProjectRead, auth.ResourceProject); err != nil {
		return nil, err
	}

	var wf *models.Workflow
	err := s.read(ctx, "EffectiveWorkflow", func(ctx context.Context, tx store.Tx) error {
		project, err := loadProject(ctx, tx, projectID, auth.ActProjectRead)
		if err != nil {
			return err
		}
		wf, err = s.registry.Effective(ctx, tx, project)
		return err
	})
	if err != nil {
		return nil, err
	}

	return wf, nil
}
