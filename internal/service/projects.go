package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// CreateProjectInput holds the fields of a new project. A nil WorkflowID
// makes the project use its organization's default workflow.
type CreateProjectInput struct {
	OrgID       *uuid.UUID
	Name        string
	Description string
	WorkflowID  *uuid.UUID
}

// UpdateProjectInput holds optional project changes.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// loadProject reads a project and authorizes action on it.
func loadProject(ctx context.Context, tx store.Tx, projectID uuid.UUID, action auth.Action) (*models.Project, error) {
	project, err := tx.Projects().Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, action, auth.On(auth.ResourceProject, project.OrgID)); err != nil {
		return nil, err
	}
	return project, nil
}

// resolveWorkflow returns the workflow selected by workflowID for a project
// of orgID, or the organization's default when workflowID is nil.
func (s *Service) resolveWorkflow(ctx context.Context, tx store.Tx, orgID uuid.UUID, workflowID *uuid.UUID) (*models.Workflow, error) {
	if workflowID != nil {
		wf, err := tx.Workflows().Get(ctx, *workflowID)
		if err != nil {
			return nil, err
		}
		if err := auth.Require(ctx, auth.ActWorkflowRead, auth.On(auth.ResourceWorkflow, wf.OrgID)); err != nil {
			return nil, err
		}
		if wf.OrgID != orgID {
			return nil, apperr.New(apperr.KindValidationFailed, "workflow belongs to a different organization")
		}
	}
	return s.registry.Resolve(ctx, tx, orgID, workflowID)
}

// CreateProject creates a project, optionally bound to a workflow of the
// same organization.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	actor, err := precheck(ctx, auth.ActProjectCreate, auth.ResourceProject)
	if err != nil {
		return nil, err
	}

	orgID, err := targetOrg(actor, in.OrgID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, auth.ActProjectCreate, auth.On(auth.ResourceProject, orgID)); err != nil {
		return nil, err
	}

	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	project := &models.Project{
		ProjectID:   newID(),
		OrgID:       orgID,
		Name:        name,
		Description: in.Description,
		WorkflowID:  in.WorkflowID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.write(ctx, "CreateProject", func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Organizations().Get(ctx, orgID); err != nil {
			return err
		}
		if _, err := s.resolveWorkflow(ctx, tx, orgID, in.WorkflowID); err != nil {
			return err
		}
		return tx.Projects().Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("org_id", orgID.String()).
		Str("project_id", project.ProjectID.String()).
		Msg("Created project")

	return project, nil
}

// GetProject returns a project.
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	if _, err := precheck(ctx, auth.ActProjectRead, auth.ResourceProject); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.read(ctx, "GetProject", func(ctx context.Context, tx store.Tx) error {
		var err error
		project, err = loadProject(ctx, tx, projectID, auth.ActProjectRead)
		return err
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// ListProjects returns the projects visible to the actor.
func (s *Service) ListProjects(ctx context.Context) ([]*models.Project, error) {
	actor, err := precheck(ctx, auth.ActProjectList, auth.ResourceProject)
	if err != nil {
		return nil, err
	}

	var projects []*models.Project
	err = s.read(ctx, "ListProjects", func(ctx context.Context, tx store.Tx) error {
		var err error
		projects, err = tx.Projects().List(ctx, auth.ScopeFilter(actor))
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, projects, func(p *models.Project) uuid.UUID { return p.OrgID }), nil
}

// UpdateProject changes a project's name or description.
func (s *Service) UpdateProject(ctx context.Context, projectID uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	if _, err := precheck(ctx, auth.ActProjectUpdate, auth.ResourceProject); err != nil {
		return nil, err
	}

	var name string
	if in.Name != nil {
		var err error
		if name, err = required("name", *in.Name); err != nil {
			return nil, err
		}
	}

	var project *models.Project
	err := s.write(ctx, "UpdateProject", func(ctx context.Context, tx store.Tx) error {
		var err error
		project, err = loadProject(ctx, tx, projectID, auth.ActProjectUpdate)
		if err != nil {
			return err
		}
		if in.Name != nil {
			project.Name = name
		}
		if in.Description != nil {
			project.Description = *in.Description
		}
		return tx.Projects().Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// SetProjectWorkflow binds a project to workflowID, or to its organization's
// default workflow when workflowID is nil. Every existing ticket of the
// project must hold a status the new workflow defines.
func (s *Service) SetProjectWorkflow(ctx context.Context, projectID uuid.UUID, workflowID *uuid.UUID) (*models.Project, error) {
	if _, err := precheck(ctx, auth.ActProjectSetWorkflow, auth.ResourceProject); err != nil {
		return nil, err
	}

	var project *models.Project
	err := s.write(ctx, "SetProjectWorkflow", func(ctx context.Context, tx store.Tx) error {
		var err error
		project, err = loadProject(ctx, tx, projectID, auth.ActProjectSetWorkflow)
		if err != nil {
			return err
		}

		target, err := s.resolveWorkflow(ctx, tx, project.OrgID, workflowID)
		if err != nil {
			return err
		}

		o, err := s.guard.Reassignment(ctx, tx, project, target)
		if err != nil {
			return err
		}
		if err := o.Err(); err != nil {
			return err
		}

		project.WorkflowID = workflowID
		return tx.Projects().Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("project_id", project.ProjectID.String()).
		Str("workflow_id", idString(workflowID)).
		Msg("Reassigned project workflow")

	return project, nil
}

// DeleteProject removes a project with its tickets, comments and epics.
func (s *Service) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := precheck(ctx, auth.ActProjectDelete, auth.ResourceProject); err != nil {
		return err
	}

	return s.write(ctx, "DeleteProject", func(ctx context.Context, tx store.Tx) error {
		project, err := loadProject(ctx, tx, projectID, auth.ActProjectDelete)
		if err != nil {
			return err
		}

		tickets, err := tx.Tickets().ListByProjects(ctx, []uuid.UUID{project.ProjectID})
		if err != nil {
			return err
		}
		ticketIDs := make([]uuid.UUID, 0, len(tickets))
		for _, t := range tickets {
			ticketIDs = append(ticketIDs, t.TicketID)
		}

		if err := tx.Comments().DeleteByTickets(ctx, ticketIDs); err != nil {
			return err
		}
		if err := tx.Tickets().DeleteByProject(ctx, project.ProjectID); err != nil {
			return err
		}
		if err := tx.Epics().DeleteByProject(ctx, project.ProjectID); err != nil {
			return err
		}
		return tx.Projects().Delete(ctx, project.ProjectID)
	})
}

// idString renders a nullable id for logging.
func idString(id *uuid.UUID) string {
	if id == nil {
		return "default"
	}
	return id.String()
}
