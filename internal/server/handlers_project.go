package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wolfeidau/tracker/internal/service"
	"github.com/wolfeidau/tracker/internal/workflow"
)

type createWorkflowRequest struct {
	OrgID    *uuid.UUID `json:"org_id"`
	Name     string     `json:"name"`
	Statuses []string   `json:"statuses"`
}

type updateWorkflowRequest struct {
	Name      *string  `json:"name"`
	Statuses  []string `json:"statuses"`
	IsDefault *bool    `json:"is_default"`
}

func (s *Server) createWorkflow(c echo.Context) error {
	var req createWorkflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wf, err := s.svc.CreateWorkflow(c.Request().Context(), service.CreateWorkflowInput{
		OrgID:    req.OrgID,
		Name:     req.Name,
		Statuses: req.Statuses,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newWorkflowResponse(wf))
}

func (s *Server) listWorkflows(c echo.Context) error {
	wfs, err := s.svc.ListWorkflows(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(wfs, newWorkflowResponse))
}

func (s *Server) getWorkflow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	wf, err := s.svc.GetWorkflow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newWorkflowResponse(wf))
}

func (s *Server) updateWorkflow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateWorkflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wf, err := s.svc.UpdateWorkflow(c.Request().Context(), id, workflow.Update{
		Name:      req.Name,
		Statuses:  req.Statuses,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newWorkflowResponse(wf))
}

func (s *Server) deleteWorkflow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteWorkflow(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type createProjectRequest struct {
	OrgID       *uuid.UUID `json:"org_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	WorkflowID  *uuid.UUID `json:"workflow_id"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// setProjectWorkflowRequest binds a project to a workflow. A null
// workflow_id reverts the project to its organization's default.
type setProjectWorkflowRequest struct {
	WorkflowID *uuid.UUID `json:"workflow_id"`
}

func (s *Server) createProject(c echo.Context) error {
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := s.svc.CreateProject(c.Request().Context(), service.CreateProjectInput{
		OrgID:       req.OrgID,
		Name:        req.Name,
		Description: req.Description,
		WorkflowID:  req.WorkflowID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newProjectResponse(project))
}

func (s *Server) listProjects(c echo.Context) error {
	projects, err := s.svc.ListProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(projects, newProjectResponse))
}

func (s *Server) getProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	project, err := s.svc.GetProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProjectResponse(project))
}

func (s *Server) updateProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := s.svc.UpdateProject(c.Request().Context(), id, service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProjectResponse(project))
}

func (s *Server) deleteProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteProject(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getProjectWorkflow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	wf, err := s.svc.EffectiveWorkflow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newWorkflowResponse(wf))
}

func (s *Server) setProjectWorkflow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req setProjectWorkflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	project, err := s.svc.SetProjectWorkflow(c.Request().Context(), id, req.WorkflowID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProjectResponse(project))
}
