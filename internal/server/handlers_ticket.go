package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wolfeidau/tracker/internal/service"
)

type createTicketRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	EpicID      *uuid.UUID `json:"epic_id"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

type updateTicketRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	EpicID      *uuid.UUID `json:"epic_id"`
	ClearEpic   bool       `json:"clear_epic"`
}

type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

type moveTicketRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type assignTicketRequest struct {
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

func (s *Server) createTicket(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.CreateTicket(c.Request().Context(), projectID, service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		EpicID:      req.EpicID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newTicketResponse(ticket))
}

func (s *Server) listProjectTickets(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return s.renderTickets(c, &projectID)
}

func (s *Server) listTickets(c echo.Context) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return err
	}
	return s.renderTickets(c, projectID)
}

func (s *Server) renderTickets(c echo.Context, projectID *uuid.UUID) error {
	assigneeID, err := queryID(c, "assignee_id")
	if err != nil {
		return err
	}
	tickets, err := s.svc.ListTickets(c.Request().Context(), service.ListTicketsInput{
		ProjectID:  projectID,
		Status:     c.QueryParam("status"),
		AssigneeID: assigneeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(tickets, newTicketResponse))
}

func (s *Server) getTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := s.svc.GetTicket(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTicketResponse(ticket))
}

func (s *Server) updateTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.UpdateTicket(c.Request().Context(), id, service.UpdateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		EpicID:      req.EpicID,
		ClearEpic:   req.ClearEpic,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTicketResponse(ticket))
}

func (s *Server) updateTicketStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTicketStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.UpdateTicketStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTicketResponse(ticket))
}

func (s *Server) moveTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req moveTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.MoveTicket(c.Request().Context(), id, req.ProjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTicketResponse(ticket))
}

func (s *Server) assignTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assignTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.AssignTicket(c.Request().Context(), id, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTicketResponse(ticket))
}

func (s *Server) deleteTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteTicket(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type createEpicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateEpicRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) createEpic(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createEpicRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	epic, err := s.svc.CreateEpic(c.Request().Context(), projectID, service.CreateEpicInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newEpicResponse(epic))
}

func (s *Server) listEpics(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	epics, err := s.svc.ListEpics(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(epics, newEpicResponse))
}

func (s *Server) getEpic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	epic, err := s.svc.GetEpic(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newEpicResponse(epic))
}

func (s *Server) updateEpic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateEpicRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	epic, err := s.svc.UpdateEpic(c.Request().Context(), id, service.UpdateEpicInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newEpicResponse(epic))
}

func (s *Server) deleteEpic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteEpic(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (s *Server) createComment(c echo.Context) error {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := s.svc.CreateComment(c.Request().Context(), ticketID, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newCommentResponse(comment))
}

func (s *Server) listComments(c echo.Context) error {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comments, err := s.svc.ListComments(c.Request().Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(comments, newCommentResponse))
}

func (s *Server) updateComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := s.svc.UpdateComment(c.Request().Context(), id, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCommentResponse(comment))
}

func (s *Server) deleteComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.svc.DeleteComment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
