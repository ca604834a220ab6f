package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/telemetry"
	"github.com/wolfeidau/tracker/internal/workflow"
)

// CreateTicketInput holds the fields of a new ticket. An empty Status starts
// the ticket in the first status of the project's workflow.
type CreateTicketInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	EpicID      *uuid.UUID
	AssigneeID  *uuid.UUID
}

// UpdateTicketInput holds optional ticket changes.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	EpicID      *uuid.UUID
	ClearEpic   bool
}

// ListTicketsInput filters ticket listings.
type ListTicketsInput struct {
	ProjectID  *uuid.UUID
	Status     string
	AssigneeID *uuid.UUID
}

func loadTicket(ctx context.Context, tx store.Tx, ticketID uuid.UUID, action auth.Action) (*models.Ticket, error) {
	ticket, err := tx.Tickets().Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, action, auth.On(auth.ResourceTicket, ticket.OrgID)); err != nil {
		return nil, err
	}
	return ticket, nil
}

func checkPriority(priority string) (string, error) {
	if priority == "" {
		return models.PriorityMedium, nil
	}
	if !models.ValidPriority(priority) {
		return "", apperr.New(apperr.KindValidationFailed, "invalid priority %q", priority)
	}
	return priority, nil
}

// checkEpic verifies epicID belongs to projectID.
func checkEpic(ctx context.Context, tx store.Tx, projectID, epicID uuid.UUID) error {
	epic, err := tx.Epics().Get(ctx, epicID)
	if err != nil {
		if apperr.KindOf(mapStoreError(err)) == apperr.KindNotFound {
			return apperr.Wrap(apperr.KindValidationFailed, err, "epic not found in project")
		}
		return err
	}
	if epic.ProjectID != projectID {
		return apperr.New(apperr.KindValidationFailed, "epic not found in project")
	}
	return nil
}

// checkAssignee verifies userID is an active member of orgID. Users of other
// organizations are reported the same as missing ones.
func checkAssignee(ctx context.Context, tx store.Tx, orgID, userID uuid.UUID) error {
	user, err := tx.Users().Get(ctx, userID)
	if err != nil {
		if apperr.KindOf(mapStoreError(err)) == apperr.KindNotFound {
			return apperr.Wrap(apperr.KindValidationFailed, err, "assignee not found in organization")
		}
		return err
	}
	if user.OrgID == nil || *user.OrgID != orgID {
		return apperr.New(apperr.KindValidationFailed, "assignee not found in organization")
	}
	if !user.Active {
		return apperr.New(apperr.KindValidationFailed, "assignee is inactive")
	}
	return nil
}

// CreateTicket creates a ticket in a project. The status must belong to the
// project's effective workflow.
func (s *Service) CreateTicket(ctx context.Context, projectID uuid.UUID, in CreateTicketInput) (*models.Ticket, error) {
	actor, err := precheck(ctx, auth.ActTicketCreate, auth.ResourceTicket)
	if err != nil {
		return nil, err
	}

	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	priority, err := checkPriority(in.Priority)
	if err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err = s.write(ctx, "CreateTicket", func(ctx context.Context, tx store.Tx) error {
		project, err := loadProject(ctx, tx, projectID, auth.ActTicketCreate)
		if err != nil {
			return err
		}

		wf, err := s.registry.Effective(ctx, tx, project)
		if err != nil {
			return err
		}
		status, err := workflow.ResolveInitialStatus(wf, in.Status)
		if err != nil {
			return err
		}

		if in.EpicID != nil {
			if err := checkEpic(ctx, tx, project.ProjectID, *in.EpicID); err != nil {
				return err
			}
		}
		if in.AssigneeID != nil {
			if err := auth.Require(ctx, auth.ActTicketAssign, auth.On(auth.ResourceTicket, project.OrgID)); err != nil {
				return err
			}
			if err := checkAssignee(ctx, tx, project.OrgID, *in.AssigneeID); err != nil {
				return err
			}
		}

		now := s.now()
		ticket = &models.Ticket{
			TicketID:    newID(),
			OrgID:       project.OrgID,
			ProjectID:   project.ProjectID,
			EpicID:      in.EpicID,
			Title:       title,
			Description: in.Description,
			Status:      status,
			Priority:    priority,
			AssigneeID:  in.AssigneeID,
			ReporterID:  actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Tickets().Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("project_id", ticket.ProjectID.String()).
		Str("ticket_id", ticket.TicketID.String()).
		Str("status", ticket.Status).
		Msg("Created ticket")

	return ticket, nil
}

// GetTicket returns a ticket.
func (s *Service) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	if _, err := precheck(ctx, auth.ActTicketRead, auth.ResourceTicket); err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err := s.read(ctx, "GetTicket", func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = loadTicket(ctx, tx, ticketID, auth.ActTicketRead)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// ListTickets returns the tickets visible to the actor matching in.
func (s *Service) ListTickets(ctx context.Context, in ListTicketsInput) ([]*models.Ticket, error) {
	actor, err := precheck(ctx, auth.ActTicketList, auth.ResourceTicket)
	if err != nil {
		return nil, err
	}

	var tickets []*models.Ticket
	err = s.read(ctx, "ListTickets", func(ctx context.Context, tx store.Tx) error {
		if in.ProjectID != nil {
			if _, err := loadProject(ctx, tx, *in.ProjectID, auth.ActTicketList); err != nil {
				return err
			}
		}

		var err error
		tickets, err = tx.Tickets().List(ctx, store.ListTicketsOptions{
			OrgID:      auth.ScopeFilter(actor),
			ProjectID:  in.ProjectID,
			Status:     in.Status,
			AssigneeID: in.AssigneeID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, tickets, func(t *models.Ticket) uuid.UUID { return t.OrgID }), nil
}

// UpdateTicket changes a ticket's fields and, optionally, its status.
func (s *Service) UpdateTicket(ctx context.Context, ticketID uuid.UUID, in UpdateTicketInput) (*models.Ticket, error) {
	if _, err := precheck(ctx, auth.ActTicketUpdate, auth.ResourceTicket); err != nil {
		return nil, err
	}

	var (
		title, priority string
		err             error
	)
	if in.Title != nil {
		if title, err = required("title", *in.Title); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		if priority, err = checkPriority(*in.Priority); err != nil {
			return nil, err
		}
	}

	var ticket *models.Ticket
	err = s.write(ctx, "UpdateTicket", func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = loadTicket(ctx, tx, ticketID, auth.ActTicketUpdate)
		if err != nil {
			return err
		}

		if in.Status != nil && *in.Status != ticket.Status {
			if err := s.checkStatus(ctx, tx, ticket, *in.Status); err != nil {
				return err
			}
			ticket.Status = *in.Status
		}

		switch {
		case in.ClearEpic:
			ticket.EpicID = nil
		case in.EpicID != nil:
			if err := checkEpic(ctx, tx, ticket.ProjectID, *in.EpicID); err != nil {
				return err
			}
			ticket.EpicID = in.EpicID
		}

		if in.Title != nil {
			ticket.Title = title
		}
		if in.Description != nil {
			ticket.Description = *in.Description
		}
		if in.Priority != nil {
			ticket.Priority = priority
		}

		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// checkStatus validates status against the current effective workflow of the
// ticket's project.
func (s *Service) checkStatus(ctx context.Context, tx store.Tx, ticket *models.Ticket, status string) error {
	if err := auth.Require(ctx, auth.ActTicketStatus, auth.On(auth.ResourceTicket, ticket.OrgID)); err != nil {
		return err
	}

	project, err := tx.Projects().Get(ctx, ticket.ProjectID)
	if err != nil {
		return err
	}
	wf, err := s.registry.Effective(ctx, tx, project)
	if err != nil {
		return err
	}
	return workflow.ValidateStatus(wf, status).Err()
}

// UpdateTicketStatus sets a ticket's status. Setting the current status is a
// successful no-op.
func (s *Service) UpdateTicketStatus(ctx context.Context, ticketID uuid.UUID, status string) (*models.Ticket, error) {
	if _, err := precheck(ctx, auth.ActTicketStatus, auth.ResourceTicket); err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err := s.write(ctx, "UpdateTicketStatus", func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = loadTicket(ctx, tx, ticketID, auth.ActTicketStatus)
		if err != nil {
			return err
		}

		if ticket.Status == status {
			return nil
		}

		if err := s.checkStatus(ctx, tx, ticket, status); err != nil {
			return err
		}

		ticket.Status = status
		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// MoveTicket moves a ticket to another project of the same organization. The
// ticket keeps its status, which must be valid in the target project's
// workflow. The epic reference is dropped since epics belong to a project.
func (s *Service) MoveTicket(ctx context.Context, ticketID, targetProjectID uuid.UUID) (*models.Ticket, error) {
	if _, err := precheck(ctx, auth.ActTicketMove, auth.ResourceTicket); err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err := s.write(ctx, "MoveTicket", func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = loadTicket(ctx, tx, ticketID, auth.ActTicketMove)
		if err != nil {
			return err
		}

		target, err := loadProject(ctx, tx, targetProjectID, auth.ActTicketMove)
		if err != nil {
			return err
		}
		if target.OrgID != ticket.OrgID {
			return apperr.New(apperr.KindValidationFailed, "tickets cannot be moved between organizations")
		}
		if target.ProjectID == ticket.ProjectID {
			return nil
		}

		source, err := tx.Projects().Get(ctx, ticket.ProjectID)
		if err != nil {
			return err
		}

		o, _, err := s.guard.Move(ctx, tx, ticket, source, target)
		if err != nil {
			return err
		}
		if err := o.Err(); err != nil {
			return err
		}

		ticket.ProjectID = target.ProjectID
		ticket.EpicID = nil
		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	telemetry.GetMetrics().TicketMovesTotal.Add(ctx, 1)

	zerolog.Ctx(ctx).Info().
		Str("ticket_id", ticket.TicketID.String()).
		Str("project_id", ticket.ProjectID.String()).
		Msg("Moved ticket")

	return ticket, nil
}

// AssignTicket sets or, with a nil assigneeID, clears a ticket's assignee.
func (s *Service) AssignTicket(ctx context.Context, ticketID uuid.UUID, assigneeID *uuid.UUID) (*models.Ticket, error) {
	if _, err := precheck(ctx, auth.ActTicketAssign, auth.ResourceTicket); err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err := s.write(ctx, "AssignTicket", func(ctx context.Context, tx store.Tx) error {
		var err error
		ticket, err = loadTicket(ctx, tx, ticketID, auth.ActTicketAssign)
		if err != nil {
			return err
		}

		if assigneeID != nil {
			if err := checkAssignee(ctx, tx, ticket.OrgID, *assigneeID); err != nil {
				return err
			}
		}

		ticket.AssigneeID = assigneeID
		return tx.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// DeleteTicket removes a ticket and its comments.
func (s *Service) DeleteTicket(ctx context.Context, ticketID uuid.UUID) error {
	if _, err := precheck(ctx, auth.ActTicketDelete, auth.ResourceTicket); err != nil {
		return err
	}

	return s.write(ctx, "DeleteTicket", func(ctx context.Context, tx store.Tx) error {
		ticket, err := loadTicket(ctx, tx, ticketID, auth.ActTicketDelete)
		if err != nil {
			return err
		}
		if err := tx.Comments().DeleteByTickets(ctx, []uuid.UUID{ticket.TicketID}); err != nil {
			return err
		}
		return tx.Tickets().Delete(ctx, ticket.TicketID)
	})
}
