package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
)

// Sentinel errors for ticket and comment store operations
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// ListTicketsOptions specifies filters for listing tickets
type ListTicketsOptions struct {
	OrgID      *uuid.UUID // Filter by organization (nil = all)
	ProjectID  *uuid.UUID // Filter by project (nil = all)
	Status     string     // Filter by status (empty = all)
	AssigneeID *uuid.UUID // Filter by assignee (nil = all)
}

// TicketStore defines the interface for ticket storage operations.
type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error

	// Get retrieves a ticket by ID.
	// Returns ErrTicketNotFound if the ticket doesn't exist.
	Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)

	Update(ctx context.Context, ticket *models.Ticket) error
	Delete(ctx context.Context, ticketID uuid.UUID) error

	// List returns tickets matching the options ordered by creation time.
	List(ctx context.Context, opts ListTicketsOptions) ([]*models.Ticket, error)

	// ListByProjects returns every ticket belonging to any of the projects.
	ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Ticket, error)

	DeleteByProject(ctx context.Context, projectID uuid.UUID) error

	// ClearEpic removes the epic reference from every ticket that points at epicID.
	ClearEpic(ctx context.Context, epicID uuid.UUID) error

	// ClearAssignee removes userID as assignee from every ticket.
	ClearAssignee(ctx context.Context, userID uuid.UUID) error
}

// CommentStore defines the interface for comment storage operations.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error

	// Get retrieves a comment by ID.
	// Returns ErrCommentNotFound if the comment doesn't exist.
	Get(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, commentID uuid.UUID) error
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*models.Comment, error)
	DeleteByTickets(ctx context.Context, ticketIDs []uuid.UUID) error
}
