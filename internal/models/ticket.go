package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Ticket is a unit of work. Its Status is always a member of the effective
// workflow of its project.
type Ticket struct {
	TicketID    uuid.UUID // UUIDv7
	OrgID       uuid.UUID // denormalized from the project for tenant filtering
	ProjectID   uuid.UUID
	EpicID      *uuid.UUID
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *uuid.UUID
	ReporterID  uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a note left on a ticket.
type Comment struct {
	CommentID uuid.UUID // UUIDv7
	OrgID     uuid.UUID
	TicketID  uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
