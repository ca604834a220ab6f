package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type ticketStore struct {
	tx *tx
}

func cloneTicket(t *models.Ticket) *models.Ticket {
	clone := *t
	clone.EpicID = cloneUUIDPtr(t.EpicID)
	clone.AssigneeID = cloneUUIDPtr(t.AssigneeID)
	return &clone
}

func (s *ticketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.projects[ticket.ProjectID]; !exists {
		return store.ErrProjectNotFound
	}
	s.tx.data.tickets[ticket.TicketID] = cloneTicket(ticket)
	return nil
}

func (s *ticketStore) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	t, exists := s.tx.data.tickets[ticketID]
	if !exists {
		return nil, store.ErrTicketNotFound
	}
	return cloneTicket(t), nil
}

func (s *ticketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.tickets[ticket.TicketID]; !exists {
		return store.ErrTicketNotFound
	}
	if _, exists := s.tx.data.projects[ticket.ProjectID]; !exists {
		return store.ErrProjectNotFound
	}
	ticket.UpdatedAt = time.Now()
	s.tx.data.tickets[ticket.TicketID] = cloneTicket(ticket)
	return nil
}

func (s *ticketStore) Delete(ctx context.Context, ticketID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.tickets[ticketID]; !exists {
		return store.ErrTicketNotFound
	}
	delete(s.tx.data.tickets, ticketID)
	return nil
}

func (s *ticketStore) collect(keep func(t *models.Ticket) bool) []*models.Ticket {
	var result []*models.Ticket
	for _, t := range s.tx.data.tickets {
		if keep(t) {
			result = append(result, cloneTicket(t))
		}
	}
	sortByCreated(result, func(t *models.Ticket) (time.Time, uuid.UUID) { return t.CreatedAt, t.TicketID })
	return result
}

func (s *ticketStore) List(ctx context.Context, opts store.ListTicketsOptions) ([]*models.Ticket, error) {
	return s.collect(func(t *models.Ticket) bool {
		if opts.OrgID != nil && t.OrgID != *opts.OrgID {
			return false
		}
		if opts.ProjectID != nil && t.ProjectID != *opts.ProjectID {
			return false
		}
		if opts.Status != "" && t.Status != opts.Status {
			return false
		}
		if opts.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *opts.AssigneeID) {
			return false
		}
		return true
	}), nil
}

func (s *ticketStore) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Ticket, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	return s.collect(func(t *models.Ticket) bool {
		return slices.Contains(projectIDs, t.ProjectID)
	}), nil
}

func (s *ticketStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	for id, t := range s.tx.data.tickets {
		if t.ProjectID == projectID {
			delete(s.tx.data.tickets, id)
		}
	}
	return nil
}

func (s *ticketStore) ClearEpic(ctx context.Context, epicID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	for id, t := range s.tx.data.tickets {
		if t.EpicID != nil && *t.EpicID == epicID {
			clone := cloneTicket(t)
			clone.EpicID = nil
			clone.UpdatedAt = time.Now()
			s.tx.data.tickets[id] = clone
		}
	}
	return nil
}

func (s *ticketStore) ClearAssignee(ctx context.Context, userID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	for id, t := range s.tx.data.tickets {
		if t.AssigneeID != nil && *t.AssigneeID == userID {
			clone := cloneTicket(t)
			clone.AssigneeID = nil
			clone.UpdatedAt = time.Now()
			s.tx.data.tickets[id] = clone
		}
	}
	return nil
}

type commentStore struct {
	tx *tx
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.tickets[comment.TicketID]; !exists {
		return store.ErrTicketNotFound
	}
	clone := *comment
	s.tx.data.comments[comment.CommentID] = &clone
	return nil
}

func (s *commentStore) Get(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	c, exists := s.tx.data.comments[commentID]
	if !exists {
		return nil, store.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *commentStore) Update(ctx context.Context, comment *models.Comment) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.comments[comment.CommentID]; !exists {
		return store.ErrCommentNotFound
	}
	comment.UpdatedAt = time.Now()
	clone := *comment
	s.tx.data.comments[comment.CommentID] = &clone
	return nil
}

func (s *commentStore) Delete(ctx context.Context, commentID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.comments[commentID]; !exists {
		return store.ErrCommentNotFound
	}
	delete(s.tx.data.comments, commentID)
	return nil
}

func (s *commentStore) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*models.Comment, error) {
	var result []*models.Comment
	for _, c := range s.tx.data.comments {
		if c.TicketID == ticketID {
			clone := *c
			result = append(result, &clone)
		}
	}
	sortByCreated(result, func(c *models.Comment) (time.Time, uuid.UUID) { return c.CreatedAt, c.CommentID })
	return result, nil
}

func (s *commentStore) DeleteByTickets(ctx context.Context, ticketIDs []uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	for id, c := range s.tx.data.comments {
		if slices.Contains(ticketIDs, c.TicketID) {
			delete(s.tx.data.comments, id)
		}
	}
	return nil
}
