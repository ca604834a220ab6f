package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

const ticketColumns = `ticket_id, org_id, project_id, epic_id, title, description, status, priority, assignee_id, reporter_id, created_at, updated_at`

type ticketStore struct {
	tx pgx.Tx
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.TicketID,
		&t.OrgID,
		&t.ProjectID,
		&t.EpicID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.AssigneeID,
		&t.ReporterID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ticketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			ticket_id, org_id, project_id, epic_id, title, description,
			status, priority, assignee_id, reporter_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := s.tx.Exec(ctx, query,
		ticket.TicketID,
		ticket.OrgID,
		ticket.ProjectID,
		ticket.EpicID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.ReporterID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("ticket_id", ticket.TicketID.String()).
		Str("project_id", ticket.ProjectID.String()).
		Str("status", ticket.Status).
		Msg("Created ticket")

	return nil
}

func (s *ticketStore) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`

	ticket, err := scanTicket(s.tx.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", mapPostgresError(err))
	}
	return ticket, nil
}

func (s *ticketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	ticket.UpdatedAt = time.Now()

	query := `
		UPDATE tickets SET
			project_id = $2,
			epic_id = $3,
			title = $4,
			description = $5,
			status = $6,
			priority = $7,
			assignee_id = $8,
			updated_at = $9
		WHERE ticket_id = $1
	`

	result, err := s.tx.Exec(ctx, query,
		ticket.TicketID,
		ticket.ProjectID,
		ticket.EpicID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTicketNotFound
	}
	return nil
}

func (s *ticketStore) Delete(ctx context.Context, ticketID uuid.UUID) error {
	result, err := s.tx.Exec(ctx, `DELETE FROM tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTicketNotFound
	}
	return nil
}

func (s *ticketStore) query(ctx context.Context, where string, args ...any) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + where + ` ORDER BY created_at, ticket_id`

	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", mapPostgresError(err))
	}

	return collect(rows, func(row pgx.CollectableRow) (*models.Ticket, error) {
		return scanTicket(row)
	})
}

func (s *ticketStore) List(ctx context.Context, opts store.ListTicketsOptions) ([]*models.Ticket, error) {
	conditions := []string{"TRUE"}
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if opts.OrgID != nil {
		add("org_id", *opts.OrgID)
	}
	if opts.ProjectID != nil {
		add("project_id", *opts.ProjectID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	if opts.AssigneeID != nil {
		add("assignee_id", *opts.AssigneeID)
	}

	return s.query(ctx, strings.Join(conditions, " AND "), args...)
}

func (s *ticketStore) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Ticket, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	return s.query(ctx, `project_id = ANY($1)`, projectIDs)
}

func (s *ticketStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := s.tx.Exec(ctx, `DELETE FROM tickets WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete project tickets: %w", mapPostgresError(err))
	}
	return nil
}

func (s *ticketStore) ClearEpic(ctx context.Context, epicID uuid.UUID) error {
	_, err := s.tx.Exec(ctx, `UPDATE tickets SET epic_id = NULL, updated_at = $2 WHERE epic_id = $1`, epicID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clear ticket epic: %w", mapPostgresError(err))
	}
	return nil
}

func (s *ticketStore) ClearAssignee(ctx context.Context, userID uuid.UUID) error {
	_, err := s.tx.Exec(ctx, `UPDATE tickets SET assignee_id = NULL, updated_at = $2 WHERE assignee_id = $1`, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clear ticket assignee: %w", mapPostgresError(err))
	}
	return nil
}

const commentColumns = `comment_id, org_id, ticket_id, author_id, body, created_at, updated_at`

type commentStore struct {
	tx pgx.Tx
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.CommentID,
		&c.OrgID,
		&c.TicketID,
		&c.AuthorID,
		&c.Body,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (
			comment_id, org_id, ticket_id, author_id, body, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.tx.Exec(ctx, query,
		comment.CommentID,
		comment.OrgID,
		comment.TicketID,
		comment.AuthorID,
		comment.Body,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", mapPostgresError(err))
	}
	return nil
}

func (s *commentStore) Get(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id = $1`

	comment, err := scanComment(s.tx.QueryRow(ctx, query, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", mapPostgresError(err))
	}
	return comment, nil
}

func (s *commentStore) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()

	result, err := s.tx.Exec(ctx, `UPDATE comments SET body = $2, updated_at = $3 WHERE comment_id = $1`,
		comment.CommentID, comment.Body, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrCommentNotFound
	}
	return nil
}

func (s *commentStore) Delete(ctx context.Context, commentID uuid.UUID) error {
	result, err := s.tx.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrCommentNotFound
	}
	return nil
}

func (s *commentStore) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE ticket_id = $1 ORDER BY created_at, comment_id`

	rows, err := s.tx.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", mapPostgresError(err))
	}

	return collect(rows, func(row pgx.CollectableRow) (*models.Comment, error) {
		return scanComment(row)
	})
}

func (s *commentStore) DeleteByTickets(ctx context.Context, ticketIDs []uuid.UUID) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	if _, err := s.tx.Exec(ctx, `DELETE FROM comments WHERE ticket_id = ANY($1)`, ticketIDs); err != nil {
		return fmt.Errorf("failed to delete ticket comments: %w", mapPostgresError(err))
	}
	return nil
}
