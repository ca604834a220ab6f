package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func loadComment(ctx context.Context, tx store.Tx, commentID uuid.UUID, action auth.Action) (*models.Comment, error) {
	comment, err := tx.Comments().Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, action, auth.On(auth.ResourceComment, comment.OrgID)); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateComment adds a comment to a ticket.
func (s *Service) CreateComment(ctx context.Context, ticketID uuid.UUID, body string) (*models.Comment, error) {
	actor, err := precheck(ctx, auth.ActCommentCreate, auth.ResourceComment)
	if err != nil {
		return nil, err
	}

	body, err = required("body", body)
	if err != nil {
		return nil, err
	}

	var comment *models.Comment
	err = s.write(ctx, "CreateComment", func(ctx context.Context, tx store.Tx) error {
		ticket, err := loadTicket(ctx, tx, ticketID, auth.ActCommentCreate)
		if err != nil {
			return err
		}

		now := s.now()
		comment = &models.Comment{
			CommentID: newID(),
			OrgID:     ticket.OrgID,
			TicketID:  ticket.TicketID,
			AuthorID:  actor.UserID,
			Body:      body,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Comments().Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// ListComments returns the comments of a ticket, oldest first.
func (s *Service) ListComments(ctx context.Context, ticketID uuid.UUID) ([]*models.Comment, error) {
	actor, err := precheck(ctx, auth.ActCommentList, auth.ResourceComment)
	if err != nil {
		return nil, err
	}

	var comments []*models.Comment
	err = s.read(ctx, "ListComments", func(ctx context.Context, tx store.Tx) error {
		if _, err := loadTicket(ctx, tx, ticketID, auth.ActCommentList); err != nil {
			return err
		}
		var err error
		comments, err = tx.Comments().ListByTicket(ctx, ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, comments, func(c *models.Comment) uuid.UUID { return c.OrgID }), nil
}

// UpdateComment edits a comment body. Only the author, an admin or a super
// admin may edit a comment.
func (s *Service) UpdateComment(ctx context.Context, commentID uuid.UUID, body string) (*models.Comment, error) {
	actor, err := precheck(ctx, auth.ActCommentUpdate, auth.ResourceComment)
	if err != nil {
		return nil, err
	}

	body, err = required("body", body)
	if err != nil {
		return nil, err
	}

	var comment *models.Comment
	err = s.write(ctx, "UpdateComment", func(ctx context.Context, tx store.Tx) error {
		var err error
		comment, err = loadComment(ctx, tx, commentID, auth.ActCommentUpdate)
		if err != nil {
			return err
		}

		if comment.AuthorID != actor.UserID && !auth.Allows(actor.Role, auth.ActCommentDelete) {
			return apperr.New(apperr.KindPermissionDenied, "only the author can edit this comment")
		}

		comment.Body = body
		return tx.Comments().Update(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	if _, err := precheck(ctx, auth.ActCommentDelete, auth.ResourceComment); err != nil {
		return err
	}

	return s.write(ctx, "DeleteComment", func(ctx context.Context, tx store.Tx) error {
		comment, err := loadComment(ctx, tx, commentID, auth.ActCommentDelete)
		if err != nil {
			return err
		}
		return tx.Comments().Delete(ctx, comment.CommentID)
	})
}
