package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type userStore struct {
	tx *tx
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	clone.OrgID = cloneUUIDPtr(u.OrgID)
	return &clone
}

func (s *userStore) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range s.tx.data.users {
		if u.UserID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	if err := s.tx.writable(); err != nil {
		return err
	}

	if _, exists := s.tx.data.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}
	if s.emailTaken(user.Email, user.UserID) {
		return store.ErrUserAlreadyExists
	}

	s.tx.data.users[user.UserID] = cloneUser(user)
	return nil
}

func (s *userStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, exists := s.tx.data.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.tx.data.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *userStore) Update(ctx context.Context, user *models.User) error {
	if err := s.tx.writable(); err != nil {
		return err
	}

	existing, exists := s.tx.data.users[user.UserID]
	if !exists {
		return store.ErrUserNotFound
	}
	if s.emailTaken(user.Email, user.UserID) {
		return store.ErrUserAlreadyExists
	}

	user.UpdatedAt = time.Now()
	clone := cloneUser(user)
	// organization is fixed at creation
	clone.OrgID = cloneUUIDPtr(existing.OrgID)
	s.tx.data.users[user.UserID] = clone

	return nil
}

func (s *userStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}

	if _, exists := s.tx.data.users[userID]; !exists {
		return store.ErrUserNotFound
	}
	delete(s.tx.data.users, userID)
	return nil
}

func (s *userStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.User, error) {
	var result []*models.User
	for _, u := range s.tx.data.users {
		if orgID != nil && (u.OrgID == nil || *u.OrgID != *orgID) {
			continue
		}
		result = append(result, cloneUser(u))
	}

	sortByCreated(result, func(u *models.User) (time.Time, uuid.UUID) { return u.CreatedAt, u.UserID })
	return result, nil
}
