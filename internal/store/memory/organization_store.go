package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type organizationStore struct {
	tx *tx
}

// Create creates a new organization in memory.
func (s *organizationStore) Create(ctx context.Context, org *models.Organization) error {
	if err := s.tx.writable(); err != nil {
		return err
	}

	// Check if organization already exists
	if _, exists := s.tx.data.organizations[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *org
	s.tx.data.organizations[org.OrgID] = &clone

	return nil
}

// Get retrieves an organization by ID.
func (s *organizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, exists := s.tx.data.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	// Clone to avoid external modifications
	clone := *org
	return &clone, nil
}

// Update updates an existing organization.
func (s *organizationStore) Update(ctx context.Context, org *models.Organization) error {
	if err := s.tx.writable(); err != nil {
		return err
	}

	if _, exists := s.tx.data.organizations[org.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	org.UpdatedAt = time.Now()

	clone := *org
	s.tx.data.organizations[org.OrgID] = &clone

	return nil
}

// List returns all organizations, or only orgID when set.
func (s *organizationStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.Organization, error) {
	var result []*models.Organization
	for _, org := range s.tx.data.organizations {
		if orgID != nil && org.OrgID != *orgID {
			continue
		}
		clone := *org
		result = append(result, &clone)
	}

	sortByCreated(result, func(o *models.Organization) (time.Time, uuid.UUID) { return o.CreatedAt, o.OrgID })
	return result, nil
}
