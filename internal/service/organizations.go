package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// CreateOrganizationInput holds the fields of a new organization.
type CreateOrganizationInput struct {
	Name string
}

// UpdateOrganizationInput holds optional organization changes.
type UpdateOrganizationInput struct {
	Name   *string
	Active *bool
}

// CreateOrganization creates an organization together with its default
// workflow in one transaction.
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*models.Organization, error) {
	if _, err := precheck(ctx, auth.ActOrgCreate, auth.ResourceOrganization); err != nil {
		return nil, err
	}

	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	org := &models.Organization{
		OrgID:     newID(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.write(ctx, "CreateOrganization", func(ctx context.Context, tx store.Tx) error {
		if err := tx.Organizations().Create(ctx, org); err != nil {
			return err
		}
		_, err := s.registry.CreateDefault(ctx, tx, org.OrgID)
		return err
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("org_id", org.OrgID.String()).Str("name", org.Name).Msg("Created organization")

	return org, nil
}

// GetOrganization returns an organization in the actor's scope.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	if _, err := precheck(ctx, auth.ActOrgRead, auth.ResourceOrganization); err != nil {
		return nil, err
	}

	var org *models.Organization
	err := s.read(ctx, "GetOrganization", func(ctx context.Context, tx store.Tx) error {
		var err error
		org, err = tx.Organizations().Get(ctx, orgID)
		if err != nil {
			return err
		}
		return auth.Require(ctx, auth.ActOrgRead, auth.On(auth.ResourceOrganization, org.OrgID))
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// ListOrganizations returns the organizations visible to the actor.
func (s *Service) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	actor, err := precheck(ctx, auth.ActOrgList, auth.ResourceOrganization)
	if err != nil {
		return nil, err
	}

	var orgs []*models.Organization
	err = s.read(ctx, "ListOrganizations", func(ctx context.Context, tx store.Tx) error {
		var err error
		orgs, err = tx.Organizations().List(ctx, auth.ScopeFilter(actor))
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, orgs, func(o *models.Organization) uuid.UUID { return o.OrgID }), nil
}

// UpdateOrganization renames or (de)activates an organization. Deactivating
// an organization makes every one of its users inactive.
func (s *Service) UpdateOrganization(ctx context.Context, orgID uuid.UUID, in UpdateOrganizationInput) (*models.Organization, error) {
	if _, err := precheck(ctx, auth.ActOrgUpdate, auth.ResourceOrganization); err != nil {
		return nil, err
	}

	var name string
	if in.Name != nil {
		var err error
		if name, err = required("name", *in.Name); err != nil {
			return nil, err
		}
	}

	var org *models.Organization
	err := s.write(ctx, "UpdateOrganization", func(ctx context.Context, tx store.Tx) error {
		var err error
		org, err = tx.Organizations().Get(ctx, orgID)
		if err != nil {
			return err
		}
		if err := auth.Require(ctx, auth.ActOrgUpdate, auth.On(auth.ResourceOrganization, org.OrgID)); err != nil {
			return err
		}

		if in.Name != nil {
			org.Name = name
		}
		if in.Active != nil {
			org.Active = *in.Active
		}
		return tx.Organizations().Update(ctx, org)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("org_id", org.OrgID.String()).Bool("active", org.Active).Msg("Updated organization")

	return org, nil
}
