package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// CreateEpicInput holds the fields of a new epic.
type CreateEpicInput struct {
	Name        string
	Description string
}

// UpdateEpicInput holds optional epic changes.
type UpdateEpicInput struct {
	Name        *string
	Description *string
}

func loadEpic(ctx context.Context, tx store.Tx, epicID uuid.UUID, action auth.Action) (*models.Epic, error) {
	epic, err := tx.Epics().Get(ctx, epicID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(ctx, action, auth.On(auth.ResourceEpic, epic.OrgID)); err != nil {
		return nil, err
	}
	return epic, nil
}

// CreateEpic creates an epic in a project.
func (s *Service) CreateEpic(ctx context.Context, projectID uuid.UUID, in CreateEpicInput) (*models.Epic, error) {
	if _, err := precheck(ctx, auth.ActEpicCreate, auth.ResourceEpic); err != nil {
		return nil, err
	}

	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}

	var epic *models.Epic
	err = s.write(ctx, "CreateEpic", func(ctx context.Context, tx store.Tx) error {
		project, err := loadProject(ctx, tx, projectID, auth.ActEpicCreate)
		if err != nil {
			return err
		}

		now := s.now()
		epic = &models.Epic{
			EpicID:      newID(),
			OrgID:       project.OrgID,
			ProjectID:   project.ProjectID,
			Name:        name,
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Epics().Create(ctx, epic)
	})
	if err != nil {
		return nil, err
	}

	return epic, nil
}

// GetEpic returns an epic.
func (s *Service) GetEpic(ctx context.Context, epicID uuid.UUID) (*models.Epic, error) {
	if _, err := precheck(ctx, auth.ActEpicRead, auth.ResourceEpic); err != nil {
		return nil, err
	}

	var epic *models.Epic
	err := s.read(ctx, "GetEpic", func(ctx context.Context, tx store.Tx) error {
		var err error
		epic, err = loadEpic(ctx, tx, epicID, auth.ActEpicRead)
		return err
	})
	if err != nil {
		return nil, err
	}

	return epic, nil
}

// ListEpics returns the epics of a project.
func (s *Service) ListEpics(ctx context.Context, projectID uuid.UUID) ([]*models.Epic, error) {
	actor, err := precheck(ctx, auth.ActEpicList, auth.ResourceEpic)
	if err != nil {
		return nil, err
	}

	var epics []*models.Epic
	err = s.read(ctx, "ListEpics", func(ctx context.Context, tx store.Tx) error {
		if _, err := loadProject(ctx, tx, projectID, auth.ActEpicList); err != nil {
			return err
		}
		var err error
		epics, err = tx.Epics().ListByProject(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, epics, func(e *models.Epic) uuid.UUID { return e.OrgID }), nil
}

// UpdateEpic changes an epic's name or description.
func (s *Service) UpdateEpic(ctx context.Context, epicID uuid.UUID, in UpdateEpicInput) (*models.Epic, error) {
	if _, err := precheck(ctx, auth.ActEpicUpdate, auth.ResourceEpic); err != nil {
		return nil, err
	}

	var name string
	if in.Name != nil {
		var err error
		if name, err = required("name", *in.Name); err != nil {
			return nil, err
		}
	}

	var epic *models.Epic
	err := s.write(ctx, "UpdateEpic", func(ctx context.Context, tx store.Tx) error {
		var err error
		epic, err = loadEpic(ctx, tx, epicID, auth.ActEpicUpdate)
		if err != nil {
			return err
		}
		if in.Name != nil {
			epic.Name = name
		}
		if in.Description != nil {
			epic.Description = *in.Description
		}
		return tx.Epics().Update(ctx, epic)
	})
	if err != nil {
		return nil, err
	}

	return epic, nil
}

// DeleteEpic removes an epic and detaches its tickets.
func (s *Service) DeleteEpic(ctx context.Context, epicID uuid.UUID) error {
	if _, err := precheck(ctx, auth.ActEpicDelete, auth.ResourceEpic); err != nil {
		return err
	}

	return s.write(ctx, "DeleteEpic", func(ctx context.Context, tx store.Tx) error {
		epic, err := loadEpic(ctx, tx, epicID, auth.ActEpicDelete)
		if err != nil {
			return err
		}
		if err := tx.Tickets().ClearEpic(ctx, epic.EpicID); err != nil {
			return err
		}
		return tx.Epics().Delete(ctx, epic.EpicID)
	})
}
