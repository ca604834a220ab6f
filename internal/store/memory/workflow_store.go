package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type workflowStore struct {
	tx *tx
}

func (s *workflowStore) Create(ctx context.Context, wf *models.Workflow) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.organizations[wf.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}
	if wf.IsDefault {
		for _, existing := range s.tx.data.workflows {
			if existing.OrgID == wf.OrgID && existing.IsDefault {
				return store.ErrDefaultWorkflowExists
			}
		}
	}

	s.tx.data.workflows[wf.WorkflowID] = wf.Clone()
	return nil
}

func (s *workflowStore) Get(ctx context.Context, workflowID uuid.UUID) (*models.Workflow, error) {
	wf, exists := s.tx.data.workflows[workflowID]
	if !exists {
		return nil, store.ErrWorkflowNotFound
	}
	return wf.Clone(), nil
}

func (s *workflowStore) GetDefault(ctx context.Context, orgID uuid.UUID) (*models.Workflow, error) {
	for _, wf := range s.tx.data.workflows {
		if wf.OrgID == orgID && wf.IsDefault {
			return wf.Clone(), nil
		}
	}
	return nil, store.ErrWorkflowNotFound
}

func (s *workflowStore) Update(ctx context.Context, wf *models.Workflow) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	existing, exists := s.tx.data.workflows[wf.WorkflowID]
	if !exists {
		return store.ErrWorkflowNotFound
	}

	wf.UpdatedAt = time.Now()
	clone := wf.Clone()
	// is_default is set once at creation
	clone.IsDefault = existing.IsDefault
	s.tx.data.workflows[wf.WorkflowID] = clone
	return nil
}

func (s *workflowStore) Delete(ctx context.Context, workflowID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.workflows[workflowID]; !exists {
		return store.ErrWorkflowNotFound
	}
	delete(s.tx.data.workflows, workflowID)
	return nil
}

func (s *workflowStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.Workflow, error) {
	var result []*models.Workflow
	for _, wf := range s.tx.data.workflows {
		if orgID != nil && wf.OrgID != *orgID {
			continue
		}
		result = append(result, wf.Clone())
	}
	sortByCreated(result, func(w *models.Workflow) (time.Time, uuid.UUID) { return w.CreatedAt, w.WorkflowID })
	return result, nil
}
