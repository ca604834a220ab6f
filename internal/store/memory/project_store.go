package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type projectStore struct {
	tx *tx
}

func cloneProject(p *models.Project) *models.Project {
	clone := *p
	clone.WorkflowID = cloneUUIDPtr(p.WorkflowID)
	return &clone
}

func (s *projectStore) Create(ctx context.Context, project *models.Project) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.organizations[project.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}
	if project.WorkflowID != nil {
		if _, exists := s.tx.data.workflows[*project.WorkflowID]; !exists {
			return store.ErrWorkflowNotFound
		}
	}

	s.tx.data.projects[project.ProjectID] = cloneProject(project)
	return nil
}

func (s *projectStore) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	p, exists := s.tx.data.projects[projectID]
	if !exists {
		return nil, store.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (s *projectStore) Update(ctx context.Context, project *models.Project) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.projects[project.ProjectID]; !exists {
		return store.ErrProjectNotFound
	}
	if project.WorkflowID != nil {
		if _, exists := s.tx.data.workflows[*project.WorkflowID]; !exists {
			return store.ErrWorkflowNotFound
		}
	}

	project.UpdatedAt = time.Now()
	s.tx.data.projects[project.ProjectID] = cloneProject(project)
	return nil
}

func (s *projectStore) Delete(ctx context.Context, projectID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.projects[projectID]; !exists {
		return store.ErrProjectNotFound
	}
	delete(s.tx.data.projects, projectID)
	return nil
}

func (s *projectStore) filter(keep func(p *models.Project) bool) []*models.Project {
	var result []*models.Project
	for _, p := range s.tx.data.projects {
		if keep(p) {
			result = append(result, cloneProject(p))
		}
	}
	sortByCreated(result, func(p *models.Project) (time.Time, uuid.UUID) { return p.CreatedAt, p.ProjectID })
	return result
}

func (s *projectStore) List(ctx context.Context, orgID *uuid.UUID) ([]*models.Project, error) {
	return s.filter(func(p *models.Project) bool {
		return orgID == nil || p.OrgID == *orgID
	}), nil
}

func (s *projectStore) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Project, error) {
	return s.filter(func(p *models.Project) bool {
		return p.WorkflowID != nil && *p.WorkflowID == workflowID
	}), nil
}

func (s *projectStore) ListUsingDefault(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error) {
	return s.filter(func(p *models.Project) bool {
		return p.OrgID == orgID && p.WorkflowID == nil
	}), nil
}

type epicStore struct {
	tx *tx
}

func (s *epicStore) Create(ctx context.Context, epic *models.Epic) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.projects[epic.ProjectID]; !exists {
		return store.ErrProjectNotFound
	}
	clone := *epic
	s.tx.data.epics[epic.EpicID] = &clone
	return nil
}

func (s *epicStore) Get(ctx context.Context, epicID uuid.UUID) (*models.Epic, error) {
	e, exists := s.tx.data.epics[epicID]
	if !exists {
		return nil, store.ErrEpicNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *epicStore) Update(ctx context.Context, epic *models.Epic) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.epics[epic.EpicID]; !exists {
		return store.ErrEpicNotFound
	}
	epic.UpdatedAt = time.Now()
	clone := *epic
	s.tx.data.epics[epic.EpicID] = &clone
	return nil
}

func (s *epicStore) Delete(ctx context.Context, epicID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	if _, exists := s.tx.data.epics[epicID]; !exists {
		return store.ErrEpicNotFound
	}
	delete(s.tx.data.epics, epicID)
	return nil
}

func (s *epicStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Epic, error) {
	var result []*models.Epic
	for _, e := range s.tx.data.epics {
		if e.ProjectID == projectID {
			clone := *e
			result = append(result, &clone)
		}
	}
	sortByCreated(result, func(e *models.Epic) (time.Time, uuid.UUID) { return e.CreatedAt, e.EpicID })
	return result, nil
}

func (s *epicStore) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	if err := s.tx.writable(); err != nil {
		return err
	}
	for id, e := range s.tx.data.epics {
		if e.ProjectID == projectID {
			delete(s.tx.data.epics, id)
		}
	}
	return nil
}
