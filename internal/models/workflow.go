package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Workflow is an ordered set of ticket statuses owned by an organization.
type Workflow struct {
	WorkflowID uuid.UUID // UUIDv7
	OrgID      uuid.UUID
	Name       string
	Statuses   []string // ordered, unique, non-empty
	IsDefault  bool     // exactly one per organization, immutable
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasStatus reports whether status is a member of the workflow.
func (w *Workflow) HasStatus(status string) bool {
	return slices.Contains(w.Statuses, status)
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	clone := *w
	clone.Statuses = slices.Clone(w.Statuses)
	return &clone
}
