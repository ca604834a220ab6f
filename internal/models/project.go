package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tickets and epics. A nil WorkflowID means the project uses
// its organization's default workflow.
type Project struct {
	ProjectID   uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	Name        string
	Description string
	WorkflowID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Epic groups related tickets within a project.
type Epic struct {
	EpicID      uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
