package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents an organization (tenant) in the system.
// Each organization owns its users, projects and workflows, and always has
// exactly one default workflow.
type Organization struct {
	OrgID     uuid.UUID // UUIDv7
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
