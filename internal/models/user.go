package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the single role a user holds within its organization.
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleWriteAccess    Role = "write_access"
	RoleReadAccess     Role = "read_access"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleProjectManager,
	RoleWriteAccess,
	RoleReadAccess,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents a person who can log in and act within an organization.
type User struct {
	UserID       uuid.UUID  // UUIDv7
	OrgID        *uuid.UUID // nil only for super admins
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSuperAdmin returns true if the user holds the super admin role.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
