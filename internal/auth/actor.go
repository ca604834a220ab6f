package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
)

// Actor is the resolved identity performing a request. It is built from a
// verified bearer token and the current user record, and is trusted as-is by
// the authorization engine.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
	OrgID  *uuid.UUID // nil only for super admins
	Active bool
}

// IsSuperAdmin returns true if the actor bypasses tenant scoping.
func (a *Actor) IsSuperAdmin() bool {
	return a != nil && a.Role == models.RoleSuperAdmin
}

// ActorFromUser builds an actor from a user record. The organization active
// flag is folded into Active so that users of a deactivated organization are
// treated as inactive.
func ActorFromUser(user *models.User, orgActive bool) *Actor {
	active := user.Active
	if !user.IsSuperAdmin() {
		active = active && orgActive
	}

	var orgID *uuid.UUID
	if user.OrgID != nil {
		id := *user.OrgID
		orgID = &id
	}

	return &Actor{
		UserID: user.UserID,
		Role:   user.Role,
		OrgID:  orgID,
		Active: active,
	}
}

// SystemActor is used by internal bootstrap code (seeding, migrations) that
// runs outside any request.
func SystemActor() *Actor {
	return &Actor{
		UserID: uuid.Nil,
		Role:   models.RoleSuperAdmin,
		Active: true,
	}
}

type contextKey int

const (
	actorContextKey contextKey = iota
)

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the authenticated actor from the request context.
// Returns nil if no actor is present (unauthenticated request).
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey).(*Actor)
	return actor
}
