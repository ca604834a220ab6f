package auth

import (
	"github.com/google/uuid"
)

// InScope reports whether the actor may see or touch a resource owned by
// resourceOrgID. Super admins are always in scope.
func InScope(actor *Actor, resourceOrgID uuid.UUID) bool {
	if actor == nil {
		return false
	}
	if actor.IsSuperAdmin() {
		return true
	}
	return actor.OrgID != nil && *actor.OrgID == resourceOrgID
}

// ScopeFilter returns the organization filter a list query must apply for the
// actor. A nil result means no restriction and is only returned for super admins.
func ScopeFilter(actor *Actor) *uuid.UUID {
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor == nil || actor.OrgID == nil {
		// matches nothing
		id := uuid.Nil
		return &id
	}
	id := *actor.OrgID
	return &id
}

// FilterInScope drops every item the actor may not see.
func FilterInScope[T any](actor *Actor, items []T, orgOf func(T) uuid.UUID) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if InScope(actor, orgOf(item)) {
			result = append(result, item)
		}
	}
	return result
}
