package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ResourceKind identifies the type of resource an action targets.
type ResourceKind string

const (
	ResourceOrganization ResourceKind = "organization"
	ResourceUser         ResourceKind = "user"
	ResourceProject      ResourceKind = "project"
	ResourceTicket       ResourceKind = "ticket"
	ResourceWorkflow     ResourceKind = "workflow"
	ResourceEpic         ResourceKind = "epic"
	ResourceComment      ResourceKind = "comment"
)

// hidesExistence lists resource kinds whose existence must not leak across
// tenants; a cross-tenant access reports not found instead of forbidden.
var hidesExistence = map[ResourceKind]bool{
	ResourceUser: true,
}

// Resource references the target of an action. OrgID is nil when the action
// does not address a concrete resource (for example listing a collection).
type Resource struct {
	Kind  ResourceKind
	OrgID *uuid.UUID
}

// On references a concrete resource owned by orgID.
func On(kind ResourceKind, orgID uuid.UUID) Resource {
	return Resource{Kind: kind, OrgID: &orgID}
}

// Collection references a kind without a concrete owner.
func Collection(kind ResourceKind) Resource {
	return Resource{Kind: kind}
}

// Decision is the result of an authorization check.
type Decision struct {
	Allowed bool
	Kind    apperr.Kind // set when denied
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(kind apperr.Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Err returns nil for an allowed decision and an *apperr.Error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.New(d.Kind, "%s", d.Reason)
}

// Authorize decides whether actor may perform action on res.
//
// The checks run in order: authentication, account state, role policy, then
// tenant scope for concrete resources. A cross-tenant access is reported as
// TenantMismatch, except for resource kinds whose existence is sensitive
// (users), which report NotFound.
func Authorize(actor *Actor, action Action, res Resource) Decision {
	d := decide(actor, action, res)
	record(action, d)
	return d
}

func decide(actor *Actor, action Action, res Resource) Decision {
	if actor == nil {
		return deny(apperr.KindUnauthenticated, "not authenticated")
	}

	if !actor.Active {
		return deny(apperr.KindAccountInactive, "account inactive")
	}

	if !Allows(actor.Role, action) {
		return deny(apperr.KindPermissionDenied, "insufficient permissions")
	}

	if res.OrgID != nil && !InScope(actor, *res.OrgID) {
		if hidesExistence[res.Kind] {
			return deny(apperr.KindNotFound, string(res.Kind)+" not found")
		}
		return deny(apperr.KindTenantMismatch, "forbidden")
	}

	return allow()
}

// Require authorizes the actor carried by ctx and returns the decision as an error.
func Require(ctx context.Context, action Action, res Resource) error {
	actor := ActorFromContext(ctx)
	d := Authorize(actor, action, res)

	if !d.Allowed {
		ev := zerolog.Ctx(ctx).Debug().
			Str("action", string(action)).
			Str("resource", string(res.Kind)).
			Str("kind", d.Kind.String())
		if actor != nil {
			ev = ev.Str("user_id", actor.UserID.String()).Str("role", string(actor.Role))
		}
		ev.Msg("Authorization denied")
	}

	return d.Err()
}

func record(action Action, d Decision) {
	telemetry.GetMetrics().AuthzDecisionsTotal.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("action", string(action)),
			attribute.Bool("allowed", d.Allowed),
		))
}
