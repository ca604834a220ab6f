package auth

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
)

func TestAuthorize(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()

	admin := &Actor{UserID: uuid.New(), Role: models.RoleAdmin, OrgID: &orgA, Active: true}
	reader := &Actor{UserID: uuid.New(), Role: models.RoleReadAccess, OrgID: &orgA, Active: true}
	inactive := &Actor{UserID: uuid.New(), Role: models.RoleAdmin, OrgID: &orgA, Active: false}
	super := &Actor{UserID: uuid.New(), Role: models.RoleSuperAdmin, Active: true}

	tests := []struct {
		name    string
		actor   *Actor
		action  Action
		res     Resource
		allowed bool
		kind    apperr.Kind
	}{
		{name: "unauthenticated", actor: nil, action: ActTicketRead, res: On(ResourceTicket, orgA), kind: apperr.KindUnauthenticated},
		{name: "inactive checked before role", actor: inactive, action: ActTicketRead, res: On(ResourceTicket, orgA), kind: apperr.KindAccountInactive},
		{name: "role denied in own org", actor: reader, action: ActTicketCreate, res: On(ResourceProject, orgA), kind: apperr.KindPermissionDenied},
		{name: "role denied regardless of tenant", actor: reader, action: ActTicketCreate, res: On(ResourceProject, orgB), kind: apperr.KindPermissionDenied},
		{name: "project cross tenant forbidden", actor: admin, action: ActProjectRead, res: On(ResourceProject, orgB), kind: apperr.KindTenantMismatch},
		{name: "ticket cross tenant forbidden", actor: admin, action: ActTicketUpdate, res: On(ResourceTicket, orgB), kind: apperr.KindTenantMismatch},
		{name: "workflow cross tenant forbidden", actor: admin, action: ActWorkflowDelete, res: On(ResourceWorkflow, orgB), kind: apperr.KindTenantMismatch},
		{name: "user cross tenant not found", actor: admin, action: ActUserRead, res: On(ResourceUser, orgB), kind: apperr.KindNotFound},
		{name: "own org allowed", actor: admin, action: ActProjectDelete, res: On(ResourceProject, orgA), allowed: true},
		{name: "collection allowed without scope", actor: reader, action: ActProjectList, res: Collection(ResourceProject), allowed: true},
		{name: "super admin crosses tenants", actor: super, action: ActWorkflowDelete, res: On(ResourceWorkflow, orgB), allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.actor, tt.action, tt.res)
			require.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				require.NoError(t, d.Err())
				return
			}
			require.Equal(t, tt.kind, d.Kind)
			require.Equal(t, tt.kind, apperr.KindOf(d.Err()))
		})
	}
}

func TestAuthorize_PolicyMatrix(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()

	for action, granted := range policyMatrix {
		for _, role := range everyRole {
			own := &Actor{UserID: uuid.New(), Role: role, OrgID: &orgA, Active: true}
			if role == models.RoleSuperAdmin {
				own.OrgID = nil
			}

			d := Authorize(own, action, On(ResourceProject, orgA))
			if !slices.Contains(granted, role) {
				require.Falsef(t, d.Allowed, "%s %s", role, action)
				require.Equalf(t, apperr.KindPermissionDenied, d.Kind, "%s %s", role, action)

				// denial holds whatever the tenant
				d = Authorize(own, action, On(ResourceProject, orgB))
				require.Equalf(t, apperr.KindPermissionDenied, d.Kind, "%s %s other org", role, action)
				continue
			}
			require.Truef(t, d.Allowed, "%s %s", role, action)
		}
	}
}

func TestRequire(t *testing.T) {
	orgA := uuid.New()
	ctx := context.Background()

	err := Require(ctx, ActTicketRead, Collection(ResourceTicket))
	require.ErrorIs(t, err, apperr.Unauthenticated)

	ctx = WithActor(ctx, &Actor{UserID: uuid.New(), Role: models.RoleWriteAccess, OrgID: &orgA, Active: true})
	require.NoError(t, Require(ctx, ActTicketCreate, On(ResourceProject, orgA)))
	require.ErrorIs(t, Require(ctx, ActTicketMove, On(ResourceTicket, orgA)), apperr.PermissionDenied)
}

func TestActorFromUser(t *testing.T) {
	orgA := uuid.New()

	user := &models.User{UserID: uuid.New(), OrgID: &orgA, Role: models.RoleAdmin, Active: true}
	require.True(t, ActorFromUser(user, true).Active)
	require.False(t, ActorFromUser(user, false).Active)

	user.Active = false
	require.False(t, ActorFromUser(user, true).Active)

	super := &models.User{UserID: uuid.New(), Role: models.RoleSuperAdmin, Active: true}
	actor := ActorFromUser(super, false)
	require.True(t, actor.Active)
	require.Nil(t, actor.OrgID)
}
