package auth

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/models"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		action   Action
		expected bool
	}{
		{name: "super admin can create orgs", role: models.RoleSuperAdmin, action: ActOrgCreate, expected: true},
		{name: "admin cannot create orgs", role: models.RoleAdmin, action: ActOrgCreate, expected: false},
		{name: "admin cannot update orgs", role: models.RoleAdmin, action: ActOrgUpdate, expected: false},
		{name: "admin can create users", role: models.RoleAdmin, action: ActUserCreate, expected: true},
		{name: "project manager cannot create users", role: models.RoleProjectManager, action: ActUserCreate, expected: false},
		{name: "project manager can create projects", role: models.RoleProjectManager, action: ActProjectCreate, expected: true},
		{name: "project manager cannot delete projects", role: models.RoleProjectManager, action: ActProjectDelete, expected: false},
		{name: "admin can delete projects", role: models.RoleAdmin, action: ActProjectDelete, expected: true},
		{name: "write access can create tickets", role: models.RoleWriteAccess, action: ActTicketCreate, expected: true},
		{name: "write access can change status", role: models.RoleWriteAccess, action: ActTicketStatus, expected: true},
		{name: "write access cannot move tickets", role: models.RoleWriteAccess, action: ActTicketMove, expected: false},
		{name: "write access cannot assign tickets", role: models.RoleWriteAccess, action: ActTicketAssign, expected: false},
		{name: "project manager can move tickets", role: models.RoleProjectManager, action: ActTicketMove, expected: true},
		{name: "project manager cannot delete tickets", role: models.RoleProjectManager, action: ActTicketDelete, expected: false},
		{name: "project manager can update workflows", role: models.RoleProjectManager, action: ActWorkflowUpdate, expected: true},
		{name: "project manager cannot delete workflows", role: models.RoleProjectManager, action: ActWorkflowDelete, expected: false},
		{name: "admin can delete workflows", role: models.RoleAdmin, action: ActWorkflowDelete, expected: true},
		{name: "read access cannot create tickets", role: models.RoleReadAccess, action: ActTicketCreate, expected: false},
		{name: "read access can list tickets", role: models.RoleReadAccess, action: ActTicketList, expected: true},
		{name: "read access can read orgs", role: models.RoleReadAccess, action: ActOrgRead, expected: true},
		{name: "unknown action denied", role: models.RoleSuperAdmin, action: Action("ticket.teleport"), expected: false},
		{name: "unknown role denied", role: models.Role("owner"), action: ActTicketRead, expected: false},
		{name: "empty role denied", role: "", action: ActTicketRead, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Allows(tt.role, tt.action))
		})
	}
}

func TestRolePermissionsAreCumulative(t *testing.T) {
	order := []models.Role{
		models.RoleReadAccess,
		models.RoleWriteAccess,
		models.RoleProjectManager,
		models.RoleAdmin,
		models.RoleSuperAdmin,
	}

	for i := 1; i < len(order); i++ {
		lower, higher := order[i-1], order[i]
		for _, action := range RolePermissions[lower] {
			require.Truef(t, Allows(higher, action), "%s should include %s from %s", higher, action, lower)
		}
	}
}

func TestSuperAdminAllowsEveryAction(t *testing.T) {
	for _, action := range AllActions {
		require.True(t, Allows(models.RoleSuperAdmin, action), action)
	}
}

var (
	everyRole      = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleProjectManager, models.RoleWriteAccess, models.RoleReadAccess}
	writersAndUp   = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleProjectManager, models.RoleWriteAccess}
	managersAndUp  = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleProjectManager}
	adminsAndUp    = []models.Role{models.RoleSuperAdmin, models.RoleAdmin}
	superAdminOnly = []models.Role{models.RoleSuperAdmin}
)

// policyMatrix is the role table written out row by row, independent of how
// RolePermissions is assembled.
var policyMatrix = map[Action][]models.Role{
	ActOrgCreate: superAdminOnly,
	ActOrgUpdate: superAdminOnly,
	ActOrgRead:   everyRole,
	ActOrgList:   everyRole,

	ActUserCreate: adminsAndUp,
	ActUserUpdate: adminsAndUp,
	ActUserDelete: adminsAndUp,
	ActUserRead:   everyRole,
	ActUserList:   everyRole,

	ActProjectCreate:      managersAndUp,
	ActProjectUpdate:      managersAndUp,
	ActProjectSetWorkflow: managersAndUp,
	ActProjectDelete:      adminsAndUp,
	ActProjectRead:        everyRole,
	ActProjectList:        everyRole,

	ActTicketCreate: writersAndUp,
	ActTicketUpdate: writersAndUp,
	ActTicketStatus: writersAndUp,
	ActTicketMove:   managersAndUp,
	ActTicketAssign: managersAndUp,
	ActTicketDelete: adminsAndUp,
	ActTicketRead:   everyRole,
	ActTicketList:   everyRole,

	ActWorkflowCreate: managersAndUp,
	ActWorkflowUpdate: managersAndUp,
	ActWorkflowDelete: adminsAndUp,
	ActWorkflowRead:   everyRole,
	ActWorkflowList:   everyRole,

	ActEpicCreate: managersAndUp,
	ActEpicUpdate: managersAndUp,
	ActEpicDelete: adminsAndUp,
	ActEpicRead:   everyRole,
	ActEpicList:   everyRole,

	ActCommentCreate: writersAndUp,
	ActCommentUpdate: writersAndUp,
	ActCommentDelete: adminsAndUp,
	ActCommentRead:   everyRole,
	ActCommentList:   everyRole,
}

func TestAllows_PolicyMatrix(t *testing.T) {
	require.Len(t, AllActions, len(policyMatrix), "every action needs a matrix row")

	for action, granted := range policyMatrix {
		t.Run(string(action), func(t *testing.T) {
			require.Contains(t, AllActions, action)
			for _, role := range everyRole {
				require.Equalf(t, slices.Contains(granted, role), Allows(role, action), "%s %s", role, action)
			}
		})
	}
}
