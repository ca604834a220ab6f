package auth

import (
	"slices"

	"github.com/wolfeidau/tracker/internal/models"
)

// Action is a coarse capability token checked against the role policy table.
type Action string

const (
	ActOrgCreate Action = "org.create"
	ActOrgUpdate Action = "org.update"
	ActOrgRead   Action = "org.read"
	ActOrgList   Action = "org.list"

	ActUserCreate Action = "user.create"
	ActUserUpdate Action = "user.update"
	ActUserDelete Action = "user.delete"
	ActUserRead   Action = "user.read"
	ActUserList   Action = "user.list"

	ActProjectCreate      Action = "project.create"
	ActProjectUpdate      Action = "project.update"
	ActProjectSetWorkflow Action = "project.set_workflow"
	ActProjectDelete      Action = "project.delete"
	ActProjectRead        Action = "project.read"
	ActProjectList        Action = "project.list"

	ActTicketCreate Action = "ticket.create"
	ActTicketUpdate Action = "ticket.update"
	ActTicketStatus Action = "ticket.status"
	ActTicketMove   Action = "ticket.move"
	ActTicketAssign Action = "ticket.assign"
	ActTicketDelete Action = "ticket.delete"
	ActTicketRead   Action = "ticket.read"
	ActTicketList   Action = "ticket.list"

	ActWorkflowCreate Action = "workflow.create"
	ActWorkflowUpdate Action = "workflow.update"
	ActWorkflowDelete Action = "workflow.delete"
	ActWorkflowRead   Action = "workflow.read"
	ActWorkflowList   Action = "workflow.list"

	ActEpicCreate Action = "epic.create"
	ActEpicUpdate Action = "epic.update"
	ActEpicDelete Action = "epic.delete"
	ActEpicRead   Action = "epic.read"
	ActEpicList   Action = "epic.list"

	ActCommentCreate Action = "comment.create"
	ActCommentUpdate Action = "comment.update"
	ActCommentDelete Action = "comment.delete"
	ActCommentRead   Action = "comment.read"
	ActCommentList   Action = "comment.list"
)

// readActions are granted to every role; tenant scoping still applies.
var readActions = []Action{
	ActOrgRead, ActOrgList,
	ActUserRead, ActUserList,
	ActProjectRead, ActProjectList,
	ActTicketRead, ActTicketList,
	ActWorkflowRead, ActWorkflowList,
	ActEpicRead, ActEpicList,
	ActCommentRead, ActCommentList,
}

var writeAccessActions = []Action{
	ActTicketCreate, ActTicketUpdate, ActTicketStatus,
	ActCommentCreate, ActCommentUpdate,
}

var projectManagerActions = []Action{
	ActProjectCreate, ActProjectUpdate, ActProjectSetWorkflow,
	ActTicketMove, ActTicketAssign,
	ActWorkflowCreate, ActWorkflowUpdate,
	ActEpicCreate, ActEpicUpdate,
}

var adminActions = []Action{
	ActUserCreate, ActUserUpdate, ActUserDelete,
	ActProjectDelete,
	ActTicketDelete,
	ActWorkflowDelete,
	ActEpicDelete,
	ActCommentDelete,
}

var superAdminActions = []Action{
	ActOrgCreate, ActOrgUpdate,
}

// AllActions lists every action known to the policy table.
var AllActions = slices.Concat(readActions, writeAccessActions, projectManagerActions, adminActions, superAdminActions)

// RolePermissions maps each role to the actions it may perform.
// Each role includes everything granted to the roles below it.
var RolePermissions = map[models.Role][]Action{
	models.RoleSuperAdmin:     AllActions,
	models.RoleAdmin:          slices.Concat(readActions, writeAccessActions, projectManagerActions, adminActions),
	models.RoleProjectManager: slices.Concat(readActions, writeAccessActions, projectManagerActions),
	models.RoleWriteAccess:    slices.Concat(readActions, writeAccessActions),
	models.RoleReadAccess:     slices.Clone(readActions),
}

// Allows checks if a role may perform an action. Unknown roles and actions
// are denied.
func Allows(role models.Role, action Action) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, action)
}
