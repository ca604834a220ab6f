package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// MoveHint is attached to rejected moves.
const MoveHint = "update the ticket status to one of the valid statuses first"

// CheckStatusRemoval rejects replacing wf's statuses with next while any of
// tickets holds a status that would be removed. Additions are always allowed.
func CheckStatusRemoval(wf *models.Workflow, next []string, tickets []*models.Ticket) Outcome {
	removed := removedStatuses(wf.Statuses, next)
	if len(removed) == 0 {
		return Allowed()
	}

	var (
		affected []uuid.UUID
		blocked  []string
	)
	for _, t := range tickets {
		if !slices.Contains(removed, t.Status) {
			continue
		}
		affected = append(affected, t.TicketID)
		if !slices.Contains(blocked, t.Status) {
			blocked = append(blocked, t.Status)
		}
	}

	if len(affected) == 0 {
		return Allowed()
	}

	// report in workflow order
	slices.SortFunc(blocked, func(a, b string) int {
		return slices.Index(wf.Statuses, a) - slices.Index(wf.Statuses, b)
	})

	o := rejected(apperr.KindIntegrityConflict,
		fmt.Sprintf("%d ticket(s) still use status(es) being removed", len(affected)))
	o.BlockedStatuses = blocked
	o.AffectedCount = len(affected)
	o.AffectedTickets = affected
	o.Hint = "move the affected tickets to another status before removing it"
	return o
}

// CheckReassignment rejects binding a project to target while any of its
// tickets holds a status target does not define.
func CheckReassignment(tickets []*models.Ticket, target *models.Workflow) Outcome {
	var incompatible []uuid.UUID
	for _, t := range tickets {
		if !target.HasStatus(t.Status) {
			incompatible = append(incompatible, t.TicketID)
		}
	}

	if len(incompatible) == 0 {
		return Allowed()
	}

	o := rejected(apperr.KindIntegrityConflict,
		fmt.Sprintf("%d ticket(s) have statuses not defined by workflow %q", len(incompatible), target.Name))
	o.IncompatibleTickets = incompatible
	o.ValidStatuses = slices.Clone(target.Statuses)
	return o
}

// CheckMove rejects moving ticket from a project using source to a project
// using target unless both are the same workflow or target defines the
// ticket's status.
func CheckMove(ticket *models.Ticket, source, target *models.Workflow) Outcome {
	if source.WorkflowID == target.WorkflowID {
		return Allowed()
	}
	if target.HasStatus(ticket.Status) {
		return Allowed()
	}

	o := rejected(apperr.KindIntegrityConflict,
		fmt.Sprintf("status %q is not valid in the target project's workflow %q", ticket.Status, target.Name))
	o.ValidStatuses = slices.Clone(target.Statuses)
	o.IncompatibleTickets = []uuid.UUID{ticket.TicketID}
	o.Hint = MoveHint
	return o
}

// Guard runs the integrity checks against the state visible in a transaction.
type Guard struct {
	registry *Registry
}

// NewGuard creates a guard resolving effective workflows through registry.
func NewGuard(registry *Registry) *Guard {
	return &Guard{registry: registry}
}

// StatusRemoval checks replacing wf's statuses with next against every ticket
// bound to wf.
func (g *Guard) StatusRemoval(ctx context.Context, tx store.Tx, wf *models.Workflow, next []string) (Outcome, error) {
	if len(removedStatuses(wf.Statuses, next)) == 0 {
		return Allowed(), nil
	}

	tickets, err := BoundTickets(ctx, tx, wf)
	if err != nil {
		return Outcome{}, err
	}

	return observe(ctx, "status_removal", CheckStatusRemoval(wf, next, tickets)), nil
}

// Reassignment checks binding project to target.
func (g *Guard) Reassignment(ctx context.Context, tx store.Tx, project *models.Project, target *models.Workflow) (Outcome, error) {
	tickets, err := tx.Tickets().ListByProjects(ctx, []uuid.UUID{project.ProjectID})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to list project tickets: %w", err)
	}

	return observe(ctx, "reassignment", CheckReassignment(tickets, target)), nil
}

// Move checks moving ticket into targetProject and returns the target's
// effective workflow.
func (g *Guard) Move(ctx context.Context, tx store.Tx, ticket *models.Ticket, source, targetProject *models.Project) (Outcome, *models.Workflow, error) {
	sourceWF, err := g.registry.Effective(ctx, tx, source)
	if err != nil {
		return Outcome{}, nil, err
	}

	targetWF, err := g.registry.Effective(ctx, tx, targetProject)
	if err != nil {
		return Outcome{}, nil, err
	}

	return observe(ctx, "move", CheckMove(ticket, sourceWF, targetWF)), targetWF, nil
}

// BoundTickets returns every ticket whose project resolves to wf: projects
// referencing it directly and, for a default workflow, projects of the same
// organization that reference no workflow.
func BoundTickets(ctx context.Context, tx store.Tx, wf *models.Workflow) ([]*models.Ticket, error) {
	projects, err := tx.Projects().ListByWorkflow(ctx, wf.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects by workflow: %w", err)
	}

	if wf.IsDefault {
		implicit, err := tx.Projects().ListUsingDefault(ctx, wf.OrgID)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects using default workflow: %w", err)
		}
		projects = append(projects, implicit...)
	}

	if len(projects) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ProjectID)
	}

	tickets, err := tx.Tickets().ListByProjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets by projects: %w", err)
	}
	return tickets, nil
}
