package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
)

// ProjectsCmd lists projects with the workflow each one resolves to.
type ProjectsCmd struct{}

func (p *ProjectsCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	projects, err := c.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	out := globals.out()
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT ID\tNAME\tWORKFLOW\tSTATUSES")
	for _, project := range projects {
		wf, err := c.ProjectWorkflow(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve workflow of project %s: %w", project.ID, err)
		}

		name := wf.Name
		if project.WorkflowID == nil {
			name += " (org default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", project.ID, project.Name, name, strings.Join(wf.Statuses, ","))
	}
	return w.Flush()
}

// WorkflowsCmd lists the workflows of the caller's organization.
type WorkflowsCmd struct{}

func (wc *WorkflowsCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	workflows, err := c.ListWorkflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	out := globals.out()
	if len(workflows) == 0 {
		fmt.Fprintln(out, "No workflows found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKFLOW ID\tNAME\tDEFAULT\tSTATUSES")
	for _, wf := range workflows {
		isDefault := ""
		if wf.IsDefault {
			isDefault = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wf.ID, wf.Name, isDefault, strings.Join(wf.Statuses, ","))
	}
	return w.Flush()
}

// WhoamiCmd prints the user the selected credential belongs to.
type WhoamiCmd struct{}

func (wc *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	me, err := c.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch current user: %w", err)
	}

	org := "-"
	if me.OrgID != nil && *me.OrgID != uuid.Nil {
		org = me.OrgID.String()
	}
	fmt.Fprintf(globals.out(), "%s (%s) role=%s org=%s\n", me.Email, me.Name, me.Role, org)
	return nil
}
