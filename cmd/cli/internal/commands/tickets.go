package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/tracker/internal/client"
)

// TicketsCmd works with tickets.
type TicketsCmd struct {
	List   TicketsListCmd   `cmd:"" help:"List tickets"`
	Status TicketsStatusCmd `cmd:"" help:"Change a ticket's status"`
	Move   TicketsMoveCmd   `cmd:"" help:"Move a ticket to another project"`
}

type TicketsListCmd struct {
	Project  string        `help:"Project ID to filter by"`
	Status   string        `help:"Status to filter by"`
	Assignee string        `help:"Assignee user ID to filter by"`
	Watch    bool          `help:"Watch for changes" default:"false"`
	Interval time.Duration `help:"Refresh interval when watching" default:"5s"`
}

func (l *TicketsListCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	projectID, err := parseOptionalID("project", l.Project)
	if err != nil {
		return err
	}
	assigneeID, err := parseOptionalID("assignee", l.Assignee)
	if err != nil {
		return err
	}
	filter := client.TicketFilter{ProjectID: projectID, Status: strings.ToUpper(l.Status), AssigneeID: assigneeID}

	if l.Watch {
		return l.watchTickets(ctx, globals.out(), c, filter)
	}

	return l.listTickets(ctx, globals.out(), c, filter)
}

func (l *TicketsListCmd) listTickets(ctx context.Context, out io.Writer, c *client.Client, filter client.TicketFilter) error {
	tickets, err := c.ListTickets(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	printTickets(out, tickets)
	return nil
}

func (l *TicketsListCmd) watchTickets(ctx context.Context, out io.Writer, c *client.Client, filter client.TicketFilter) error {
	fmt.Fprintln(out, "Watching tickets (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	if err := l.listTickets(ctx, out, c, filter); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprint(out, "\033[2J\033[H") // clear screen and move cursor to top
			fmt.Fprintf(out, "Tickets (updated at %s)\n\n", time.Now().Format("15:04:05"))

			if err := l.listTickets(ctx, out, c, filter); err != nil {
				fmt.Fprintf(out, "Error updating ticket list: %v\n", err)
			}
		}
	}
}

func printTickets(out io.Writer, tickets []client.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(out, "No tickets found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKET ID\tPROJECT\tSTATUS\tPRIORITY\tASSIGNEE\tTITLE")
	for _, t := range tickets {
		title := t.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, shortID(&t.ProjectID), t.Status, t.Priority, shortID(t.AssigneeID), title)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal tickets: %d\n", len(tickets))
}

type TicketsStatusCmd struct {
	ID     string `arg:"" help:"Ticket ID"`
	Status string `arg:"" help:"New status"`
}

func (s *TicketsStatusCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	ticketID, err := parseID("ticket", s.ID)
	if err != nil {
		return err
	}

	ticket, err := c.SetTicketStatus(ctx, ticketID, strings.ToUpper(s.Status))
	if err != nil {
		return describe("failed to change status", err)
	}

	fmt.Fprintf(globals.out(), "Ticket %s is now %s.\n", ticket.ID, ticket.Status)
	return nil
}

type TicketsMoveCmd struct {
	ID      string `arg:"" help:"Ticket ID"`
	Project string `arg:"" help:"Destination project ID"`
}

func (m *TicketsMoveCmd) Run(ctx context.Context, globals *Globals) error {
	c, err := globals.client()
	if err != nil {
		return err
	}

	ticketID, err := parseID("ticket", m.ID)
	if err != nil {
		return err
	}
	projectID, err := parseID("project", m.Project)
	if err != nil {
		return err
	}

	ticket, err := c.MoveTicket(ctx, ticketID, projectID)
	if err != nil {
		return describe("failed to move ticket", err)
	}

	fmt.Fprintf(globals.out(), "Ticket %s moved to project %s with status %s.\n", ticket.ID, ticket.ProjectID, ticket.Status)
	return nil
}

// describe appends the actionable parts of an API error, such as the
// statuses a ticket may take, to the error message.
func describe(msg string, err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	var details strings.Builder
	for _, key := range []string{"valid_statuses", "blocked_statuses", "hint"} {
		if v, ok := apiErr.Details[key]; ok {
			fmt.Fprintf(&details, "\n  %s: %v", strings.ReplaceAll(key, "_", " "), v)
		}
	}
	return fmt.Errorf("%s: %w%s", msg, err, details.String())
}
