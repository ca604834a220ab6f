package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/service"
	"github.com/wolfeidau/tracker/internal/store/memory"
)

const fixtureYAML = `
super_admins:
  - email: root@tracker.test
    name: Root
    password: root-password-1
organizations:
  - name: Acme
    users:
      - email: admin@acme.test
        name: Admin
        password: admin-password-1
        role: admin
      - email: dev@acme.test
        name: Dev
        password: dev-password-1
        role: write_access
    workflows:
      - name: Support
        statuses: [NEW, TRIAGED, CLOSED]
    projects:
      - name: Website
        tickets:
          - title: Fix header
            reporter: admin@acme.test
            assignee: dev@acme.test
            priority: high
      - name: Helpdesk
        workflow: Support
        tickets:
          - title: Printer on fire
            status: TRIAGED
`

func newService(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.New(memory.NewStore(), service.Config{PasswordCost: 4})
	require.NoError(t, err)
	return svc
}

func TestParse(t *testing.T) {
	fixtures, err := Parse([]byte(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, fixtures.SuperAdmins, 1)
	require.Len(t, fixtures.Organizations, 1)
	require.Equal(t, models.RoleWriteAccess, fixtures.Organizations[0].Users[1].Role)

	_, err = Parse([]byte("organisations: []\n"))
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	fixtures, err := Parse([]byte(fixtureYAML))
	require.NoError(t, err)

	result, err := Apply(ctx, svc, fixtures)
	require.NoError(t, err)
	require.Equal(t, &Result{Organizations: 1, Users: 3, Workflows: 1, Projects: 2, Tickets: 2}, result)

	system := auth.WithActor(ctx, auth.SystemActor())
	tickets, err := svc.ListTickets(system, service.ListTicketsInput{})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	statuses := map[string]string{}
	for _, ticket := range tickets {
		statuses[ticket.Title] = ticket.Status
	}
	require.Equal(t, map[string]string{"Fix header": "TODO", "Printer on fire": "TRIAGED"}, statuses)

	t.Run("reapplying skips existing data", func(t *testing.T) {
		result, err := Apply(ctx, svc, fixtures)
		require.NoError(t, err)
		require.Equal(t, &Result{}, result)
	})
}

func TestApplyRejectsInvalidStatus(t *testing.T) {
	svc := newService(t)

	fixtures := &Fixtures{Organizations: []Organization{{
		Name:     "Broken",
		Projects: []Project{{Name: "p", Tickets: []Ticket{{Title: "t", Status: "NOPE"}}}},
	}}}

	_, err := Apply(context.Background(), svc, fixtures)
	require.ErrorIs(t, err, apperr.ValidationFailed)
}
