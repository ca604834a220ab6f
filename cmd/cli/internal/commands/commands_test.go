package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/cmd/cli/internal/credentials"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/client"
	"github.com/wolfeidau/tracker/internal/seed"
	"github.com/wolfeidau/tracker/internal/server"
	"github.com/wolfeidau/tracker/internal/service"
	"github.com/wolfeidau/tracker/internal/store/memory"
)

const fixtures = `
organizations:
  - name: Acme
    users:
      - email: pm@acme.test
        name: PM
        password: pm-password-1
        role: project_manager
    workflows:
      - name: Support
        statuses: [NEW, CLOSED]
    projects:
      - name: Website
        tickets:
          - title: Fix header
            reporter: pm@acme.test
      - name: Helpdesk
        workflow: Support
`

func newGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &Globals{CredentialsDir: t.TempDir(), Out: out}, out
}

func newServer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	svc, err := service.New(memory.NewStore(), service.Config{PasswordCost: 4})
	require.NoError(t, err)

	f, err := seed.Parse([]byte(fixtures))
	require.NoError(t, err)
	_, err = seed.Apply(ctx, svc, f)
	require.NoError(t, err)

	privatePEM, _, err := auth.GenerateSigningKey()
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(privatePEM, auth.DefaultIssuer, time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(server.New(svc, issuer, server.Config{Logger: zerolog.Nop()}).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCredentialsListCmd(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		globals, out := newGlobals(t)
		require.NoError(t, (&CredentialsListCmd{}).Run(context.Background(), globals))
		assert.Contains(t, out.String(), "No credentials found.")
	})

	t.Run("marks default and expired credentials", func(t *testing.T) {
		globals, out := newGlobals(t)
		store, err := globals.store()
		require.NoError(t, err)

		_, err = store.Save(credentials.Credential{Name: "work", Email: "a@b.test", Token: "secret-token-value", ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		_, err = store.Save(credentials.Credential{Name: "old", Email: "c@d.test", Token: "t2", ExpiresAt: time.Now().Add(-time.Hour)})
		require.NoError(t, err)

		require.NoError(t, (&CredentialsListCmd{}).Run(context.Background(), globals))
		assert.Contains(t, out.String(), "expired")
		assert.Contains(t, out.String(), "*")
		assert.NotContains(t, out.String(), "secret-token-value")
	})
}

func TestCredentialsCmds_NotFound(t *testing.T) {
	tests := []struct {
		name string
		cmd  interface {
			Run(context.Context, *Globals) error
		}
	}{
		{name: "show", cmd: &CredentialsShowCmd{Name: "missing"}},
		{name: "delete", cmd: &CredentialsDeleteCmd{Name: "missing"}},
		{name: "set-default", cmd: &CredentialsSetDefaultCmd{Name: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			globals, _ := newGlobals(t)
			err := tt.cmd.Run(context.Background(), globals)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not found")
		})
	}
}

func TestTicketsCmd_RequiresLogin(t *testing.T) {
	globals, _ := newGlobals(t)
	err := (&TicketsListCmd{}).Run(context.Background(), globals)
	require.ErrorIs(t, err, credentials.ErrNoDefaultCredential)
}

func TestLoginAndTicketCommands(t *testing.T) {
	ctx := context.Background()
	url := newServer(t)
	globals, out := newGlobals(t)

	login := &LoginCmd{Email: "pm@acme.test", Server: url, Name: "default", Password: "pm-password-1"}
	require.NoError(t, login.Run(ctx, globals))
	require.Contains(t, out.String(), "Logged in as pm@acme.test (project_manager)")

	c, err := globals.client()
	require.NoError(t, err)
	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	website, helpdesk := projects[0], projects[1]

	tickets, err := c.ListTickets(ctx, client.TicketFilter{ProjectID: &website.ID})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	ticketID := tickets[0].ID.String()

	t.Run("projects show resolved workflows", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&ProjectsCmd{}).Run(ctx, globals))
		assert.Contains(t, out.String(), "Default (org default)")
		assert.Contains(t, out.String(), "NEW,CLOSED")
	})

	t.Run("tickets list", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&TicketsListCmd{Status: "todo"}).Run(ctx, globals))
		assert.Contains(t, out.String(), "Fix header")
		assert.Contains(t, out.String(), "Total tickets: 1")
	})

	t.Run("invalid status lists valid statuses", func(t *testing.T) {
		err := (&TicketsStatusCmd{ID: ticketID, Status: "closed"}).Run(ctx, globals)
		require.Error(t, err)
		assert.True(t, client.IsKind(err, "validation_failed"))
		assert.Contains(t, err.Error(), "valid statuses: [TODO IN_PROGRESS DONE]")
	})

	t.Run("incompatible move is rejected", func(t *testing.T) {
		err := (&TicketsMoveCmd{ID: ticketID, Project: helpdesk.ID.String()}).Run(ctx, globals)
		require.Error(t, err)
		assert.True(t, client.IsKind(err, "integrity_conflict"))
	})

	t.Run("status change", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&TicketsStatusCmd{ID: ticketID, Status: "in_progress"}).Run(ctx, globals))
		assert.Contains(t, out.String(), "is now IN_PROGRESS")
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		err := (&TicketsMoveCmd{ID: "nope", Project: helpdesk.ID.String()}).Run(ctx, globals)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid ticket")
	})
}
