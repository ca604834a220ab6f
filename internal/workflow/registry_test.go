package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/store/memory"
)

type fixture struct {
	st       *memory.Store
	registry *Registry
	org      *models.Organization
	defWF    *models.Workflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{st: memory.NewStore(), registry: NewRegistry()}
	f.org = &models.Organization{OrgID: uuid.Must(uuid.NewV7()), Name: "O1", Active: true, CreatedAt: time.Now()}

	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Organizations().Create(ctx, f.org); err != nil {
			return err
		}
		wf, err := f.registry.CreateDefault(ctx, tx, f.org.OrgID)
		f.defWF = wf
		return err
	})
	return f
}

func (f *fixture) inTx(t *testing.T, fn store.TxFunc) {
	t.Helper()
	require.NoError(t, f.st.InTx(context.Background(), fn))
}

func (f *fixture) project(t *testing.T, workflowID *uuid.UUID) *models.Project {
	t.Helper()
	p := &models.Project{ProjectID: uuid.Must(uuid.NewV7()), OrgID: f.org.OrgID, Name: "P", WorkflowID: workflowID, CreatedAt: time.Now()}
	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		return tx.Projects().Create(ctx, p)
	})
	return p
}

func (f *fixture) ticket(t *testing.T, p *models.Project, status string) *models.Ticket {
	t.Helper()
	tk := &models.Ticket{
		TicketID: uuid.Must(uuid.NewV7()), OrgID: p.OrgID, ProjectID: p.ProjectID,
		Title: "T", Status: status, Priority: models.PriorityMedium, CreatedAt: time.Now(),
	}
	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		return tx.Tickets().Create(ctx, tk)
	})
	return tk
}

func (f *fixture) create(t *testing.T, name string, statuses ...string) *models.Workflow {
	t.Helper()
	var wf *models.Workflow
	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		var err error
		wf, err = f.registry.Create(ctx, tx, f.org.OrgID, name, statuses)
		return err
	})
	return wf
}

func TestRegistry_CreateDefault(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.defWF.IsDefault)
	require.Equal(t, []string{"TODO", "IN_PROGRESS", "DONE"}, f.defWF.Statuses)

	err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := f.registry.CreateDefault(ctx, tx, f.org.OrgID)
		return err
	})
	require.ErrorIs(t, err, apperr.IntegrityConflict)
}

func TestRegistry_Create(t *testing.T) {
	f := newFixture(t)

	wf := f.create(t, "Review", "CODE_REVIEW", "QA", "DEPLOYED")
	require.False(t, wf.IsDefault)
	require.Equal(t, f.org.OrgID, wf.OrgID)

	tests := []struct {
		name     string
		wfName   string
		statuses []string
	}{
		{name: "blank name", wfName: "  ", statuses: []string{"A"}},
		{name: "no statuses", wfName: "x", statuses: nil},
		{name: "bad pattern", wfName: "x", statuses: []string{"In Progress"}},
		{name: "duplicates", wfName: "x", statuses: []string{"A", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				_, err := f.registry.Create(ctx, tx, f.org.OrgID, tt.wfName, tt.statuses)
				return err
			})
			require.ErrorIs(t, err, apperr.ValidationFailed)
		})
	}
}

func TestRegistry_Effective(t *testing.T) {
	f := newFixture(t)
	custom := f.create(t, "Review", "CODE_REVIEW", "QA")

	p1 := f.project(t, nil)
	p2 := f.project(t, &custom.WorkflowID)

	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		wf, err := f.registry.Effective(ctx, tx, p1)
		require.NoError(t, err)
		require.Equal(t, f.defWF.WorkflowID, wf.WorkflowID)

		wf, err = f.registry.Effective(ctx, tx, p2)
		require.NoError(t, err)
		require.Equal(t, custom.WorkflowID, wf.WorkflowID)
		return nil
	})
}

func TestRegistry_Update(t *testing.T) {
	t.Run("blocks removing a status in use", func(t *testing.T) {
		f := newFixture(t)
		custom := f.create(t, "Review", "CODE_REVIEW", "QA", "DEPLOYED")
		p2 := f.project(t, &custom.WorkflowID)
		t1 := f.ticket(t, p2, "QA")

		err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := f.registry.Update(ctx, tx, custom, Update{Statuses: []string{"CODE_REVIEW", "DEPLOYED"}})
			return err
		})
		require.ErrorIs(t, err, apperr.IntegrityConflict)

		appErr, ok := apperr.As(err)
		require.True(t, ok)
		require.Equal(t, []string{"QA"}, appErr.Details.BlockedStatuses)
		require.Equal(t, 1, appErr.Details.AffectedCount)
		require.Equal(t, []uuid.UUID{t1.TicketID}, appErr.Details.AffectedTickets)
	})

	t.Run("blocks removing a default status used implicitly", func(t *testing.T) {
		f := newFixture(t)
		p1 := f.project(t, nil)
		f.ticket(t, p1, "IN_PROGRESS")

		err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := f.registry.Update(ctx, tx, f.defWF, Update{Statuses: []string{"TODO", "DONE"}})
			return err
		})
		require.ErrorIs(t, err, apperr.IntegrityConflict)
	})

	t.Run("ignores tickets of other workflows", func(t *testing.T) {
		f := newFixture(t)
		custom := f.create(t, "Review", "CODE_REVIEW", "QA")
		p1 := f.project(t, nil)
		f.ticket(t, p1, "TODO")

		f.inTx(t, func(ctx context.Context, tx store.Tx) error {
			wf, err := f.registry.Update(ctx, tx, custom, Update{Statuses: []string{"QA"}})
			require.NoError(t, err)
			require.Equal(t, []string{"QA"}, wf.Statuses)
			return nil
		})
	})

	t.Run("allows adding statuses", func(t *testing.T) {
		f := newFixture(t)
		p1 := f.project(t, nil)
		f.ticket(t, p1, "TODO")

		name := "Standard"
		f.inTx(t, func(ctx context.Context, tx store.Tx) error {
			wf, err := f.registry.Update(ctx, tx, f.defWF, Update{Name: &name, Statuses: []string{"TODO", "BLOCKED", "IN_PROGRESS", "DONE"}})
			require.NoError(t, err)
			require.Equal(t, "Standard", wf.Name)
			require.True(t, wf.IsDefault)
			return nil
		})
	})

	t.Run("rejects changing the default flag", func(t *testing.T) {
		f := newFixture(t)
		off := false

		err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := f.registry.Update(ctx, tx, f.defWF, Update{IsDefault: &off})
			return err
		})
		require.ErrorIs(t, err, apperr.ValidationFailed)

		custom := f.create(t, "Review", "QA")
		on := true
		err = f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := f.registry.Update(ctx, tx, custom, Update{IsDefault: &on})
			return err
		})
		require.ErrorIs(t, err, apperr.ValidationFailed)
	})
}

func TestRegistry_Delete(t *testing.T) {
	t.Run("default workflow", func(t *testing.T) {
		f := newFixture(t)
		err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return f.registry.Delete(ctx, tx, f.defWF)
		})
		require.ErrorIs(t, err, apperr.IntegrityConflict)
	})

	t.Run("referenced workflow", func(t *testing.T) {
		f := newFixture(t)
		custom := f.create(t, "Review", "QA")
		p := f.project(t, &custom.WorkflowID)

		err := f.st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return f.registry.Delete(ctx, tx, custom)
		})
		require.ErrorIs(t, err, apperr.IntegrityConflict)
		appErr, _ := apperr.As(err)
		require.Equal(t, []uuid.UUID{p.ProjectID}, appErr.Details.Projects)
	})

	t.Run("unreferenced workflow", func(t *testing.T) {
		f := newFixture(t)
		custom := f.create(t, "Review", "QA")

		f.inTx(t, func(ctx context.Context, tx store.Tx) error {
			return f.registry.Delete(ctx, tx, custom)
		})

		err := f.st.InReadTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, err := tx.Workflows().Get(ctx, custom.WorkflowID)
			return err
		})
		require.ErrorIs(t, err, store.ErrWorkflowNotFound)
	})
}

func TestGuard_Move(t *testing.T) {
	f := newFixture(t)
	custom := f.create(t, "Review", "CODE_REVIEW", "QA", "DEPLOYED")
	p1 := f.project(t, nil)
	p2 := f.project(t, &custom.WorkflowID)
	p3 := f.project(t, nil)
	t1 := f.ticket(t, p2, "QA")
	t2 := f.ticket(t, p1, "TODO")

	guard := NewGuard(f.registry)

	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		o, target, err := guard.Move(ctx, tx, t1, p2, p1)
		require.NoError(t, err)
		require.True(t, o.Rejected)
		require.Equal(t, f.defWF.WorkflowID, target.WorkflowID)
		require.Equal(t, DefaultStatuses, o.ValidStatuses)

		o, _, err = guard.Move(ctx, tx, t2, p1, p3)
		require.NoError(t, err)
		require.False(t, o.Rejected)
		return nil
	})
}

func TestGuard_Reassignment(t *testing.T) {
	f := newFixture(t)
	custom := f.create(t, "Review", "CODE_REVIEW", "QA")
	p1 := f.project(t, nil)
	tk := f.ticket(t, p1, "TODO")

	guard := NewGuard(f.registry)
	f.inTx(t, func(ctx context.Context, tx store.Tx) error {
		o, err := guard.Reassignment(ctx, tx, p1, custom)
		require.NoError(t, err)
		require.True(t, o.Rejected)
		require.Equal(t, []uuid.UUID{tk.TicketID}, o.IncompatibleTickets)
		require.Equal(t, []string{"CODE_REVIEW", "QA"}, o.ValidStatuses)
		return nil
	})
}
