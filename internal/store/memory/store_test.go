package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func seedOrg(t *testing.T, st *Store) *models.Organization {
	t.Helper()
	org := &models.Organization{
		OrgID:     uuid.Must(uuid.NewV7()),
		Name:      "acme",
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Organizations().Create(ctx, org)
	})
	require.NoError(t, err)
	return org
}

func TestNewStore(t *testing.T) {
	st := NewStore()
	require.NotNil(t, st)
}

func TestStore_InTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		st := NewStore()
		org := seedOrg(t, st)

		err := st.InReadTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			got, err := tx.Organizations().Get(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, "acme", got.Name)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		st := NewStore()
		org := seedOrg(t, st)
		boom := errors.New("boom")

		err := st.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			org.Name = "renamed"
			require.NoError(t, tx.Organizations().Update(ctx, org))
			require.NoError(t, tx.Projects().Create(ctx, &models.Project{
				ProjectID: uuid.Must(uuid.NewV7()),
				OrgID:     org.OrgID,
				Name:      "p1",
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		err = st.InReadTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			got, err := tx.Organizations().Get(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, "acme", got.Name)

			projects, err := tx.Projects().List(ctx, nil)
			require.NoError(t, err)
			require.Empty(t, projects)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("cancelled context does not commit", func(t *testing.T) {
		st := NewStore()
		org := seedOrg(t, st)

		ctx, cancel := context.WithCancel(context.Background())
		err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			org.Name = "renamed"
			require.NoError(t, tx.Organizations().Update(ctx, org))
			cancel()
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)

		err = st.InReadTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			got, err := tx.Organizations().Get(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, "acme", got.Name)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("read transaction rejects writes", func(t *testing.T) {
		st := NewStore()

		err := st.InReadTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			return tx.Organizations().Create(ctx, &models.Organization{OrgID: uuid.Must(uuid.NewV7())})
		})
		require.ErrorIs(t, err, errReadOnly)
	})
}

func TestWorkflowStore_DefaultIsUniquePerOrganization(t *testing.T) {
	st := NewStore()
	org := seedOrg(t, st)
	ctx := context.Background()

	newDefault := func() *models.Workflow {
		return &models.Workflow{
			WorkflowID: uuid.Must(uuid.NewV7()),
			OrgID:      org.OrgID,
			Name:       "Default",
			Statuses:   []string{"TODO", "DONE"},
			IsDefault:  true,
		}
	}

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Workflows().Create(ctx, newDefault())
	})
	require.NoError(t, err)

	err = st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Workflows().Create(ctx, newDefault())
	})
	require.Equal(t, store.ErrDefaultWorkflowExists, err)
}

func TestWorkflowStore_UpdateKeepsDefaultFlag(t *testing.T) {
	st := NewStore()
	org := seedOrg(t, st)
	ctx := context.Background()

	wf := &models.Workflow{
		WorkflowID: uuid.Must(uuid.NewV7()),
		OrgID:      org.OrgID,
		Name:       "Default",
		Statuses:   []string{"TODO", "DONE"},
		IsDefault:  true,
	}

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Workflows().Create(ctx, wf); err != nil {
			return err
		}
		wf.IsDefault = false
		wf.Statuses = append(wf.Statuses, "BLOCKED")
		return tx.Workflows().Update(ctx, wf)
	})
	require.NoError(t, err)

	err = st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Workflows().GetDefault(ctx, org.OrgID)
		require.NoError(t, err)
		require.True(t, got.IsDefault)
		require.Equal(t, []string{"TODO", "DONE", "BLOCKED"}, got.Statuses)
		return nil
	})
	require.NoError(t, err)
}

func TestProjectStore_WorkflowBindings(t *testing.T) {
	st := NewStore()
	org := seedOrg(t, st)
	ctx := context.Background()

	wf := &models.Workflow{
		WorkflowID: uuid.Must(uuid.NewV7()),
		OrgID:      org.OrgID,
		Name:       "Custom",
		Statuses:   []string{"QA"},
	}
	bound := &models.Project{ProjectID: uuid.Must(uuid.NewV7()), OrgID: org.OrgID, Name: "bound", WorkflowID: &wf.WorkflowID}
	unbound := &models.Project{ProjectID: uuid.Must(uuid.NewV7()), OrgID: org.OrgID, Name: "unbound"}

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Workflows().Create(ctx, wf))
		require.NoError(t, tx.Projects().Create(ctx, bound))
		return tx.Projects().Create(ctx, unbound)
	})
	require.NoError(t, err)

	err = st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
		byWorkflow, err := tx.Projects().ListByWorkflow(ctx, wf.WorkflowID)
		require.NoError(t, err)
		require.Len(t, byWorkflow, 1)
		require.Equal(t, bound.ProjectID, byWorkflow[0].ProjectID)

		usingDefault, err := tx.Projects().ListUsingDefault(ctx, org.OrgID)
		require.NoError(t, err)
		require.Len(t, usingDefault, 1)
		require.Equal(t, unbound.ProjectID, usingDefault[0].ProjectID)
		return nil
	})
	require.NoError(t, err)
}

func TestUserStore_EmailIsUnique(t *testing.T) {
	st := NewStore()
	org := seedOrg(t, st)
	ctx := context.Background()

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.Users().Create(ctx, &models.User{
			UserID: uuid.Must(uuid.NewV7()), OrgID: &org.OrgID, Email: "jane@example.com", Role: models.RoleAdmin,
		}))
		return tx.Users().Create(ctx, &models.User{
			UserID: uuid.Must(uuid.NewV7()), OrgID: &org.OrgID, Email: "JANE@example.com", Role: models.RoleReadAccess,
		})
	})
	require.Equal(t, store.ErrUserAlreadyExists, err)
}
