//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) *Store {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))
	// a second run is a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	st, err := NewStore(pool, StoreConfig{})
	require.NoError(t, err)

	t.Cleanup(func() {
		st.Close()
		_ = container.Terminate(context.Background())
	})

	return st
}

func newOrgWithDefault(t *testing.T, ctx context.Context, st *Store) (*models.Organization, *models.Workflow) {
	t.Helper()

	now := time.Now()
	org := &models.Organization{OrgID: uuid.Must(uuid.NewV7()), Name: "acme", Active: true, CreatedAt: now, UpdatedAt: now}
	wf := &models.Workflow{
		WorkflowID: uuid.Must(uuid.NewV7()),
		OrgID:      org.OrgID,
		Name:       "Default",
		Statuses:   []string{"TODO", "IN_PROGRESS", "DONE"},
		IsDefault:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Organizations().Create(ctx, org); err != nil {
			return err
		}
		return tx.Workflows().Create(ctx, wf)
	})
	require.NoError(t, err)

	return org, wf
}

func TestIntegration_Store(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)

	org, def := newOrgWithDefault(t, ctx, st)

	t.Run("second default workflow is rejected", func(t *testing.T) {
		err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.Workflows().Create(ctx, &models.Workflow{
				WorkflowID: uuid.Must(uuid.NewV7()),
				OrgID:      org.OrgID,
				Name:       "Another",
				Statuses:   []string{"OPEN"},
				IsDefault:  true,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			})
		})
		require.ErrorIs(t, err, store.ErrDefaultWorkflowExists)
	})

	t.Run("email is unique ignoring case", func(t *testing.T) {
		newUser := func(email string) *models.User {
			return &models.User{
				UserID: uuid.Must(uuid.NewV7()), OrgID: &org.OrgID, Email: email, Name: "jane",
				PasswordHash: "x", Role: models.RoleAdmin, Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}
		}
		err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.Users().Create(ctx, newUser("jane@example.com"))
		})
		require.NoError(t, err)

		err = st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.Users().Create(ctx, newUser("JANE@example.com"))
		})
		require.ErrorIs(t, err, store.ErrUserAlreadyExists)
	})

	t.Run("failed transaction leaves no partial write", func(t *testing.T) {
		project := &models.Project{ProjectID: uuid.Must(uuid.NewV7()), OrgID: org.OrgID, Name: "ghost", CreatedAt: time.Now(), UpdatedAt: time.Now()}

		err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.Projects().Create(ctx, project); err != nil {
				return err
			}
			return tx.Tickets().Create(ctx, &models.Ticket{
				TicketID:  uuid.Must(uuid.NewV7()),
				OrgID:     org.OrgID,
				ProjectID: uuid.Must(uuid.NewV7()),
				Title:     "orphan",
				Status:    "TODO",
				Priority:  models.PriorityMedium,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
		})
		require.ErrorIs(t, err, store.ErrProjectNotFound)

		err = st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
			_, err := tx.Projects().Get(ctx, project.ProjectID)
			return err
		})
		require.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("projects and tickets round trip", func(t *testing.T) {
		project := &models.Project{ProjectID: uuid.Must(uuid.NewV7()), OrgID: org.OrgID, Name: "alpha", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		ticket := &models.Ticket{
			TicketID:   uuid.Must(uuid.NewV7()),
			OrgID:      org.OrgID,
			ProjectID:  project.ProjectID,
			Title:      "first",
			Status:     "IN_PROGRESS",
			Priority:   models.PriorityHigh,
			ReporterID: uuid.Must(uuid.NewV7()),
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		err := st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.Projects().Create(ctx, project); err != nil {
				return err
			}
			return tx.Tickets().Create(ctx, ticket)
		})
		require.NoError(t, err)

		err = st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
			usingDefault, err := tx.Projects().ListUsingDefault(ctx, org.OrgID)
			require.NoError(t, err)
			require.Len(t, usingDefault, 1)

			tickets, err := tx.Tickets().ListByProjects(ctx, []uuid.UUID{project.ProjectID})
			require.NoError(t, err)
			require.Len(t, tickets, 1)
			require.Equal(t, "IN_PROGRESS", tickets[0].Status)

			filtered, err := tx.Tickets().List(ctx, store.ListTicketsOptions{OrgID: &org.OrgID, Status: "DONE"})
			require.NoError(t, err)
			require.Empty(t, filtered)

			got, err := tx.Workflows().GetDefault(ctx, org.OrgID)
			require.NoError(t, err)
			require.Equal(t, def.Statuses, got.Statuses)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("read transaction rejects writes", func(t *testing.T) {
		err := st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
			org.Name = "renamed"
			return tx.Organizations().Update(ctx, org)
		})
		require.Error(t, err)
	})
}

// Concurrent read-modify-write transactions on the same row must serialize:
// every increment is kept, retried on conflict rather than lost.
func TestIntegration_SerializableRetry(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)

	_, def := newOrgWithDefault(t, ctx, st)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
				wf, err := tx.Workflows().Get(ctx, def.WorkflowID)
				if err != nil {
					return err
				}
				wf.Statuses = append(wf.Statuses, fmt.Sprintf("S%d", i))
				return tx.Workflows().Update(ctx, wf)
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, store.ErrTxConflict)
	}

	err := st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
		wf, err := tx.Workflows().Get(ctx, def.WorkflowID)
		require.NoError(t, err)
		require.Len(t, wf.Statuses, len(def.Statuses)+succeeded)
		return nil
	})
	require.NoError(t, err)
}
