package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/tracker/internal/store"
)

// uniqueConstraints maps unique constraints and indexes to sentinel errors.
var uniqueConstraints = map[string]error{
	"organizations_pkey":            store.ErrOrganizationAlreadyExists,
	"users_pkey":                    store.ErrUserAlreadyExists,
	"users_email_key":               store.ErrUserAlreadyExists,
	"workflows_one_default_per_org": store.ErrDefaultWorkflowExists,
}

// foreignKeys maps foreign key constraints to the sentinel for the missing
// referenced row.
var foreignKeys = map[string]error{
	"users_org_id_fkey":         store.ErrOrganizationNotFound,
	"workflows_org_id_fkey":     store.ErrOrganizationNotFound,
	"projects_org_id_fkey":      store.ErrOrganizationNotFound,
	"projects_workflow_id_fkey": store.ErrWorkflowNotFound,
	"epics_project_id_fkey":     store.ErrProjectNotFound,
	"tickets_project_id_fkey":   store.ErrProjectNotFound,
	"tickets_epic_id_fkey":      store.ErrEpicNotFound,
	"tickets_assignee_id_fkey":  store.ErrUserNotFound,
	"comments_ticket_id_fkey":   store.ErrTicketNotFound,
}

// mapPostgresError maps PostgreSQL-specific errors to sentinel errors.
// Returns the original error if it's not a PostgreSQL error or doesn't match known patterns.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if sentinel, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return sentinel
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ForeignKeyViolation:
		if sentinel, ok := foreignKeys[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %s", sentinel, pgErr.Detail)
		}
		return fmt.Errorf("foreign key violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.CheckViolation:
		return fmt.Errorf("check constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		// kept as is so isRetryable still matches after wrapping
		return fmt.Errorf("transaction conflict (retryable): %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown:
		return fmt.Errorf("database server unavailable: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	case pgerrcode.InsufficientResources,
		pgerrcode.DiskFull,
		pgerrcode.OutOfMemory,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("database resource limit: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s, hint: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, pgErr.Hint, err)
	}
}

// isRetryable reports whether err aborted the transaction because of a
// concurrent conflicting transaction.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
