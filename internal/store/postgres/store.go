package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL.
//
// Read-write transactions run at SERIALIZABLE isolation so that a guard check
// and the write it protects cannot interleave with a conflicting transaction.
// Transactions aborted by a serialization failure or deadlock are retried with
// exponential backoff.
type Store struct {
	pool *pgxpool.Pool
	cfg  StoreConfig
}

// NewStore creates a store on an existing pool. The store owns the pool and
// closes it on Close.
func NewStore(pool *pgxpool.Pool, cfg StoreConfig) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return &Store{pool: pool, cfg: cfg}, nil
}

// InTx runs fn in a SERIALIZABLE read-write transaction.
func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, "write", pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

// InReadTx runs fn in a read-only transaction over a single snapshot.
func (s *Store) InReadTx(ctx context.Context, fn store.TxFunc) error {
	return s.run(ctx, "read", pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) run(ctx context.Context, mode string, opts pgx.TxOptions, fn store.TxFunc) error {
	metrics := telemetry.GetMetrics()
	started := time.Now()
	attempts := 0

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitialInterval
	b.MaxInterval = s.cfg.RetryMaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := s.attempt(ctx, opts, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !isRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}

		metrics.TxRetriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
		log.Debug().Err(err).Int("attempt", attempts).Msg("Transaction conflict, retrying")
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.cfg.MaxTxAttempts))

	metrics.TxDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000,
		metric.WithAttributes(attribute.String("mode", mode)))

	if err != nil && isRetryable(err) {
		log.Warn().Err(err).Int("attempts", attempts).Msg("Transaction conflict, giving up")
		return fmt.Errorf("%w: %w", store.ErrTxConflict, err)
	}
	return err
}

// attempt runs fn once inside a fresh transaction.
func (s *Store) attempt(ctx context.Context, opts pgx.TxOptions, fn store.TxFunc) error {
	pgTx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer pgTx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if err := fn(ctx, &tx{tx: pgTx}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return fmt.Errorf("transaction closed before commit: %w", err)
		}
		return fmt.Errorf("failed to commit transaction: %w", mapPostgresError(err))
	}
	return nil
}

// tx binds the entity stores to one pgx transaction.
type tx struct {
	tx pgx.Tx
}

func (t *tx) Organizations() store.OrganizationStore { return &organizationStore{tx: t.tx} }
func (t *tx) Users() store.UserStore                 { return &userStore{tx: t.tx} }
func (t *tx) Projects() store.ProjectStore           { return &projectStore{tx: t.tx} }
func (t *tx) Workflows() store.WorkflowStore         { return &workflowStore{tx: t.tx} }
func (t *tx) Tickets() store.TicketStore             { return &ticketStore{tx: t.tx} }
func (t *tx) Epics() store.EpicStore                 { return &epicStore{tx: t.tx} }
func (t *tx) Comments() store.CommentStore           { return &commentStore{tx: t.tx} }

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, scan func(row pgx.CollectableRow) (*T, error)) ([]*T, error) {
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return items, nil
}
