package store

import (
	"context"
	"errors"
)

// ErrTxConflict is returned when a transaction could not be committed because
// of concurrent conflicting writes, after all retries were exhausted.
var ErrTxConflict = errors.New("transaction conflict")

// Tx exposes the entity stores bound to a single transaction. Every read and
// write made through a Tx observes and commits atomically.
type Tx interface {
	Organizations() OrganizationStore
	Users() UserStore
	Projects() ProjectStore
	Workflows() WorkflowStore
	Tickets() TicketStore
	Epics() EpicStore
	Comments() CommentStore
}

// TxFunc is the body of a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transactional boundary of the persistence layer.
//
// A mutation that reads state, decides, and writes must run inside a single
// InTx call so that concurrent conflicting mutations are serialized by the
// store rather than interleaved.
type Store interface {
	// InTx runs fn in a read-write transaction. The transaction commits if fn
	// returns nil and rolls back otherwise. Implementations may run fn more than
	// once when retrying a serialization conflict, so fn must not have side
	// effects outside tx.
	InTx(ctx context.Context, fn TxFunc) error

	// InReadTx runs fn in a read-only transaction with a consistent snapshot.
	InReadTx(ctx context.Context, fn TxFunc) error

	// Close releases any resources held by the store.
	Close()
}
