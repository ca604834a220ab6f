package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

var _ store.Store = (*Store)(nil)

// Store implements store.Store using in-memory maps.
// This implementation is for testing and development only - data is lost on restart.
//
// Write transactions are serialized by a single lock and operate on a
// copy of the dataset which replaces the live one only on commit, so a failed
// transaction leaves no partial mutation behind.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// InTx runs fn against a private copy of the dataset and commits it if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	if err := fn(ctx, &tx{data: working}); err != nil {
		return err
	}

	// A cancelled request must not commit.
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = working
	return nil
}

// InReadTx runs fn against the live dataset with writes disabled.
func (s *Store) InReadTx(ctx context.Context, fn store.TxFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, &tx{data: s.data, readOnly: true})
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}

// dataset holds every entity keyed by ID. Stored values are never mutated in
// place, which makes a shallow copy of the maps a consistent snapshot.
type dataset struct {
	organizations map[uuid.UUID]*models.Organization
	users         map[uuid.UUID]*models.User
	projects      map[uuid.UUID]*models.Project
	workflows     map[uuid.UUID]*models.Workflow
	tickets       map[uuid.UUID]*models.Ticket
	epics         map[uuid.UUID]*models.Epic
	comments      map[uuid.UUID]*models.Comment
}

func newDataset() *dataset {
	return &dataset{
		organizations: make(map[uuid.UUID]*models.Organization),
		users:         make(map[uuid.UUID]*models.User),
		projects:      make(map[uuid.UUID]*models.Project),
		workflows:     make(map[uuid.UUID]*models.Workflow),
		tickets:       make(map[uuid.UUID]*models.Ticket),
		epics:         make(map[uuid.UUID]*models.Epic),
		comments:      make(map[uuid.UUID]*models.Comment),
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		organizations: maps.Clone(d.organizations),
		users:         maps.Clone(d.users),
		projects:      maps.Clone(d.projects),
		workflows:     maps.Clone(d.workflows),
		tickets:       maps.Clone(d.tickets),
		epics:         maps.Clone(d.epics),
		comments:      maps.Clone(d.comments),
	}
}

type tx struct {
	data     *dataset
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) Organizations() store.OrganizationStore { return &organizationStore{tx: t} }
func (t *tx) Users() store.UserStore                 { return &userStore{tx: t} }
func (t *tx) Projects() store.ProjectStore           { return &projectStore{tx: t} }
func (t *tx) Workflows() store.WorkflowStore         { return &workflowStore{tx: t} }
func (t *tx) Tickets() store.TicketStore             { return &ticketStore{tx: t} }
func (t *tx) Epics() store.EpicStore                 { return &epicStore{tx: t} }
func (t *tx) Comments() store.CommentStore           { return &commentStore{tx: t} }

// sortByCreated orders entities by creation time, breaking ties on ID.
func sortByCreated[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	slices.SortFunc(items, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return strings.Compare(ia.String(), ib.String())
	})
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
