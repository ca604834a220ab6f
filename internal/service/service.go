// Package service implements the tracker operations consumed by the HTTP
// handlers. Every operation authorizes the actor carried by the context,
// runs its reads, integrity checks and writes in a single store transaction,
// and returns either the resulting entity or an *apperr.Error.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/workflow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/tracker/internal/service"

// Config holds service settings.
type Config struct {
	// PasswordCost is the bcrypt cost for new password hashes.
	PasswordCost int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.PasswordCost == 0 {
		c.PasswordCost = auth.DefaultPasswordCost
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PasswordCost < 4 || c.PasswordCost > 31 {
		return fmt.Errorf("password cost must be between 4 and 31, got %d", c.PasswordCost)
	}
	return nil
}

// Service implements every tracker operation on top of a transactional store.
type Service struct {
	store    store.Store
	registry *workflow.Registry
	guard    *workflow.Guard
	cfg      Config
	tracer   trace.Tracer
	now      func() time.Time

	// dummyHash is compared against when no stored hash exists, so failed
	// logins cost one bcrypt comparison whether or not the email is known.
	dummyHash     string
	checkPassword func(hash, password string) bool
}

// New creates a service backed by st.
func New(st store.Store, cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}

	dummyHash, err := auth.HashPassword(uuid.NewString(), cfg.PasswordCost)
	if err != nil {
		return nil, err
	}

	registry := workflow.NewRegistry()

	return &Service{
		store:         st,
		registry:      registry,
		guard:         workflow.NewGuard(registry),
		cfg:           cfg,
		tracer:        otel.Tracer(tracerName),
		now:           time.Now,
		dummyHash:     dummyHash,
		checkPassword: auth.CheckPassword,
	}, nil
}

// write runs fn in a read-write transaction inside a span named op.
func (s *Service) write(ctx context.Context, op string, fn store.TxFunc) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	return endSpan(span, s.store.InTx(ctx, fn))
}

// read runs fn in a read-only transaction inside a span named op.
func (s *Service) read(ctx context.Context, op string, fn store.TxFunc) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	return endSpan(span, s.store.InReadTx(ctx, fn))
}

func endSpan(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	err = mapStoreError(err)
	span.SetAttributes(attribute.String("error.kind", apperr.KindOf(err).String()))
	if apperr.KindOf(err) == apperr.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// mapStoreError converts store sentinel errors that escape an operation into
// apperr kinds. Errors that are already *apperr.Error pass through.
func mapStoreError(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, store.ErrOrganizationNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, store.ErrWorkflowNotFound),
		errors.Is(err, store.ErrTicketNotFound),
		errors.Is(err, store.ErrEpicNotFound),
		errors.Is(err, store.ErrCommentNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "%s", rootMessage(err))
	case errors.Is(err, store.ErrUserAlreadyExists):
		return apperr.Wrap(apperr.KindIntegrityConflict, err, "email address is already registered")
	case errors.Is(err, store.ErrOrganizationAlreadyExists):
		return apperr.Wrap(apperr.KindIntegrityConflict, err, "organization already exists")
	case errors.Is(err, store.ErrDefaultWorkflowExists):
		return apperr.Wrap(apperr.KindIntegrityConflict, err, "organization already has a default workflow")
	case errors.Is(err, store.ErrTxConflict):
		return apperr.Wrap(apperr.KindIntegrityConflict, err, "concurrent update, retry the request")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	return apperr.Wrap(apperr.KindInternal, err, "internal error")
}

// rootMessage returns the innermost error message, which for store errors is
// the sentinel text such as "ticket not found".
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// precheck verifies the actor is authenticated, active and holds action
// before any state is read.
func precheck(ctx context.Context, action auth.Action, kind auth.ResourceKind) (*auth.Actor, error) {
	if err := auth.Require(ctx, action, auth.Collection(kind)); err != nil {
		return nil, err
	}
	return auth.ActorFromContext(ctx), nil
}

// targetOrg resolves the organization a create operation applies to. Actors
// bound to an organization default to it; super admins must name one.
func targetOrg(actor *auth.Actor, orgID *uuid.UUID) (uuid.UUID, error) {
	if orgID != nil {
		return *orgID, nil
	}
	if actor.OrgID != nil {
		return *actor.OrgID, nil
	}
	return uuid.Nil, apperr.New(apperr.KindValidationFailed, "organization id is required")
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.New(apperr.KindValidationFailed, "%s is required", field)
	}
	return value, nil
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
