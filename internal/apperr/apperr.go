// Package apperr defines the error kinds surfaced by the tracker core.
//
// Every rejection returned to a caller is an *Error carrying a Kind, a human
// readable message and, for validation and integrity failures, the details a
// caller needs to correct the request (valid statuses, affected tickets, ...).
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies an error independently of the transport.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindAccountInactive
	KindPermissionDenied
	KindTenantMismatch
	KindNotFound
	KindValidationFailed
	KindIntegrityConflict
)

var kindNames = map[Kind]string{
	KindInternal:          "internal",
	KindUnauthenticated:   "unauthenticated",
	KindAccountInactive:   "account_inactive",
	KindPermissionDenied:  "permission_denied",
	KindTenantMismatch:    "tenant_mismatch",
	KindNotFound:          "not_found",
	KindValidationFailed:  "validation_failed",
	KindIntegrityConflict: "integrity_conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Details is the actionable payload attached to validation and integrity errors.
type Details struct {
	ValidStatuses       []string    `json:"valid_statuses,omitempty"`
	BlockedStatuses     []string    `json:"blocked_statuses,omitempty"`
	AffectedCount       int         `json:"affected_count,omitempty"`
	AffectedTickets     []uuid.UUID `json:"affected_tickets,omitempty"`
	IncompatibleTickets []uuid.UUID `json:"incompatible_tickets,omitempty"`
	Projects            []uuid.UUID `json:"projects,omitempty"`
	Hint                string      `json:"hint,omitempty"`
}

// Empty reports whether no detail field is set.
func (d *Details) Empty() bool {
	return d == nil || (len(d.ValidStatuses) == 0 &&
		len(d.BlockedStatuses) == 0 &&
		d.AffectedCount == 0 &&
		len(d.AffectedTickets) == 0 &&
		len(d.IncompatibleTickets) == 0 &&
		len(d.Projects) == 0 &&
		d.Hint == "")
}

// Error is the structured error type returned by the core.
type Error struct {
	Kind    Kind
	Message string
	Details *Details
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, apperr.NotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind-only targets for errors.Is.
var (
	Unauthenticated   = &Error{Kind: KindUnauthenticated}
	AccountInactive   = &Error{Kind: KindAccountInactive}
	PermissionDenied  = &Error{Kind: KindPermissionDenied}
	TenantMismatch    = &Error{Kind: KindTenantMismatch}
	NotFound          = &Error{Kind: KindNotFound}
	ValidationFailed  = &Error{Kind: KindValidationFailed}
	IntegrityConflict = &Error{Kind: KindIntegrityConflict}
)

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetails attaches details and returns the same error.
func (e *Error) WithDetails(d Details) *Error {
	e.Details = &d
	return e
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
