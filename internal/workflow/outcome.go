package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome is the result of an integrity check. The zero value allows the change.
type Outcome struct {
	Rejected bool
	Kind     apperr.Kind
	Message  string

	ValidStatuses       []string
	BlockedStatuses     []string
	AffectedCount       int
	AffectedTickets     []uuid.UUID
	IncompatibleTickets []uuid.UUID
	Projects            []uuid.UUID
	Hint                string
}

// Allowed returns an outcome permitting the change.
func Allowed() Outcome {
	return Outcome{}
}

func rejected(kind apperr.Kind, message string) Outcome {
	return Outcome{Rejected: true, Kind: kind, Message: message}
}

// Err returns nil when the outcome allows the change, otherwise an
// *apperr.Error carrying the rejection payload.
func (o Outcome) Err() error {
	if !o.Rejected {
		return nil
	}
	err := apperr.New(o.Kind, "%s", o.Message)
	d := apperr.Details{
		ValidStatuses:       o.ValidStatuses,
		BlockedStatuses:     o.BlockedStatuses,
		AffectedCount:       o.AffectedCount,
		AffectedTickets:     o.AffectedTickets,
		IncompatibleTickets: o.IncompatibleTickets,
		Projects:            o.Projects,
		Hint:                o.Hint,
	}
	if !d.Empty() {
		err = err.WithDetails(d)
	}
	return err
}

// observe counts rejections per check.
func observe(ctx context.Context, check string, o Outcome) Outcome {
	if o.Rejected {
		telemetry.GetMetrics().GuardRejectionsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("check", check)))
	}
	return o
}
