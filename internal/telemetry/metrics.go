package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	meterName = "github.com/wolfeidau/tracker"

	txDurationName = "tracker.store.tx.duration"
)

// txDurationBuckets are in milliseconds. Serializable transactions that
// retry land in the upper buckets.
var txDurationBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Views returns the meter provider options shaping tracker instruments.
func Views() []sdkmetric.Option {
	return []sdkmetric.Option{
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: txDurationName},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: txDurationBuckets}},
		)),
	}
}

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Authorization metrics
	AuthzDecisionsTotal metric.Int64Counter
	LoginAttemptsTotal  metric.Int64Counter

	// Workflow integrity metrics
	GuardRejectionsTotal metric.Int64Counter
	TicketMovesTotal     metric.Int64Counter

	// Store metrics
	TxRetriesTotal metric.Int64Counter
	TxDuration     metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = newMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

// newMetrics creates all metric instruments on meter
func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.AuthzDecisionsTotal, _ = meter.Int64Counter(
		"tracker.authz.decisions.total",
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)

	m.LoginAttemptsTotal, _ = meter.Int64Counter(
		"tracker.auth.logins.total",
		metric.WithDescription("Total number of password login attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.GuardRejectionsTotal, _ = meter.Int64Counter(
		"tracker.workflow.guard_rejections.total",
		metric.WithDescription("Total number of mutations rejected by workflow integrity checks"),
		metric.WithUnit("{rejection}"),
	)

	m.TicketMovesTotal, _ = meter.Int64Counter(
		"tracker.tickets.moves.total",
		metric.WithDescription("Total number of tickets moved between projects"),
		metric.WithUnit("{ticket}"),
	)

	m.TxRetriesTotal, _ = meter.Int64Counter(
		"tracker.store.tx.retries.total",
		metric.WithDescription("Total number of transactions retried after a serialization conflict"),
		metric.WithUnit("{retry}"),
	)

	m.TxDuration, _ = meter.Float64Histogram(
		txDurationName,
		metric.WithDescription("Duration of store transactions"),
		metric.WithUnit("ms"),
	)

	return m
}
