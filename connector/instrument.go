package connector

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/schemaforge"
)

const (
	namespace = "schemaforge"
	subsystem = "connector"
)

// Operation and outcome label values.
const (
	OpValidate = "validate"
	OpResolve  = "resolve"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Instrumented wraps a Connector with call counters and latency histograms.
type Instrumented struct {
	next     schemaforge.Connector
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ schemaforge.Connector = (*Instrumented)(nil)

// Instrument registers the connector metrics on reg and wraps next. Metrics
// already registered on reg by an earlier call are shared.
func Instrument(next schemaforge.Connector, reg prometheus.Registerer) (*Instrumented, error) {
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "Total number of connector calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "call_duration_seconds",
			Help:      "Connector call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	if err := register(reg, calls, &calls); err != nil {
		return nil, err
	}
	if err := register(reg, duration, &duration); err != nil {
		return nil, err
	}
	return &Instrumented{next: next, calls: calls, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, dst *C) error {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			*dst = existing
			return nil
		}
	}
	return err
}

func (i *Instrumented) Validate(ctx context.Context, url, method string, fields map[string]any) (schemaforge.Issues, error) {
	start := time.Now()
	iss, err := i.next.Validate(ctx, url, method, fields)
	i.observe(OpValidate, start, err, len(iss) > 0)
	return iss, err
}

func (i *Instrumented) ResolveSchema(ctx context.Context, url, method string, fields map[string]any) (*schemaforge.Node, error) {
	start := time.Now()
	n, err := i.next.ResolveSchema(ctx, url, method, fields)
	i.observe(OpResolve, start, err, false)
	return n, err
}

func (i *Instrumented) observe(op string, start time.Time, err error, rejected bool) {
	i.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case rejected:
		outcome = OutcomeRejected
	}
	i.calls.WithLabelValues(op, outcome).Inc()
}
