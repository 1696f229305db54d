package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrVerb      = "verb"
	attrStatus    = "status"
	attrTransport = "transport"
	attrNamespace = "namespace"
	attrMode      = "mode"
)

// Metrics provides methods for recording observability metrics.
//
// A nil *Metrics is valid and records nothing, so callers never need to check
// whether instrumentation is enabled.
type Metrics struct {
	invocationsTotal   metric.Int64Counter
	invocationDuration metric.Float64Histogram
	invocationTimeouts metric.Int64Counter
	pollIterations     metric.Int64Counter
	remoteSessions     metric.Int64UpDownCounter

	// detailedLabels controls whether the namespace label is included in
	// invocation metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.invocationsTotal, err = meter.Int64Counter(
		"kubedriver_invocations_total",
		metric.WithDescription("Total number of client binary invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubedriver_invocations_total counter: %w", err)
	}

	m.invocationDuration, err = meter.Float64Histogram(
		"kubedriver_invocation_duration_seconds",
		metric.WithDescription("Client binary invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubedriver_invocation_duration_seconds histogram: %w", err)
	}

	m.invocationTimeouts, err = meter.Int64Counter(
		"kubedriver_invocation_timeouts_total",
		metric.WithDescription("Total number of invocations killed at their deadline"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubedriver_invocation_timeouts_total counter: %w", err)
	}

	m.pollIterations, err = meter.Int64Counter(
		"kubedriver_poll_iterations_total",
		metric.WithDescription("Total number of selector polling iterations"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubedriver_poll_iterations_total counter: %w", err)
	}

	m.remoteSessions, err = meter.Int64UpDownCounter(
		"kubedriver_remote_sessions",
		metric.WithDescription("Number of open remote shell sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubedriver_remote_sessions gauge: %w", err)
	}

	return m, nil
}

// RecordInvocation records one client invocation.
//
// CARDINALITY NOTE: namespace is only recorded when detailedLabels is true.
func (m *Metrics) RecordInvocation(ctx context.Context, verb, transport, namespace, status string, duration time.Duration) {
	if m == nil || m.invocationsTotal == nil || m.invocationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrVerb, verb),
		attribute.String(attrTransport, transport),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrNamespace, namespace))
	}

	m.invocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.invocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTimeout records an invocation killed at its deadline.
func (m *Metrics) RecordTimeout(ctx context.Context, verb string) {
	if m == nil || m.invocationTimeouts == nil {
		return
	}
	m.invocationTimeouts.Add(ctx, 1, metric.WithAttributes(attribute.String(attrVerb, verb)))
}

// RecordPollIteration records one iteration of an until loop. Mode is PollAny
// or PollAll.
func (m *Metrics) RecordPollIteration(ctx context.Context, mode string) {
	if m == nil || m.pollIterations == nil {
		return
	}
	m.pollIterations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMode, mode)))
}

// IncrementRemoteSessions increments the open remote sessions gauge.
func (m *Metrics) IncrementRemoteSessions(ctx context.Context) {
	if m == nil || m.remoteSessions == nil {
		return
	}
	m.remoteSessions.Add(ctx, 1)
}

// DecrementRemoteSessions decrements the open remote sessions gauge.
func (m *Metrics) DecrementRemoteSessions(ctx context.Context) {
	if m == nil || m.remoteSessions == nil {
		return
	}
	m.remoteSessions.Add(ctx, -1)
}
