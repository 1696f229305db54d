package instrumentation

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// mockMeterProvider creates a simple meter for testing
func mockMeterProvider() metric.Meter {
	provider := sdkmetric.NewMeterProvider()
	return provider.Meter("test")
}

// readerMeter returns a meter whose recordings can be collected.
func readerMeter() (metric.Meter, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return provider.Meter("test"), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, data metricdata.Aggregation) (int64, []attribute.Set) {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	var total int64
	var sets []attribute.Set
	for _, dp := range sum.DataPoints {
		total += dp.Value
		sets = append(sets, dp.Attributes)
	}
	return total, sets
}

func TestNewMetrics(t *testing.T) {
	meter := mockMeterProvider()
	metrics, err := NewMetrics(meter, false) // false = no detailed labels
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	if metrics.invocationsTotal == nil {
		t.Error("expected invocationsTotal to be initialized")
	}
	if metrics.invocationDuration == nil {
		t.Error("expected invocationDuration to be initialized")
	}
	if metrics.invocationTimeouts == nil {
		t.Error("expected invocationTimeouts to be initialized")
	}
	if metrics.pollIterations == nil {
		t.Error("expected pollIterations to be initialized")
	}
	if metrics.remoteSessions == nil {
		t.Error("expected remoteSessions to be initialized")
	}

	if metrics.detailedLabels != false {
		t.Error("expected detailedLabels to be false")
	}
}

func TestRecordInvocation(t *testing.T) {
	meter, reader := readerMeter()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordInvocation(ctx, "get", TransportLocal, "default", StatusSuccess, 120*time.Millisecond)
	metrics.RecordInvocation(ctx, "get", TransportLocal, "other", StatusSuccess, 80*time.Millisecond)
	metrics.RecordInvocation(ctx, "apply", TransportRemote, "default", StatusError, time.Second)

	data := collect(t, reader)

	total, sets := sumInt(t, data["kubedriver_invocations_total"])
	if total != 3 {
		t.Errorf("expected 3 invocations, got %d", total)
	}
	for _, set := range sets {
		if set.HasValue(attrNamespace) {
			t.Error("namespace label must not be recorded without detailed labels")
		}
	}
	if len(sets) != 2 {
		t.Errorf("expected 2 series (namespace collapsed), got %d", len(sets))
	}

	hist, ok := data["kubedriver_invocation_duration_seconds"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected histogram, got %T", data["kubedriver_invocation_duration_seconds"])
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("expected 3 histogram samples, got %d", count)
	}
}

func TestRecordInvocationDetailedLabels(t *testing.T) {
	meter, reader := readerMeter()
	metrics, err := NewMetrics(meter, true)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordInvocation(ctx, "get", TransportLocal, "a", StatusSuccess, time.Millisecond)
	metrics.RecordInvocation(ctx, "get", TransportLocal, "b", StatusSuccess, time.Millisecond)

	_, sets := sumInt(t, collect(t, reader)["kubedriver_invocations_total"])
	if len(sets) != 2 {
		t.Fatalf("expected one series per namespace, got %d", len(sets))
	}
	for _, set := range sets {
		if !set.HasValue(attrNamespace) {
			t.Error("expected namespace label with detailed labels")
		}
	}
}

func TestRecordTimeoutAndPoll(t *testing.T) {
	meter, reader := readerMeter()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.RecordTimeout(ctx, "get")
	metrics.RecordPollIteration(ctx, PollAll)
	metrics.RecordPollIteration(ctx, PollAll)
	metrics.RecordPollIteration(ctx, PollAny)

	data := collect(t, reader)
	if total, _ := sumInt(t, data["kubedriver_invocation_timeouts_total"]); total != 1 {
		t.Errorf("expected 1 timeout, got %d", total)
	}
	total, sets := sumInt(t, data["kubedriver_poll_iterations_total"])
	if total != 3 {
		t.Errorf("expected 3 poll iterations, got %d", total)
	}
	if len(sets) != 2 {
		t.Errorf("expected one series per mode, got %d", len(sets))
	}
}

func TestRemoteSessions(t *testing.T) {
	meter, reader := readerMeter()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	metrics.IncrementRemoteSessions(ctx)
	metrics.IncrementRemoteSessions(ctx)
	metrics.DecrementRemoteSessions(ctx)

	if total, _ := sumInt(t, collect(t, reader)["kubedriver_remote_sessions"]); total != 1 {
		t.Errorf("expected 1 open session, got %d", total)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// None of these may panic.
	metrics.RecordInvocation(ctx, "get", TransportLocal, "default", StatusSuccess, time.Second)
	metrics.RecordTimeout(ctx, "get")
	metrics.RecordPollIteration(ctx, PollAny)
	metrics.IncrementRemoteSessions(ctx)
	metrics.DecrementRemoteSessions(ctx)
}

func TestMetricsConcurrentRecording(t *testing.T) {
	meter, reader := readerMeter()
	metrics, err := NewMetrics(meter, false)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				metrics.RecordInvocation(ctx, "get", TransportLocal, "default", StatusSuccess, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if total, _ := sumInt(t, collect(t, reader)["kubedriver_invocations_total"]); total != 1000 {
		t.Errorf("expected 1000 invocations, got %d", total)
	}
}
