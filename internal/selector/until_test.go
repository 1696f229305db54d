package selector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"k8s.io/utils/ptr"

	"github.com/giantswarm/kubedriver/internal/action"
	"github.com/giantswarm/kubedriver/internal/instrumentation"
	"github.com/giantswarm/kubedriver/internal/resource"
	"github.com/giantswarm/kubedriver/internal/scope"
	"github.com/giantswarm/kubedriver/internal/scope/scopetest"
)

// fastPolling shrinks the poll schedule for the duration of a test.
func fastPolling(t *testing.T) {
	t.Helper()
	initial, step, ceiling := initialPollInterval, pollStep, maxPollInterval
	initialPollInterval, pollStep, maxPollInterval = time.Millisecond, time.Millisecond, 5*time.Millisecond
	t.Cleanup(func() {
		initialPollInterval, pollStep, maxPollInterval = initial, step, ceiling
	})
}

func phase(want string) Predicate {
	return func(r *resource.Resource) bool {
		return r.Model().Get("status", "phase").Str("") == want
	}
}

func TestUntilAllMinExist(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().OnFunc("get pod -o=json", sequence(
		list(),
		list(),
		list(pod("team-a", "a", "Pending")),
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	out, err := Kind("pod").UntilAll(ctx, UntilAllOptions{MinExist: ptr.To(1)})
	require.NoError(t, err)
	assert.True(t, out.Satisfied)
	assert.Equal(t, 3, out.Iterations, "satisfied exactly when the first object appears")
	assert.Len(t, out.Objects, 1)
}

func TestUntilMinimumCounts(t *testing.T) {
	tests := []struct {
		name           string
		until          func(context.Context, *Selector) (Outcome, error)
		wantSatisfied  bool
		wantIterations int
	}{
		{
			name: "all with zero minimum accepts an empty selection",
			until: func(ctx context.Context, s *Selector) (Outcome, error) {
				return s.UntilAll(ctx, UntilAllOptions{MinExist: ptr.To(0)})
			},
			wantSatisfied:  true,
			wantIterations: 1,
		},
		{
			name: "any with zero minimum accepts an empty selection",
			until: func(ctx context.Context, s *Selector) (Outcome, error) {
				return s.UntilAny(ctx, UntilAnyOptions{MinToSatisfy: ptr.To(0)})
			},
			wantSatisfied:  true,
			wantIterations: 1,
		},
		{
			name: "negative minimum means zero",
			until: func(ctx context.Context, s *Selector) (Outcome, error) {
				return s.UntilAll(ctx, UntilAllOptions{MinExist: ptr.To(-3)})
			},
			wantSatisfied:  true,
			wantIterations: 1,
		},
		{
			name: "unset minimum waits for one object",
			until: func(ctx context.Context, s *Selector) (Outcome, error) {
				return s.UntilAll(ctx, UntilAllOptions{})
			},
			wantSatisfied:  true,
			wantIterations: 2,
		},
		{
			name: "unset minimum to satisfy waits for one object",
			until: func(ctx context.Context, s *Selector) (Outcome, error) {
				return s.UntilAny(ctx, UntilAnyOptions{})
			},
			wantSatisfied:  true,
			wantIterations: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fastPolling(t)
			exec := scopetest.NewExecutor().OnFunc("get pod -o=json", sequence(
				list(),
				list(pod("team-a", "a", "Running")),
			))
			ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

			out, err := tt.until(ctx, Kind("pod"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSatisfied, out.Satisfied)
			assert.Equal(t, tt.wantIterations, out.Iterations)
		})
	}
}

func TestUntilLogsOperationAndKinds(t *testing.T) {
	fastPolling(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exec := scopetest.NewExecutor().On("get pod/a service/b -o=json", list(
		pod("team-a", "a", "Running"),
		map[string]any{"apiVersion": "v1", "kind": "Service", "metadata": map[string]any{"name": "b", "namespace": "team-a"}},
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"), scope.WithLogger(logger))

	_, err := mustStatic(t, "pod/a", "svc/b").UntilAny(ctx, UntilAnyOptions{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "operation=until_any")
	assert.Contains(t, buf.String(), "kind=pod,service")
}

func TestUntilAllWaitsForEveryObject(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().OnFunc("get pod -o=json", sequence(
		list(pod("team-a", "a", "Running"), pod("team-a", "b", "Pending")),
		list(pod("team-a", "a", "Running"), pod("team-a", "b", "Running")),
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	out, err := Kind("pod").UntilAll(ctx, UntilAllOptions{Success: phase("Running")})
	require.NoError(t, err)
	assert.True(t, out.Satisfied)
	assert.Equal(t, 2, out.Iterations)
	assert.Len(t, out.Successes, 2)
}

func TestUntilAllFailure(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().On("get pod -o=json", list(
		pod("team-a", "a", "Failed"),
		pod("team-a", "b", "Running"),
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	out, err := Kind("pod").UntilAll(ctx, UntilAllOptions{
		MinExist: ptr.To(2),
		Success:  phase("Running"),
		Failure:  phase("Failed"),
	})
	require.NoError(t, err)
	assert.False(t, out.Satisfied)
	assert.Equal(t, 1, out.Iterations)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "a", out.Failures[0].Name())
}

func TestUntilAnyFailureTolerance(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().OnFunc("get pod -o=json", sequence(
		list(pod("team-a", "a", "Failed"), pod("team-a", "b", "Pending"), pod("team-a", "c", "Running")),
		list(pod("team-a", "a", "Failed"), pod("team-a", "b", "Failed"), pod("team-a", "c", "Running")),
		list(pod("team-a", "a", "Running"), pod("team-a", "b", "Running"), pod("team-a", "c", "Running")),
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	out, err := Kind("pod").UntilAny(ctx, UntilAnyOptions{
		MinToSatisfy:     ptr.To(3),
		Success:          phase("Running"),
		TolerateFailures: 1,
		Failure:          phase("Failed"),
	})
	require.NoError(t, err)
	assert.False(t, out.Satisfied, "gives up once failures exceed the tolerance")
	assert.Equal(t, 2, out.Iterations)
	assert.Len(t, out.Failures, 2)
}

func TestUntilAnySuccess(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().OnFunc("get pod --selector=app=web -o=json", sequence(
		list(pod("team-a", "a", "Pending"), pod("team-a", "b", "Pending")),
		list(pod("team-a", "a", "Running"), pod("team-a", "b", "Pending")),
	))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	out, err := Kind("pod", Labels(map[string]any{"app": "web"})).UntilAny(ctx, UntilAnyOptions{Success: phase("Running")})
	require.NoError(t, err)
	assert.True(t, out.Satisfied)
	require.Len(t, out.Successes, 1)
	assert.Equal(t, "a", out.Successes[0].Name())
}

func TestUntilPropagatesQueryErrors(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().On("get", scope.Response{Status: 1, Stderr: "Forbidden"})
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	_, err := Kind("pod").UntilAny(ctx, UntilAnyOptions{})
	assert.ErrorIs(t, err, action.ErrOperationFailed)
	assert.Len(t, exec.Lines(), 1)
}

func TestUntilObservesScopeDeadline(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().On("get pod -o=json", list())
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"))

	timed, s := scope.New(ctx, scope.WithTimeout(50*time.Millisecond))
	defer s.Close()

	start := time.Now()
	_, err := Kind("pod").UntilAll(timed, UntilAllOptions{})
	assert.ErrorIs(t, err, ErrPollDeadline)
	assert.Less(t, time.Since(start), time.Second)
	assert.Greater(t, len(exec.Lines()), 1)
}

func TestUntilObservesCancellation(t *testing.T) {
	fastPolling(t)
	exec := scopetest.NewExecutor().On("get pod -o=json", list())
	ctx, cancel := context.WithTimeout(scopetest.Context(t, exec, scope.WithNamespace("team-a")), 30*time.Millisecond)
	defer cancel()

	_, err := Kind("pod").UntilAll(ctx, UntilAllOptions{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled), "got %v", err)
}

func TestUntilRecordsIterations(t *testing.T) {
	fastPolling(t)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	require.NoError(t, err)

	exec := scopetest.NewExecutor().OnFunc("get pod -o=json", sequence(list(), list(pod("team-a", "a", "Running"))))
	ctx := scopetest.Context(t, exec, scope.WithNamespace("team-a"), scope.WithMetrics(metrics))

	_, err = Kind("pod").UntilAll(ctx, UntilAllOptions{})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var iterations int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "kubedriver_poll_iterations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				iterations += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), iterations)
}
