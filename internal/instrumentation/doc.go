// Package instrumentation provides OpenTelemetry instrumentation for kubedriver.
//
// # Metrics
//
//   - kubedriver_invocations_total: Counter of client invocations by verb, transport and status
//   - kubedriver_invocation_duration_seconds: Histogram of invocation durations
//   - kubedriver_invocation_timeouts_total: Counter of invocations killed at their deadline
//   - kubedriver_poll_iterations_total: Counter of selector until-loop iterations by mode
//   - kubedriver_remote_sessions: Gauge of open remote shell sessions
//
// The namespace label is only added when Config.DetailedLabels is set.
//
// # Tracing
//
// Every invocation of the client binary gets a client span named
// "invoke.<verb>". Selector until loops get one span for the whole loop.
//
// # Configuration
//
// ConfigFromEnv reads these environment variables:
//   - KUBEDRIVER_INSTRUMENTATION: Enable metrics and tracing (default: false)
//   - KUBEDRIVER_METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - KUBEDRIVER_TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - KUBEDRIVER_TRACE_SAMPLE_RATE: Sampling rate (0.0 to 1.0, default: 0.1)
//   - KUBEDRIVER_METRICS_NAMESPACE_LABEL: Add the namespace label (default: false)
//   - KUBEDRIVER_OTLP_INSECURE: Export OTLP over plain HTTP (default: false)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_SERVICE_NAME: Service name (default: kubedriver)
//
// # Example Usage
//
//	config, err := instrumentation.ConfigFromEnv(os.LookupEnv)
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, config)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	ctx, sc := scope.New(ctx, scope.WithMetrics(provider.Metrics()))
//	defer sc.Close()
package instrumentation
