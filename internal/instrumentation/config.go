package instrumentation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Environment variables read by ConfigFromEnv. The service name and the
// OTLP endpoint use the standard OpenTelemetry names.
const (
	EnvEnabled          = "KUBEDRIVER_INSTRUMENTATION"
	EnvMetricsExporter  = "KUBEDRIVER_METRICS_EXPORTER"
	EnvTracingExporter  = "KUBEDRIVER_TRACING_EXPORTER"
	EnvTraceSampleRate  = "KUBEDRIVER_TRACE_SAMPLE_RATE"
	EnvNamespaceLabel   = "KUBEDRIVER_METRICS_NAMESPACE_LABEL"
	EnvOTLPInsecure     = "KUBEDRIVER_OTLP_INSECURE"
	EnvServiceName      = "OTEL_SERVICE_NAME"
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	defaultServiceName  = "kubedriver"
	defaultSamplingRate = 0.1
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: kubedriver)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Enabled turns on metrics and tracing. A disabled Config builds no
	// exporters at all.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint, e.g. http://localhost:4318.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Traces carry argv metadata.
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of root invocations traced, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels adds the namespace label to invocation metrics.
	DetailedLabels bool

	// PrometheusRegisterer receives the Prometheus exporter collectors.
	// Nil means prometheus.DefaultRegisterer.
	PrometheusRegisterer prometheus.Registerer
}

// DefaultConfig returns a disabled Config that exports metrics to
// Prometheus and no traces once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:       defaultServiceName,
		ServiceVersion:    "unknown",
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: defaultSamplingRate,
	}
}

// ConfigFromEnv returns DefaultConfig with the variables found by lookup
// applied on top. Pass os.LookupEnv to read the process environment.
// Malformed values are errors.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	config := DefaultConfig()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvServiceName, &config.ServiceName)
	str(EnvMetricsExporter, &config.MetricsExporter)
	str(EnvTracingExporter, &config.TracingExporter)
	str(EnvOTLPEndpoint, &config.OTLPEndpoint)

	for key, dst := range map[string]*bool{
		EnvEnabled:        &config.Enabled,
		EnvNamespaceLabel: &config.DetailedLabels,
		EnvOTLPInsecure:   &config.OTLPInsecure,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = parsed
	}

	if v, ok := lookup(EnvTraceSampleRate); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvTraceSampleRate, v, err)
		}
		config.TraceSamplingRate = rate
	}

	return config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("unsupported metrics exporter %q", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case ExporterOTLP, ExporterStdout, ExporterNone, "":
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.TracingExporter)
	}

	if (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP export requires %s", EnvOTLPEndpoint)
	}

	return nil
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"

	// Transport values
	TransportLocal  = "local"
	TransportRemote = "remote"

	// Poll modes
	PollAny = "any"
	PollAll = "all"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
