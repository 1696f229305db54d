package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the kubedriver package.
const TracerName = "github.com/giantswarm/kubedriver"

// Span attribute keys.
const (
	// SpanAttrVerb is the client verb (get, apply, label...).
	SpanAttrVerb = "kubedriver.verb"

	// SpanAttrTransport is "local" or "remote".
	SpanAttrTransport = "kubedriver.transport"

	// SpanAttrExitStatus is the process exit status, or -1 on timeout.
	SpanAttrExitStatus = "kubedriver.exit_status"

	// SpanAttrTimedOut indicates whether the invocation hit its deadline.
	SpanAttrTimedOut = "kubedriver.timed_out"

	// SpanAttrNamespace is the Kubernetes namespace.
	SpanAttrNamespace = "k8s.namespace"

	// SpanAttrSelector describes the selector being resolved.
	SpanAttrSelector = "kubedriver.selector"

	// SpanAttrPollMode is "any" or "all".
	SpanAttrPollMode = "kubedriver.poll_mode"
)

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartInvocationSpan starts a client span for one invocation of the client
// binary.
func StartInvocationSpan(ctx context.Context, verb, transport, namespace string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(SpanAttrVerb, verb),
		attribute.String(SpanAttrTransport, transport),
	}
	if namespace != "" {
		attrs = append(attrs, attribute.String(SpanAttrNamespace, namespace))
	}

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "invoke."+verb,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetInvocationOutcome records how an invocation ended.
func SetInvocationOutcome(span trace.Span, exitStatus int, timedOut bool) {
	span.SetAttributes(
		attribute.Int(SpanAttrExitStatus, exitStatus),
		attribute.Bool(SpanAttrTimedOut, timedOut),
	)
}

// StartPollSpan starts a span covering a whole until loop.
func StartPollSpan(ctx context.Context, mode, selector string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "selector.until_"+mode,
		trace.WithAttributes(
			attribute.String(SpanAttrPollMode, mode),
			attribute.String(SpanAttrSelector, selector),
		),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
