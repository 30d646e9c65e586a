// Package tracing wraps span bookkeeping for service operations. Spans go to
// the global TracerProvider, which is a no-op until one is installed.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "moniftar/pkg/domain-errors"
)

const instrumentation = "moniftar"

// Tracer returns the named tracer of a service package.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentation + "/" + component)
}

// Start opens a span carrying attrs.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End closes span; a non-nil *errp marks it failed with the error code.
func End(span trace.Span, errp *error) {
	if errp != nil && *errp != nil {
		err := *errp
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.code", string(dErrors.CodeOf(err))))
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	span.End()
}
