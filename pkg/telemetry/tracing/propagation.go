package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator returns the globally installed text map propagator.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Inject writes the trace context of ctx into outgoing request headers as
// traceparent and tracestate.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// InjectToMap writes the trace context of ctx into a string map.
func InjectToMap(ctx context.Context, carrier map[string]string) {
	Propagator().Inject(ctx, propagation.MapCarrier(carrier))
}

// Extract returns ctx extended with any trace context found in headers.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}
