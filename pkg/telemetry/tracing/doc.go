// Package tracing provides OpenTelemetry tracing for IntelliMap.
//
// A run produces one intellimap.batch span per input, an intellimap.record
// child per record and an intellimap.completion grandchild per model call.
// When tracing is disabled the tracer is a noop; when enabled spans are
// batched to an OTLP gRPC collector.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Outgoing completion requests carry W3C traceparent headers via Inject.
package tracing
