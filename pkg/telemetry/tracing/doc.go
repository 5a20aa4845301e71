// Package tracing sets up OpenTelemetry tracing for matchgram.
//
// When telemetry.tracing.enabled is false the Tracer returns noop spans.
// Otherwise spans are exported over OTLP gRPC:
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(ctx)
//
//	ctx, span := tracer.Start(ctx, "ruleset.evaluate")
//	defer func() { tracing.End(span, err) }()
//
// Trace context crosses process boundaries through W3C traceparent headers,
// both on HTTP requests and on NATS messages.
package tracing
