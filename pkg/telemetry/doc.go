// Package telemetry groups matchgram's observability packages:
//
//   - logging: slog-based structured logging with message text redaction
//   - metrics: Prometheus metrics for compilation, evaluation, HTTP and evidence
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness probes
//
// The run command builds all four from config.TelemetryConfig and passes
// them explicitly to the components that use them; nothing here is global
// except the OpenTelemetry provider installed by tracing.New.
package telemetry
