// Package server exposes the rule engine over HTTP.
//
// Routes:
//
//	POST /v1/compile       compile a rule and return diagnostics
//	POST /v1/match         evaluate a message against one rule or the loaded rule sets
//	GET  /v1/rules         list loaded rules and the load status
//	GET  /v1/match/stream  websocket: message JSON in, verdict JSON out
//	GET  /health           liveness
//	GET  /ready            readiness (rules loaded, evidence storage reachable)
//	GET  /version          build information
//	GET  /metrics          Prometheus metrics, when enabled
//
// Every request passes through recovery, request-ID and observation
// middleware: a panic becomes a 500, X-Request-ID is echoed or assigned,
// and each request is traced, logged and counted.
//
// A compile failure on /v1/compile is not an HTTP error; the response has
// valid=false and a diagnostic carrying the rendered rule context:
//
//	{"valid":false,"diagnostics":[{"kind":"missing_quote","column":25,...}]}
//
// Verdicts produced by /v1/match and the stream are handed to the
// configured Recorder as evidence.
package server
