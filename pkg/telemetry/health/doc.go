// Package health implements liveness and readiness probes.
//
// Checks are either required (a failure returns 503 from /ready) or
// observed (a failure reports "degraded" but keeps serving). The run
// command requires the rule set check and observes the evidence store:
//
//	checker := health.New(5 * time.Second)
//	checker.Require("rules", manager.HealthCheck)
//	checker.Observe("evidence", store.Ping)
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
