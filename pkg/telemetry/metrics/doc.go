// Package metrics exports Prometheus metrics for rule compilation, rule set
// evaluation, the HTTP API and evidence recording.
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
//	collector.RecordEvaluation("anti-spam", true, elapsed)
//
// Label cardinality is bounded by the rule sets an operator loads: rule and
// rule set names are labels, message content never is.
package metrics
