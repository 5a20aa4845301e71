package metrics

import "github.com/prometheus/client_golang/prometheus"

// RuleMetrics tracks compilation and evaluation.
//
// Metrics:
//   - matchgram_rule_compiles_total{status}
//   - matchgram_rule_compile_duration_seconds
//   - matchgram_rule_compiled_groups
//   - matchgram_rule_evaluations_total{rule_set,matched}
//   - matchgram_rule_evaluation_duration_seconds{rule_set}
//   - matchgram_rule_hits_total{rule_set,rule}
//   - matchgram_rule_eval_errors_total{rule_set,rule}
//   - matchgram_ruleset_loads_total{status}
//   - matchgram_ruleset_active_rules
//   - matchgram_ruleset_last_load_timestamp_seconds
type RuleMetrics struct {
	compilesTotal      *prometheus.CounterVec
	compileDuration    prometheus.Histogram
	compiledGroups     prometheus.Histogram
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	hitsTotal          *prometheus.CounterVec
	evalErrorsTotal    *prometheus.CounterVec
	loadsTotal         *prometheus.CounterVec
	activeRules        prometheus.Gauge
	lastLoad           prometheus.Gauge
}

func newRuleMetrics(namespace string, registry *prometheus.Registry) *RuleMetrics {
	m := &RuleMetrics{
		compilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "compiles_total",
			Help:      "Total number of rule compilations",
		}, []string{"status"}),

		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "compile_duration_seconds",
			Help:      "Duration of rule compilation in seconds",
			// 10µs up to ~5s for megabyte rules.
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),

		compiledGroups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "compiled_groups",
			Help:      "Number of groups in compiled rules",
			Buckets:   []float64{1, 2, 4, 8, 16, 64, 256},
		}),

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "evaluations_total",
			Help:      "Total number of messages evaluated",
		}, []string{"rule_set", "matched"}),

		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of evaluating a message against a rule set",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15),
		}, []string{"rule_set"}),

		hitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "hits_total",
			Help:      "Number of times a rule matched",
		}, []string{"rule_set", "rule"}),

		evalErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rule",
			Name:      "eval_errors_total",
			Help:      "Number of rule evaluations that failed",
		}, []string{"rule_set", "rule"}),

		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ruleset",
			Name:      "loads_total",
			Help:      "Total number of rule set loads",
		}, []string{"status"}),

		activeRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ruleset",
			Name:      "active_rules",
			Help:      "Number of enabled rules currently loaded",
		}),

		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ruleset",
			Name:      "last_load_timestamp_seconds",
			Help:      "Unix time of the last successful rule set load",
		}),
	}

	registry.MustRegister(
		m.compilesTotal, m.compileDuration, m.compiledGroups,
		m.evaluationsTotal, m.evaluationDuration, m.hitsTotal, m.evalErrorsTotal,
		m.loadsTotal, m.activeRules, m.lastLoad,
	)
	return m
}

// HTTPMetrics tracks the HTTP API.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newHTTPMetrics(namespace string, registry *prometheus.Registry) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "code"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// EvidenceMetrics tracks verdict recording.
type EvidenceMetrics struct {
	recordsTotal *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	prunedTotal  prometheus.Counter
}

func newEvidenceMetrics(namespace string, registry *prometheus.Registry) *EvidenceMetrics {
	m := &EvidenceMetrics{
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "records_total",
			Help:      "Evidence records by outcome (stored, dropped, failed)",
		}, []string{"result"}),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "queue_depth",
			Help:      "Evidence records waiting to be written",
		}),

		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "pruned_total",
			Help:      "Evidence records removed by retention",
		}),
	}
	registry.MustRegister(m.recordsTotal, m.queueDepth, m.prunedTotal)
	return m
}
