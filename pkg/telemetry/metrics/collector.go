package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/matchgram/pkg/config"
)

// Collector owns every Prometheus metric matchgram exports. All methods are
// safe on a nil *Collector, which records nothing; components take an
// optional collector without guarding each call.
type Collector struct {
	registry *prometheus.Registry

	rules    *RuleMetrics
	http     *HTTPMetrics
	evidence *EvidenceMetrics
}

// NewCollector creates a collector registered on registry. A nil registry
// gets a fresh one, which keeps tests independent of the global default.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		registry: registry,
		rules:    newRuleMetrics(namespace, registry),
		http:     newHTTPMetrics(namespace, registry),
		evidence: newEvidenceMetrics(namespace, registry),
	}
}

// Registry returns the registry the collector's metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordCompile records one rule compilation.
func (c *Collector) RecordCompile(err error, duration time.Duration, groups int) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.rules.compilesTotal.WithLabelValues(status).Inc()
	c.rules.compileDuration.Observe(duration.Seconds())
	if err == nil {
		c.rules.compiledGroups.Observe(float64(groups))
	}
}

// RecordEvaluation records one message evaluated against a rule set.
func (c *Collector) RecordEvaluation(ruleSet string, matched bool, duration time.Duration) {
	if c == nil {
		return
	}
	c.rules.evaluationsTotal.WithLabelValues(ruleSet, strconv.FormatBool(matched)).Inc()
	c.rules.evaluationDuration.WithLabelValues(ruleSet).Observe(duration.Seconds())
}

// RecordHit records a rule that matched.
func (c *Collector) RecordHit(ruleSet, rule string) {
	if c == nil {
		return
	}
	c.rules.hitsTotal.WithLabelValues(ruleSet, rule).Inc()
}

// RecordEvalError records a rule whose evaluation failed.
func (c *Collector) RecordEvalError(ruleSet, rule string) {
	if c == nil {
		return
	}
	c.rules.evalErrorsTotal.WithLabelValues(ruleSet, rule).Inc()
}

// RecordRuleSetLoad records a (re)load and the number of active rules.
func (c *Collector) RecordRuleSetLoad(err error, rules int) {
	if c == nil {
		return
	}
	if err != nil {
		c.rules.loadsTotal.WithLabelValues("error").Inc()
		return
	}
	c.rules.loadsTotal.WithLabelValues("ok").Inc()
	c.rules.activeRules.Set(float64(rules))
	c.rules.lastLoad.SetToCurrentTime()
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.http.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.http.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordEvidence records the outcome of recording one verdict: "stored",
// "dropped" or "failed".
func (c *Collector) RecordEvidence(result string) {
	if c == nil {
		return
	}
	c.evidence.recordsTotal.WithLabelValues(result).Inc()
}

// SetEvidenceQueueDepth reports the recorder's pending writes.
func (c *Collector) SetEvidenceQueueDepth(n int) {
	if c == nil {
		return
	}
	c.evidence.queueDepth.Set(float64(n))
}

// RecordPruned records evidence records removed by retention.
func (c *Collector) RecordPruned(n int64) {
	if c == nil {
		return
	}
	c.evidence.prunedTotal.Add(float64(n))
}
