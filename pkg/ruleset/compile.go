package ruleset

import (
	"time"

	"mercator-hq/matchgram/pkg/rule"
	"mercator-hq/matchgram/pkg/rule/registry"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
)

// Compile compiles a single rule against reg and records the compilation on
// collector. source names the rule in error messages. Both reg and
// collector may be nil.
func Compile(text string, reg *registry.Registry, collector *metrics.Collector, source string) (*rule.Matcher, error) {
	opts := []rule.Option{rule.WithSource(source)}
	if reg != nil {
		opts = append(opts, rule.WithRegistry(reg))
	}

	start := time.Now()
	m, err := rule.Compile(text, opts...)
	groups := 0
	if err == nil {
		groups = len(m.Groups())
	}
	collector.RecordCompile(err, time.Since(start), groups)
	return m, err
}
