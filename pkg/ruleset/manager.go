package ruleset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule/registry"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
	"mercator-hq/matchgram/pkg/telemetry/tracing"
)

// Options configures a Manager.
type Options struct {
	// Path is a rule set file or directory.
	Path string

	// Fields is the field registry rules compile against; nil means the
	// default registry.
	Fields *registry.Registry

	// Debounce coalesces file events in Watch.
	Debounce time.Duration

	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Manager owns the active rule sets: it loads them, reloads them atomically
// keeping the last good rules on failure, and evaluates messages.
type Manager struct {
	loader   *Loader
	rules    *Registry
	logger   *logging.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	debounce time.Duration

	// mu serialises loads; evaluation reads the registry without locking.
	mu          sync.Mutex
	path        string
	loaded      bool
	lastErr     error
	lastAttempt time.Time
}

// NewManager creates a manager. Nothing is loaded until Load is called.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		loader:   NewLoader(opts.Fields, opts.Metrics),
		rules:    NewRegistry(),
		logger:   logger.Component("ruleset"),
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		debounce: opts.Debounce,
		path:     opts.Path,
	}
}

// Load reads and compiles the rule sets at the configured path and installs
// them. On failure the previously loaded rules stay active.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, m.path)
}

// Reload is Load under the name the watchers use.
func (m *Manager) Reload(ctx context.Context) error {
	return m.Load(ctx)
}

// ReloadFrom switches the manager to path and loads it. The path only
// changes when the load succeeds.
func (m *Manager) ReloadFrom(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(ctx, path); err != nil {
		return err
	}
	m.path = path
	return nil
}

func (m *Manager) load(ctx context.Context, path string) (err error) {
	_, span := m.tracer.Start(ctx, "ruleset.load")
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	m.lastAttempt = start

	if path == "" {
		err = errors.New("no rule set path configured")
		m.lastErr = err
		return err
	}

	sets, err := m.loader.Load(path)
	if err != nil {
		m.lastErr = err
		m.metrics.RecordRuleSetLoad(err, 0)
		m.logger.Error("Failed to load rule sets",
			"path", path,
			"error", err,
			"keeping_version", m.rules.Version(),
		)
		return err
	}

	previous := m.rules.Version()
	m.rules.Replace(sets)
	m.loaded = true
	m.lastErr = nil
	m.metrics.RecordRuleSetLoad(nil, m.rules.Len())

	span.SetAttributes(
		tracing.AttrRuleSetVersion.String(m.rules.Version()),
		tracing.AttrRuleCount.Int(m.rules.Len()),
	)
	m.logger.Info("Rule sets loaded",
		"path", path,
		"sets", len(sets),
		"rules", m.rules.Len(),
		"version", m.rules.Version(),
		"previous_version", previous,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Evaluate runs every enabled rule against msg. Evaluation errors of single
// rules are reported in the verdict and do not stop the others.
func (m *Manager) Evaluate(ctx context.Context, msg *message.Message) *Verdict {
	ctx, span := m.tracer.Start(ctx, "ruleset.evaluate")
	defer span.End()

	start := time.Now()
	snap := m.rules.current.Load()
	verdict := &Verdict{Version: snap.version}

	for _, set := range snap.sets {
		if ctx.Err() != nil {
			verdict.Errors = append(verdict.Errors, RuleError{RuleSet: set.Name, Error: ctx.Err().Error()})
			break
		}

		setStart := time.Now()
		matched := false
		for _, r := range set.Rules {
			if !r.Enabled {
				continue
			}
			verdict.Evaluated++

			group, err := r.Matcher.MatchGroup(msg)
			if err != nil {
				verdict.Errors = append(verdict.Errors, RuleError{RuleSet: r.Set, Rule: r.Name, Error: err.Error()})
				m.metrics.RecordEvalError(r.Set, r.Name)
				m.logger.WarnContext(ctx, "Rule evaluation failed", "rule", r.ID(), "error", err)
				continue
			}
			if group < 0 {
				continue
			}
			matched = true
			verdict.Matched = append(verdict.Matched, Hit{RuleSet: r.Set, Rule: r.Name, Action: r.Action, Group: group})
			m.metrics.RecordHit(r.Set, r.Name)
		}
		m.metrics.RecordEvaluation(set.Name, matched, time.Since(setStart))
	}

	verdict.Duration = time.Since(start)
	span.SetAttributes(
		tracing.AttrRuleSetVersion.String(verdict.Version),
		tracing.AttrMatched.Bool(verdict.IsMatch()),
		tracing.AttrHits.Int(len(verdict.Matched)),
		tracing.AttrRuleCount.Int(verdict.Evaluated),
	)
	if msg != nil {
		span.SetAttributes(tracing.AttrMessageID.Int64(msg.MessageID))
		if msg.Chat != nil {
			span.SetAttributes(tracing.AttrChatType.String(msg.Chat.Type))
		}
	}
	if msg != nil && verdict.IsMatch() && m.logger.Enabled(slog.LevelDebug) {
		m.logger.DebugContext(ctx, "Message matched",
			"hits", len(verdict.Matched),
			"text", msg.TextOrCaption(),
		)
	}
	return verdict
}

// Rules returns every loaded rule.
func (m *Manager) Rules() []*CompiledRule {
	return m.rules.Rules()
}

// Sets returns the loaded rule sets.
func (m *Manager) Sets() []*Set {
	return m.rules.Sets()
}

// Rule returns a rule by "set/name" ID.
func (m *Manager) Rule(id string) (*CompiledRule, bool) {
	return m.rules.Rule(id)
}

// Version returns the content hash of the active rules.
func (m *Manager) Version() string {
	return m.rules.Version()
}

// Fields returns the field registry rules compile against.
func (m *Manager) Fields() *registry.Registry {
	return m.loader.registry
}

// Status describes the manager for the API and health checks.
type Status struct {
	Path        string    `json:"path"`
	Version     string    `json:"version"`
	Sets        int       `json:"sets"`
	Rules       int       `json:"rules"`
	LoadedAt    time.Time `json:"loaded_at"`
	LastAttempt time.Time `json:"last_attempt"`
	LastError   string    `json:"last_error,omitempty"`
}

// Status returns the current load state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Path:        m.path,
		Version:     m.rules.Version(),
		Sets:        len(m.rules.Sets()),
		Rules:       m.rules.Len(),
		LastAttempt: m.lastAttempt,
	}
	if m.loaded {
		s.LoadedAt = m.rules.LoadedAt()
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

// HealthCheck fails until a rule set has been loaded. A later failed reload
// does not fail it, since the last good rules keep serving.
func (m *Manager) HealthCheck(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		if m.lastErr != nil {
			return fmt.Errorf("rule sets not loaded: %w", m.lastErr)
		}
		return errors.New("rule sets not loaded")
	}
	return nil
}

// Watch reloads the rule sets whenever files under the configured path
// change. It blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	m.mu.Lock()
	path := m.path
	m.mu.Unlock()

	watcher, err := NewFileWatcher(FileWatcherConfig{Path: path, Debounce: m.debounce}, m.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	return watcher.Watch(ctx, func() error {
		return m.Reload(ctx)
	})
}
