package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(8 << 20)

	// Rules defaults
	DefaultRulesMode        = "file"
	DefaultRulesPath        = "./rules"
	DefaultRulesDebounce    = 200 * time.Millisecond
	DefaultGitBranch        = "main"
	DefaultGitPath          = "."
	DefaultGitDepth         = 1
	DefaultGitAuthType      = "none"
	DefaultGitPollInterval  = 30 * time.Second
	DefaultGitTimeout       = 30 * time.Second
	DefaultGitLocalPathName = "matchgram-rules"

	// Evidence defaults
	DefaultEvidenceEnabled        = true
	DefaultEvidenceBackend        = "sqlite"
	DefaultSQLitePath             = "data/evidence.db"
	DefaultSQLiteDriver           = "sqlite3"
	DefaultSQLiteMaxOpenConns     = 10
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultPostgresPort           = 5432
	DefaultPostgresSSLMode        = "require"
	DefaultPostgresMaxOpenConns   = 10
	DefaultRecorderAsyncBuffer    = 1000
	DefaultRecorderWriteTimeout   = 5 * time.Second
	DefaultRetentionDays          = 30
	DefaultRetentionPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 5
	DefaultLogMaxAgeDays     = 28
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "matchgram"
	DefaultTracingEndpoint   = "localhost:4317"
	DefaultTracingService    = "matchgram"
	DefaultTracingSampleRate = 1.0

	// Transport defaults
	DefaultNATSURL            = "nats://127.0.0.1:4222"
	DefaultNATSSubject        = "matchgram.messages"
	DefaultNATSQueue          = "matchgram"
	DefaultNATSVerdictSubject = "matchgram.verdicts"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Evidence.Enabled = DefaultEvidenceEnabled
	cfg.Evidence.SQLite.WALMode = true
	cfg.Telemetry.Logging.RedactText = true
	cfg.Telemetry.Logging.Compress = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Insecure = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Booleans are
// left alone because false is a meaningful setting; LoadConfig seeds them
// from Default before unmarshalling.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := &cfg.Rules
	if r.Mode == "" {
		r.Mode = DefaultRulesMode
	}
	if r.Path == "" {
		r.Path = DefaultRulesPath
	}
	if r.Debounce == 0 {
		r.Debounce = DefaultRulesDebounce
	}
	g := &r.Git
	if g.Branch == "" {
		g.Branch = DefaultGitBranch
	}
	if g.Path == "" {
		g.Path = DefaultGitPath
	}
	if g.Depth == 0 {
		g.Depth = DefaultGitDepth
	}
	if g.LocalPath == "" {
		g.LocalPath = filepath.Join(os.TempDir(), DefaultGitLocalPathName)
	}
	if g.Auth.Type == "" {
		g.Auth.Type = DefaultGitAuthType
	}
	if g.PollInterval == 0 {
		g.PollInterval = DefaultGitPollInterval
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGitTimeout
	}

	e := &cfg.Evidence
	if e.Backend == "" {
		e.Backend = DefaultEvidenceBackend
	}
	if e.SQLite.Path == "" {
		e.SQLite.Path = DefaultSQLitePath
	}
	if e.SQLite.Driver == "" {
		e.SQLite.Driver = DefaultSQLiteDriver
	}
	if e.SQLite.MaxOpenConns == 0 {
		e.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if e.SQLite.BusyTimeout == 0 {
		e.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if e.Postgres.Port == 0 {
		e.Postgres.Port = DefaultPostgresPort
	}
	if e.Postgres.SSLMode == "" {
		e.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if e.Postgres.MaxOpenConns == 0 {
		e.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if e.Recorder.AsyncBuffer == 0 {
		e.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if e.Recorder.WriteTimeout == 0 {
		e.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if e.Retention.Days == 0 {
		e.Retention.Days = DefaultRetentionDays
	}
	if e.Retention.PruneSchedule == "" {
		e.Retention.PruneSchedule = DefaultRetentionPruneSchedule
	}

	l := &cfg.Telemetry.Logging
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = DefaultLogMaxBackups
	}
	if l.MaxAgeDays == 0 {
		l.MaxAgeDays = DefaultLogMaxAgeDays
	}

	m := &cfg.Telemetry.Metrics
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}

	t := &cfg.Telemetry.Tracing
	if t.Endpoint == "" {
		t.Endpoint = DefaultTracingEndpoint
	}
	if t.ServiceName == "" {
		t.ServiceName = DefaultTracingService
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = DefaultTracingSampleRate
	}

	n := &cfg.Transport.NATS
	if n.URL == "" {
		n.URL = DefaultNATSURL
	}
	if n.Subject == "" {
		n.Subject = DefaultNATSSubject
	}
	if n.Queue == "" {
		n.Queue = DefaultNATSQueue
	}
	if n.VerdictSubject == "" {
		n.VerdictSubject = DefaultNATSVerdictSubject
	}
}
