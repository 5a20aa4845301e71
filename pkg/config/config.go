package config

import "time"

// Config is the root configuration for a matchgram deployment.
type Config struct {
	// Server contains HTTP listener settings.
	Server ServerConfig `yaml:"server"`

	// Compiler controls which message fields rules may reference.
	Compiler CompilerConfig `yaml:"compiler"`

	// Rules describes where rule sets are loaded from and how they are watched.
	Rules RulesConfig `yaml:"rules"`

	// Evidence contains verdict recording, storage and retention settings.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains logging, metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Transport contains message bus settings.
	Transport TransportConfig `yaml:"transport"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the host:port the HTTP API listens on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a full request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	// Default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies. Rules of a megabyte or more are
	// legitimate, so the default is generous.
	// Default: 8388608 (8MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// CompilerConfig controls the field registry used to compile rules.
type CompilerConfig struct {
	// EnableFields lists fields to enable on top of the default registry,
	// by external name (e.g. "message.is_command").
	EnableFields []string `yaml:"enable_fields"`

	// DisableFields lists fields to remove from the default registry.
	DisableFields []string `yaml:"disable_fields"`
}

// RulesConfig describes the rule set source.
type RulesConfig struct {
	// Mode selects the source: "file" or "git".
	// Default: "file"
	Mode string `yaml:"mode"`

	// Path is a rule set file or a directory of .yaml/.yml files.
	// Default: "./rules"
	Path string `yaml:"path"`

	// Watch reloads rule sets when files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`

	// Git contains repository settings when Mode is "git".
	Git GitConfig `yaml:"git"`
}

// GitConfig describes a git-hosted rule repository.
type GitConfig struct {
	// Repository URL (HTTPS or SSH).
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path inside the repository holding rule files.
	// Default: "." (repository root)
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// Auth selects the authentication method.
	Auth GitAuthConfig `yaml:"auth"`

	// PollInterval between fetches; zero disables polling.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout for a single git operation.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// GitAuthConfig contains git authentication settings.
type GitAuthConfig struct {
	// Type: "token", "ssh" or "none".
	// Default: "none"
	Type string `yaml:"type"`

	// Token for HTTPS authentication.
	Token string `yaml:"token"`

	// SSHKeyPath for SSH authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassword decrypts the SSH key, if it is encrypted.
	SSHKeyPassword string `yaml:"ssh_key_password"`
}

// EvidenceConfig contains verdict evidence configuration.
type EvidenceConfig struct {
	// Enabled controls whether verdicts are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend: "memory", "sqlite" or "postgres".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// RecordMisses also stores verdicts where no rule matched.
	// Default: false
	RecordMisses bool `yaml:"record_misses"`

	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite storage settings.
type SQLiteConfig struct {
	// Path of the database file.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// Driver: "sqlite3" (cgo, mattn/go-sqlite3) or "modernc" (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns caps open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// PostgresConfig contains PostgreSQL storage settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// SSLMode: disable, require, verify-ca, verify-full.
	// Default: "require"
	SSLMode string `yaml:"sslmode"`

	// MaxOpenConns caps open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// RecorderConfig contains asynchronous recorder settings.
type RecorderConfig struct {
	// AsyncBuffer is the capacity of the write channel.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains pruning settings.
type RetentionConfig struct {
	// Days to keep records; 0 keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records; 0 is unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format: json or text.
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds file:line to every record.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactText replaces message text in log records with a digest.
	// Default: true
	RedactText bool `yaml:"redact_text"`

	// File, when set, sends logs to a rotated file instead of stdout.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the log file rotates.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	// Default: 5
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	// Default: 28
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	// Default: true
	Compress bool `yaml:"compress"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "matchgram"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint of the OTLP gRPC collector.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName reported on every span.
	// Default: "matchgram"
	ServiceName string `yaml:"service_name"`

	// SampleRatio in [0, 1].
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`
}

// TransportConfig contains message bus settings.
type TransportConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig contains NATS subscriber settings.
type NATSConfig struct {
	// Enabled starts the NATS subscriber in the run command.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// URL of the NATS server.
	// Default: "nats://127.0.0.1:4222"
	URL string `yaml:"url"`

	// Subject carrying message JSON.
	// Default: "matchgram.messages"
	Subject string `yaml:"subject"`

	// Queue group; subscribers in the same group share the load.
	// Default: "matchgram"
	Queue string `yaml:"queue"`

	// VerdictSubject receives verdict JSON.
	// Default: "matchgram.verdicts"
	VerdictSubject string `yaml:"verdict_subject"`

	// PublishMisses also publishes verdicts where nothing matched.
	// Default: false
	PublishMisses bool `yaml:"publish_misses"`
}
