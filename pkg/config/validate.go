package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/matchgram/pkg/rule/ast"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCompiler(&cfg.Compiler)...)
	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateTransport(&cfg.Transport)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "write timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{"server.max_body_bytes", "max body bytes must be non-negative"})
	}

	return errs
}

func validateCompiler(cfg *CompilerConfig) []FieldError {
	var errs []FieldError

	check := func(section string, names []string) {
		for i, name := range names {
			if _, ok := ast.ParseField(name); !ok {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("compiler.%s[%d]", section, i),
					Message: fmt.Sprintf("unknown field %q", name),
				})
			}
		}
	}
	check("enable_fields", cfg.EnableFields)
	check("disable_fields", cfg.DisableFields)

	return errs
}

func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "file":
		if cfg.Path == "" {
			errs = append(errs, FieldError{"rules.path", "rules path is required when mode is 'file'"})
		}
	case "git":
		if cfg.Git.Repository == "" {
			errs = append(errs, FieldError{"rules.git.repository", "repository is required when mode is 'git'"})
		}
		switch cfg.Git.Auth.Type {
		case "none":
		case "token":
			if cfg.Git.Auth.Token == "" {
				errs = append(errs, FieldError{"rules.git.auth.token", "token is required when auth type is 'token'"})
			}
		case "ssh":
			if cfg.Git.Auth.SSHKeyPath == "" {
				errs = append(errs, FieldError{"rules.git.auth.ssh_key_path", "SSH key path is required when auth type is 'ssh'"})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "rules.git.auth.type",
				Message: fmt.Sprintf("invalid auth type %q: must be 'none', 'token', or 'ssh'", cfg.Git.Auth.Type),
			})
		}
		if cfg.Git.Depth < 0 {
			errs = append(errs, FieldError{"rules.git.depth", "depth must be non-negative"})
		}
		if cfg.Git.PollInterval < 0 {
			errs = append(errs, FieldError{"rules.git.poll_interval", "poll interval must be non-negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rules.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'file' or 'git'", cfg.Mode),
		})
	}

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{"rules.debounce", "debounce must be non-negative"})
	}

	return errs
}

func validateEvidence(cfg *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{"evidence.sqlite.path", "SQLite path is required when backend is 'sqlite'"})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "modernc" {
			errs = append(errs, FieldError{
				Field:   "evidence.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'modernc'", cfg.SQLite.Driver),
			})
		}
	case "postgres":
		if cfg.Postgres.Host == "" {
			errs = append(errs, FieldError{"evidence.postgres.host", "PostgreSQL host is required when backend is 'postgres'"})
		}
		if cfg.Postgres.Port < 1 || cfg.Postgres.Port > 65535 {
			errs = append(errs, FieldError{"evidence.postgres.port", "PostgreSQL port must be between 1 and 65535"})
		}
		if cfg.Postgres.Database == "" {
			errs = append(errs, FieldError{"evidence.postgres.database", "PostgreSQL database is required when backend is 'postgres'"})
		}
		if cfg.Postgres.User == "" {
			errs = append(errs, FieldError{"evidence.postgres.user", "PostgreSQL user is required when backend is 'postgres'"})
		}
		switch cfg.Postgres.SSLMode {
		case "disable", "require", "verify-ca", "verify-full":
		default:
			errs = append(errs, FieldError{
				Field:   "evidence.postgres.sslmode",
				Message: fmt.Sprintf("invalid sslmode %q", cfg.Postgres.SSLMode),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "evidence.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', or 'postgres'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer < 0 {
		errs = append(errs, FieldError{"evidence.recorder.async_buffer", "async buffer must be non-negative"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{"evidence.retention.days", "retention days must be non-negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{"evidence.retention.max_records", "max records must be non-negative"})
	}
	if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "metrics path must start with '/'"})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{"telemetry.tracing.endpoint", "endpoint is required when tracing is enabled"})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "sample ratio must be between 0 and 1"})
		}
	}

	return errs
}

func validateTransport(cfg *TransportConfig) []FieldError {
	var errs []FieldError

	n := &cfg.NATS
	if !n.Enabled {
		return errs
	}
	if n.URL == "" {
		errs = append(errs, FieldError{"transport.nats.url", "URL is required when NATS is enabled"})
	}
	if n.Subject == "" {
		errs = append(errs, FieldError{"transport.nats.subject", "subject is required when NATS is enabled"})
	}
	if n.VerdictSubject != "" && n.VerdictSubject == n.Subject {
		errs = append(errs, FieldError{"transport.nats.verdict_subject", "verdict subject must differ from the message subject"})
	}

	return errs
}
