package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MATCHGRAM_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Defaults are applied before and after unmarshalling, so boolean settings
// omitted from the file keep their defaults. An empty path yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MATCHGRAM_SECTION_FIELD (e.g. MATCHGRAM_SERVER_LISTEN_ADDRESS)
// and always take precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, os.Getenv)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	env := func(key string) string { return getenv(EnvPrefix + key) }

	setString(&cfg.Server.ListenAddress, env("SERVER_LISTEN_ADDRESS"))
	setDuration(&cfg.Server.ReadTimeout, env("SERVER_READ_TIMEOUT"))
	setDuration(&cfg.Server.WriteTimeout, env("SERVER_WRITE_TIMEOUT"))
	setDuration(&cfg.Server.ShutdownTimeout, env("SERVER_SHUTDOWN_TIMEOUT"))

	if val := env("COMPILER_ENABLE_FIELDS"); val != "" {
		cfg.Compiler.EnableFields = splitList(val)
	}
	if val := env("COMPILER_DISABLE_FIELDS"); val != "" {
		cfg.Compiler.DisableFields = splitList(val)
	}

	setString(&cfg.Rules.Mode, env("RULES_MODE"))
	setString(&cfg.Rules.Path, env("RULES_PATH"))
	setBool(&cfg.Rules.Watch, env("RULES_WATCH"))
	setString(&cfg.Rules.Git.Repository, env("RULES_GIT_REPOSITORY"))
	setString(&cfg.Rules.Git.Branch, env("RULES_GIT_BRANCH"))
	setString(&cfg.Rules.Git.Auth.Token, env("RULES_GIT_AUTH_TOKEN"))

	setBool(&cfg.Evidence.Enabled, env("EVIDENCE_ENABLED"))
	setString(&cfg.Evidence.Backend, env("EVIDENCE_BACKEND"))
	setString(&cfg.Evidence.SQLite.Path, env("EVIDENCE_SQLITE_PATH"))
	setString(&cfg.Evidence.SQLite.Driver, env("EVIDENCE_SQLITE_DRIVER"))
	setString(&cfg.Evidence.Postgres.Host, env("EVIDENCE_POSTGRES_HOST"))
	setInt(&cfg.Evidence.Postgres.Port, env("EVIDENCE_POSTGRES_PORT"))
	setString(&cfg.Evidence.Postgres.Database, env("EVIDENCE_POSTGRES_DATABASE"))
	setString(&cfg.Evidence.Postgres.User, env("EVIDENCE_POSTGRES_USER"))
	setString(&cfg.Evidence.Postgres.Password, env("EVIDENCE_POSTGRES_PASSWORD"))
	setInt(&cfg.Evidence.Retention.Days, env("EVIDENCE_RETENTION_DAYS"))

	setString(&cfg.Telemetry.Logging.Level, env("TELEMETRY_LOGGING_LEVEL"))
	setString(&cfg.Telemetry.Logging.Format, env("TELEMETRY_LOGGING_FORMAT"))
	setString(&cfg.Telemetry.Logging.File, env("TELEMETRY_LOGGING_FILE"))
	setBool(&cfg.Telemetry.Metrics.Enabled, env("TELEMETRY_METRICS_ENABLED"))
	setBool(&cfg.Telemetry.Tracing.Enabled, env("TELEMETRY_TRACING_ENABLED"))
	setString(&cfg.Telemetry.Tracing.Endpoint, env("TELEMETRY_TRACING_ENDPOINT"))

	setBool(&cfg.Transport.NATS.Enabled, env("TRANSPORT_NATS_ENABLED"))
	setString(&cfg.Transport.NATS.URL, env("TRANSPORT_NATS_URL"))
	setString(&cfg.Transport.NATS.Subject, env("TRANSPORT_NATS_SUBJECT"))
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// Malformed values are ignored and the file setting is kept.
func setInt(dst *int, val string) {
	if n, err := strconv.Atoi(val); err == nil {
		*dst = n
	}
}

func setBool(dst *bool, val string) {
	if b, err := strconv.ParseBool(val); err == nil {
		*dst = b
	}
}

func setDuration(dst *time.Duration, val string) {
	if d, err := time.ParseDuration(val); err == nil {
		*dst = d
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
