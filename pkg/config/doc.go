// Package config provides configuration management for matchgram.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("matchgram.yaml")
//
// Environment variables follow the convention MATCHGRAM_SECTION_FIELD, for
// example MATCHGRAM_SERVER_LISTEN_ADDRESS or MATCHGRAM_TELEMETRY_LOGGING_LEVEL.
// List settings such as MATCHGRAM_COMPILER_ENABLE_FIELDS are comma separated.
//
// Precedence, later wins:
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//
// Validation collects every problem into a single ValidationError rather
// than stopping at the first.
//
// # Example
//
//	server:
//	  listen_address: 0.0.0.0:8080
//	compiler:
//	  enable_fields: [message.is_command]
//	rules:
//	  path: /etc/matchgram/rules
//	  watch: true
//	evidence:
//	  backend: sqlite
//	  sqlite:
//	    path: /var/lib/matchgram/evidence.db
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// There is no process-wide configuration. Commands load a *Config once and
// pass it to the packages that need it.
package config
