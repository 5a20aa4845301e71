package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq" // registers "postgres"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// NewPostgresStorage connects to PostgreSQL and migrates the schema.
func NewPostgresStorage(ctx context.Context, cfg config.PostgresConfig, logger *logging.Logger) (*SQLStorage, error) {
	db, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	s, err := NewPostgresFromDB(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("PostgreSQL evidence storage initialized",
		"host", cfg.Host,
		"database", cfg.Database,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// NewPostgresFromDB uses an existing pool, which must talk to PostgreSQL.
func NewPostgresFromDB(ctx context.Context, db *sql.DB, logger *logging.Logger) (*SQLStorage, error) {
	s := newSQLStorage(db, "postgres", true, logger)
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// PostgresDSN renders cfg as a postgres:// URL.
func PostgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
