package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// SQLite driver choices for config.SQLiteConfig.Driver.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "modernc"
)

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path and
// migrates it.
func NewSQLiteStorage(ctx context.Context, cfg config.SQLiteConfig, logger *logging.Logger) (*SQLStorage, error) {
	if cfg.Path == "" {
		cfg.Path = config.DefaultSQLitePath
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create evidence directory: %w", err)
		}
	}

	driver, dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := newSQLStorage(db, "sqlite", false, logger)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite evidence storage initialized",
		"path", cfg.Path,
		"driver", driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// sqliteDSN puts the pragmas in the DSN so that every pooled connection
// gets them, not just the first.
func sqliteDSN(cfg config.SQLiteConfig) (driver, dsn string, err error) {
	busy := cfg.BusyTimeout.Milliseconds()
	params := url.Values{}

	switch cfg.Driver {
	case DriverMattn, "":
		params.Set("_busy_timeout", fmt.Sprint(busy))
		if cfg.WALMode {
			params.Set("_journal_mode", "WAL")
		}
		return "sqlite3", "file:" + cfg.Path + "?" + params.Encode(), nil
	case DriverModernc:
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if cfg.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
		return "sqlite", "file:" + cfg.Path + "?" + params.Encode(), nil
	default:
		return "", "", fmt.Errorf("unknown sqlite driver %q (want %s or %s)", cfg.Driver, DriverMattn, DriverModernc)
	}
}
