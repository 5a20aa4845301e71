package storage

import (
	"context"
	"fmt"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// Open creates the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.EvidenceConfig, logger *logging.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(ctx, cfg.SQLite, logger)
	case "postgres":
		return NewPostgresStorage(ctx, cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unknown evidence backend %q", cfg.Backend)
	}
}
