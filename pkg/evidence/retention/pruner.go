package retention

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
)

// pruneBatch bounds how many records one count-based delete touches.
const pruneBatch = evidence.MaxQueryLimit

// Pruner deletes evidence past the retention period or over the record
// cap.
type Pruner struct {
	storage evidence.Storage
	cfg     config.RetentionConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewPruner creates a pruner. logger and collector may be nil.
func NewPruner(storage evidence.Storage, cfg config.RetentionConfig, logger *logging.Logger, collector *metrics.Collector) *Pruner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pruner{
		storage: storage,
		cfg:     cfg,
		logger:  logger.Component("evidence.retention"),
		metrics: collector,
		now:     time.Now,
	}
}

// Prune runs both phases: records older than Days are deleted, then the
// oldest records beyond MaxRecords. A zero setting disables its phase. It
// returns the number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.cfg.Days > 0 {
		n, err := p.pruneByAge(ctx)
		total += n
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
	}

	if p.cfg.MaxRecords > 0 {
		n, err := p.pruneByCount(ctx)
		total += n
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
	}

	p.metrics.RecordPruned(total)
	if total > 0 {
		p.logger.Info("Evidence pruned",
			"deleted", total,
			"retention_days", p.cfg.Days,
			"max_records", p.cfg.MaxRecords,
		)
	} else {
		p.logger.Debug("No evidence to prune")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.cfg.Days)
	n, err := p.storage.Delete(ctx, &evidence.Query{EndTime: &cutoff})
	if err != nil {
		return 0, evidence.NewRetentionError(p.cfg.Days, err)
	}
	return n, nil
}

// pruneByCount deletes the oldest records by id, in batches.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	var deleted int64
	for excess := count - p.cfg.MaxRecords; excess > 0; {
		batch := excess
		if batch > pruneBatch {
			batch = pruneBatch
		}
		oldest, err := p.storage.Query(ctx, &evidence.Query{Ascending: true, Limit: int(batch)})
		if err != nil {
			return deleted, fmt.Errorf("failed to query oldest records: %w", err)
		}
		if len(oldest) == 0 {
			break
		}

		ids := make([]string, len(oldest))
		for i, r := range oldest {
			ids[i] = r.ID
		}
		n, err := p.storage.Delete(ctx, &evidence.Query{IDs: ids})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete records: %w", err)
		}
		deleted += n
		excess -= int64(len(oldest))
	}
	return deleted, nil
}
