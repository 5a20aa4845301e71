package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// Scheduler runs a Pruner on a standard five-field cron schedule, for
// example "0 3 * * *" for daily at 03:00.
type Scheduler struct {
	pruner   *Pruner
	schedule string
	logger   *logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
}

// NewScheduler creates a scheduler. An empty schedule disables it.
func NewScheduler(pruner *Pruner, schedule string, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		logger:   logger.Component("evidence.scheduler"),
		cron:     cron.New(),
	}
}

// Start schedules pruning and returns. The scheduler stops when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("Prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	entry, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}
	s.entry = entry
	s.cron.Start()
	s.running = true

	s.logger.Info("Retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.pruner.cfg.Days,
		"max_records", s.pruner.cfg.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("Scheduled pruning failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Retention scheduler stopped")
}

// IsRunning reports whether the scheduler is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or the zero time when the
// scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}
