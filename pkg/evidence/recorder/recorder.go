package recorder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/ruleset"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
)

// Config configures a Recorder.
type Config struct {
	// AsyncBuffer is the capacity of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both waiting for queue space and a single storage
	// write.
	// Default: 5s
	WriteTimeout time.Duration

	// RecordMisses writes a record for messages no rule matched.
	RecordMisses bool
}

// ConfigFrom converts the evidence section of the configuration.
func ConfigFrom(cfg config.EvidenceConfig) Config {
	return Config{
		AsyncBuffer:  cfg.Recorder.AsyncBuffer,
		WriteTimeout: cfg.Recorder.WriteTimeout,
		RecordMisses: cfg.RecordMisses,
	}
}

// Recorder turns verdicts into evidence records and writes them from a
// background worker, so evaluation never waits on storage.
type Recorder struct {
	storage evidence.Storage
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.Collector

	queue     chan *evidence.Record
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts a recorder writing to storage. logger and collector may be
// nil.
func New(storage evidence.Storage, cfg Config, logger *logging.Logger, collector *metrics.Collector) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultRecorderAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultRecorderWriteTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}

	r := &Recorder{
		storage: storage,
		cfg:     cfg,
		logger:  logger.Component("evidence.recorder"),
		metrics: collector,
		queue:   make(chan *evidence.Record, cfg.AsyncBuffer),
		done:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.worker()

	r.logger.Info("Evidence recorder started",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
		"record_misses", cfg.RecordMisses,
	)
	return r
}

// RecordVerdict queues the records for one evaluated message. source names
// the entry point ("http", "websocket", "nats"). It returns once the
// records are queued; the first record that cannot be queued is reported.
func (r *Recorder) RecordVerdict(ctx context.Context, source string, msg *message.Message, v *ruleset.Verdict) error {
	records := Records(source, msg, v, r.cfg.RecordMisses, time.Now())
	for _, rec := range records {
		if err := r.enqueue(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) enqueue(ctx context.Context, rec *evidence.Record) error {
	// A closed recorder must never accept work, even with queue space.
	select {
	case <-r.done:
		r.metrics.RecordEvidence("dropped")
		return evidence.NewRecorderError(rec.ID, context.Canceled)
	default:
	}

	timer := time.NewTimer(r.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case r.queue <- rec:
		r.metrics.SetEvidenceQueueDepth(len(r.queue))
		return nil
	case <-timer.C:
		r.metrics.RecordEvidence("dropped")
		r.logger.Error("Evidence queue full, dropping record",
			"record_id", rec.ID,
			"capacity", r.cfg.AsyncBuffer,
		)
		return evidence.NewRecorderError(rec.ID, context.DeadlineExceeded)
	case <-ctx.Done():
		r.metrics.RecordEvidence("dropped")
		return evidence.NewRecorderError(rec.ID, ctx.Err())
	case <-r.done:
		r.metrics.RecordEvidence("dropped")
		return evidence.NewRecorderError(rec.ID, context.Canceled)
	}
}

// Close stops accepting records, writes everything already queued, and
// waits for the worker to exit. It does not close the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("Evidence recorder stopped")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	err := r.storage.Store(ctx, rec)
	r.metrics.SetEvidenceQueueDepth(len(r.queue))
	if err != nil {
		r.metrics.RecordEvidence("failed")
		r.logger.Error("Failed to store evidence record", "record_id", rec.ID, "error", err)
		return
	}
	r.metrics.RecordEvidence("stored")
}

// Records builds the evidence for one verdict: a record per hit, a record
// per rule that failed to evaluate, and when recordMisses is set a single
// miss record if neither exists.
func Records(source string, msg *message.Message, v *ruleset.Verdict, recordMisses bool, now time.Time) []*evidence.Record {
	base := evidence.Record{
		Time:       now.UTC(),
		Source:     source,
		Version:    v.Version,
		Group:      -1,
		DurationUS: v.Duration.Microseconds(),
	}
	if msg != nil {
		base.MessageID = msg.MessageID
		base.TextHash = HashText(msg.TextOrCaption())
		if msg.Chat != nil {
			base.ChatID = msg.Chat.ID
			base.ChatType = msg.Chat.Type
		}
		if msg.From != nil {
			base.FromID = msg.From.ID
		}
	}

	records := make([]*evidence.Record, 0, len(v.Matched)+len(v.Errors))
	for _, hit := range v.Matched {
		rec := base
		rec.ID = uuid.NewString()
		rec.RuleSet = hit.RuleSet
		rec.RuleName = hit.Rule
		rec.Action = hit.Action
		rec.Matched = true
		rec.Group = hit.Group
		records = append(records, &rec)
	}
	for _, e := range v.Errors {
		rec := base
		rec.ID = uuid.NewString()
		rec.RuleSet = e.RuleSet
		rec.RuleName = e.Rule
		rec.Error = e.Error
		records = append(records, &rec)
	}
	if len(records) == 0 && recordMisses {
		rec := base
		rec.ID = uuid.NewString()
		records = append(records, &rec)
	}
	return records
}

// HashText returns the hex SHA-256 of text, or "" for empty text.
func HashText(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
