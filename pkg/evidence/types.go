package evidence

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Record is the audit trail of one rule decision on one message. A message
// that hits several rules produces one record per hit; a message that hits
// nothing produces a single record with Matched false when misses are
// recorded.
type Record struct {
	ID       string    `json:"id"`        // UUID v4
	Time     time.Time `json:"time"`      // when the message was evaluated
	Source   string    `json:"source"`    // "http", "websocket", "nats"
	Version  string    `json:"version"`   // rule set version that produced the decision
	RuleSet  string    `json:"rule_set"`  // empty for misses
	RuleName string    `json:"rule_name"` // empty for misses
	Action   string    `json:"action,omitempty"`
	Matched  bool      `json:"matched"`
	Group    int       `json:"group"` // matching group index, -1 for misses

	MessageID int64  `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
	ChatType  string `json:"chat_type,omitempty"`
	FromID    int64  `json:"from_id"`
	TextHash  string `json:"text_hash,omitempty"` // SHA-256 of text or caption; the text itself is never stored

	DurationUS int64  `json:"duration_us"` // whole evaluation, not just this rule
	Error      string `json:"error,omitempty"`
}

// Query filters records. Zero values match everything.
type Query struct {
	IDs       []string   `json:"ids,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"` // inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // inclusive
	RuleSet   string     `json:"rule_set,omitempty"`
	RuleName  string     `json:"rule_name,omitempty"`
	Matched   *bool      `json:"matched,omitempty"`
	ChatID    *int64     `json:"chat_id,omitempty"`
	Source    string     `json:"source,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Ascending returns the oldest records first. The default is newest
	// first.
	Ascending bool `json:"ascending,omitempty"`
}

const (
	// DefaultQueryLimit applies when a query sets no limit.
	DefaultQueryLimit = 100

	// MaxQueryLimit caps a single query.
	MaxQueryLimit = 10000
)

// Validate checks the query parameters.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxQueryLimit {
		return NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxQueryLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}
	return nil
}

// EffectiveLimit returns Limit, or DefaultQueryLimit when unset.
func (q *Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultQueryLimit
	}
	return q.Limit
}

// Storage persists evidence records. Implementations are safe for
// concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching q, newest first unless
	// q.Ascending is set.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q. Limit and Offset
	// are ignored.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes the records matching q and returns how many were
	// removed. Limit and Offset are ignored.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Exporter writes records in some output format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
