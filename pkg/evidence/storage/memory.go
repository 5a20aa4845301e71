package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/matchgram/pkg/evidence"
)

// MemoryStorage keeps records in a map. It is meant for tests and for
// running without a database; records are lost on exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*evidence.Record
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*evidence.Record)}
}

func (s *MemoryStorage) Store(_ context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *MemoryStorage) Query(_ context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := s.filter(q)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Time.Equal(b.Time) {
			return a.ID < b.ID
		}
		if q.Ascending {
			return a.Time.Before(b.Time)
		}
		return a.Time.After(b.Time)
	})

	if q.Offset >= len(matched) {
		return []*evidence.Record{}, nil
	}
	end := q.Offset + q.EffectiveLimit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], nil
}

func (s *MemoryStorage) Count(_ context.Context, q *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(q))), nil
}

func (s *MemoryStorage) Delete(_ context.Context, q *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matches(record, q) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStorage) Ping(context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

// filter returns copies of the matching records. The caller holds mu.
func (s *MemoryStorage) filter(q *evidence.Query) []*evidence.Record {
	var out []*evidence.Record
	for _, record := range s.records {
		if matches(record, q) {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out
}

func matches(r *evidence.Record, q *evidence.Query) bool {
	if len(q.IDs) > 0 && !contains(q.IDs, r.ID) {
		return false
	}
	if q.StartTime != nil && r.Time.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Time.After(*q.EndTime) {
		return false
	}
	if q.RuleSet != "" && r.RuleSet != q.RuleSet {
		return false
	}
	if q.RuleName != "" && r.RuleName != q.RuleName {
		return false
	}
	if q.Matched != nil && r.Matched != *q.Matched {
		return false
	}
	if q.ChatID != nil && r.ChatID != *q.ChatID {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
