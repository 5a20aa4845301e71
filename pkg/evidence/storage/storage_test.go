package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(i int, rule string, matched bool) *evidence.Record {
	group := -1
	if matched {
		group = 0
	}
	return &evidence.Record{
		ID:         fmt.Sprintf("rec-%02d", i),
		Time:       base.Add(time.Duration(i) * time.Minute),
		Source:     "http",
		Version:    "abc123",
		RuleSet:    "anti-spam",
		RuleName:   rule,
		Action:     "delete",
		Matched:    matched,
		Group:      group,
		MessageID:  int64(1000 + i),
		ChatID:     -100,
		ChatType:   "supergroup",
		FromID:     42,
		TextHash:   "deadbeef",
		DurationUS: 12,
	}
}

// exerciseStorage runs the behaviour every backend shares.
func exerciseStorage(t *testing.T, s evidence.Storage) {
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		rule := "gambling"
		if i%2 == 1 {
			rule = "ads"
		}
		require.NoError(t, s.Store(ctx, record(i, rule, i != 9)))
	}
	failed := record(10, "", false)
	failed.RuleSet = ""
	failed.Error = "context canceled"
	require.NoError(t, s.Store(ctx, failed))

	require.NoError(t, s.Ping(ctx))

	t.Run("newest first", func(t *testing.T) {
		got, err := s.Query(ctx, &evidence.Query{Limit: 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "rec-10", got[0].ID)
		assert.Equal(t, "rec-08", got[2].ID)
		assert.Equal(t, "context canceled", got[0].Error)
	})

	t.Run("ascending with offset", func(t *testing.T) {
		got, err := s.Query(ctx, &evidence.Query{Ascending: true, Offset: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "rec-02", got[0].ID)
		assert.Equal(t, "rec-03", got[1].ID)
	})

	t.Run("round trip", func(t *testing.T) {
		got, err := s.Query(ctx, &evidence.Query{IDs: []string{"rec-04"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		want := record(4, "gambling", true)
		assert.True(t, want.Time.Equal(got[0].Time), "Time = %v, want %v", got[0].Time, want.Time)
		got[0].Time = want.Time
		assert.Equal(t, want, got[0])
	})

	t.Run("filters", func(t *testing.T) {
		matched := true
		chat := int64(-100)
		start := base.Add(2 * time.Minute)
		end := base.Add(6 * time.Minute)

		tests := []struct {
			name  string
			query evidence.Query
			want  int64
		}{
			{"all", evidence.Query{}, 11},
			{"rule name", evidence.Query{RuleName: "gambling"}, 5},
			{"matched", evidence.Query{Matched: &matched}, 9},
			{"chat", evidence.Query{ChatID: &chat}, 11},
			{"time range", evidence.Query{StartTime: &start, EndTime: &end}, 5},
			{"ids", evidence.Query{IDs: []string{"rec-01", "rec-02", "missing"}}, 2},
			{"combined", evidence.Query{RuleName: "ads", StartTime: &start, EndTime: &end}, 2},
			{"source", evidence.Query{Source: "nats"}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				n, err := s.Count(ctx, &tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, n)
			})
		}
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := s.Query(ctx, &evidence.Query{Limit: -1})
		var qe *evidence.QueryError
		assert.ErrorAs(t, err, &qe)
	})

	t.Run("delete", func(t *testing.T) {
		cutoff := base.Add(4 * time.Minute)
		n, err := s.Delete(ctx, &evidence.Query{EndTime: &cutoff})
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		left, err := s.Count(ctx, &evidence.Query{})
		require.NoError(t, err)
		assert.Equal(t, int64(6), left)
	})
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	exerciseStorage(t, s)
}

func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	r := record(1, "gambling", true)
	require.NoError(t, s.Store(context.Background(), r))
	r.RuleName = "changed"

	got, err := s.Query(context.Background(), &evidence.Query{})
	require.NoError(t, err)
	assert.Equal(t, "gambling", got[0].RuleName)
}

func TestSQLiteStorage(t *testing.T) {
	for _, driver := range []string{DriverModernc, DriverMattn} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.SQLiteConfig{
				Path:         filepath.Join(t.TempDir(), "nested", "evidence.db"),
				Driver:       driver,
				MaxOpenConns: 4,
				WALMode:      true,
				BusyTimeout:  time.Second,
			}
			s, err := NewSQLiteStorage(context.Background(), cfg, nil)
			if err != nil && driver == DriverMattn && strings.Contains(err.Error(), "cgo") {
				t.Skip("mattn/go-sqlite3 needs cgo")
			}
			require.NoError(t, err)
			defer s.Close()

			exerciseStorage(t, s)

			// Reopening keeps the data and the schema version.
			reopened, err := NewSQLiteStorage(context.Background(), cfg, nil)
			require.NoError(t, err)
			defer reopened.Close()
			n, err := reopened.Count(context.Background(), &evidence.Query{})
			require.NoError(t, err)
			assert.Equal(t, int64(6), n)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	driver, dsn, err := sqliteDSN(config.SQLiteConfig{Path: "ev.db", Driver: DriverModernc, WALMode: true, BusyTimeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Contains(t, dsn, "busy_timeout%285000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")

	driver, dsn, err = sqliteDSN(config.SQLiteConfig{Path: "ev.db", BusyTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", driver)
	assert.Equal(t, "file:ev.db?_busy_timeout=1000", dsn)

	_, _, err = sqliteDSN(config.SQLiteConfig{Driver: "bolt"})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.EvidenceConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	_, err = Open(context.Background(), config.EvidenceConfig{Backend: "dynamo"}, nil)
	assert.Error(t, err)
}
