package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// SQLStorage implements evidence.Storage on database/sql. The SQLite and
// PostgreSQL backends share it and differ only in the driver, the DSN and
// the placeholder style.
type SQLStorage struct {
	db      *sql.DB
	backend string
	dollar  bool // PostgreSQL-style $n placeholders
	logger  *logging.Logger
}

func newSQLStorage(db *sql.DB, backend string, dollar bool, logger *logging.Logger) *SQLStorage {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SQLStorage{
		db:      db,
		backend: backend,
		dollar:  dollar,
		logger:  logger.Component("evidence.storage." + backend),
	}
}

// migrate creates the schema and checks its version.
func (s *SQLStorage) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return evidence.NewStorageError(s.backend, "create_schema", err)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(InsertSchemaVersion), SchemaVersion, time.Now().UnixNano()); err != nil {
		return evidence.NewStorageError(s.backend, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return evidence.NewStorageError(s.backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError(s.backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	s.logger.Debug("Schema version verified", "version", version)
	return nil
}

func (s *SQLStorage) Store(ctx context.Context, r *evidence.Record) error {
	// Empty errors are stored as NULL.
	var errVal any
	if r.Error != "" {
		errVal = r.Error
	}

	query := "INSERT INTO evidence (" + columns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		r.ID, r.Time.UnixNano(), r.Source, r.Version,
		r.RuleSet, r.RuleName, r.Action, boolToInt(r.Matched), r.Group,
		r.MessageID, r.ChatID, r.ChatType, r.FromID, r.TextHash,
		r.DurationUS, errVal,
	)
	if err != nil {
		return evidence.NewStorageError(s.backend, "store", err)
	}
	return nil
}

func (s *SQLStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	where, args := buildWhere(q)
	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}
	query := fmt.Sprintf("SELECT %s FROM evidence%s ORDER BY recorded_at %s, id ASC LIMIT %d",
		columns, where, order, q.EffectiveLimit())
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, evidence.NewStorageError(s.backend, "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewStorageError(s.backend, "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError(s.backend, "query", err)
	}
	return records, nil
}

func (s *SQLStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhere(q)
	var count int64
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM evidence"+where), args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError(s.backend, "count", err)
	}
	return count, nil
}

func (s *SQLStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhere(q)
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM evidence"+where), args...)
	if err != nil {
		return 0, evidence.NewStorageError(s.backend, "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError(s.backend, "delete", err)
	}
	return n, nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return evidence.NewStorageError(s.backend, "ping", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError(s.backend, "close", err)
	}
	s.logger.Info("Evidence storage closed")
	return nil
}

// DB exposes the underlying pool.
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

// buildWhere returns " WHERE ..." with ? placeholders, or "" when q has no
// filters.
func buildWhere(q *evidence.Query) (string, []any) {
	var conds []string
	var args []any

	if len(q.IDs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(q.IDs)), ", ")
		conds = append(conds, "id IN ("+marks+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if q.StartTime != nil {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.RuleSet != "" {
		conds = append(conds, "rule_set = ?")
		args = append(args, q.RuleSet)
	}
	if q.RuleName != "" {
		conds = append(conds, "rule_name = ?")
		args = append(args, q.RuleName)
	}
	if q.Matched != nil {
		conds = append(conds, "matched = ?")
		args = append(args, boolToInt(*q.Matched))
	}
	if q.ChatID != nil {
		conds = append(conds, "chat_id = ?")
		args = append(args, *q.ChatID)
	}
	if q.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, q.Source)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL. Queries
// never contain a literal question mark.
func (s *SQLStorage) rebind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func scanRecord(rows *sql.Rows) (*evidence.Record, error) {
	var r evidence.Record
	var recordedAt int64
	var matched int
	var errVal sql.NullString

	err := rows.Scan(
		&r.ID, &recordedAt, &r.Source, &r.Version,
		&r.RuleSet, &r.RuleName, &r.Action, &matched, &r.Group,
		&r.MessageID, &r.ChatID, &r.ChatType, &r.FromID, &r.TextHash,
		&r.DurationUS, &errVal,
	)
	if err != nil {
		return nil, err
	}
	r.Time = time.Unix(0, recordedAt).UTC()
	r.Matched = matched != 0
	r.Error = errVal.String
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
