// Package storage holds the evidence backends.
//
// MemoryStorage keeps records in a map and is meant for tests and
// throwaway runs. SQLStorage serves both SQLite and PostgreSQL:
//
//	store, err := storage.NewSQLiteStorage(ctx, config.SQLiteConfig{
//		Path:    "data/evidence.db",
//		Driver:  storage.DriverModernc,
//		WALMode: true,
//	}, logger)
//
// SQLite runs on either mattn/go-sqlite3 (cgo) or modernc.org/sqlite (pure
// Go). PostgreSQL uses lib/pq. Open picks the backend from configuration.
//
// All backends order query results by record time, newest first unless
// Query.Ascending is set, with the record id breaking ties.
package storage
