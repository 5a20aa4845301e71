// Package evidence records rule decisions for audit.
//
// Every evaluated message can leave a trail: one Record per rule hit, and
// optionally one record for a message no rule matched. Records carry the
// rule set version, the message and chat ids, and a SHA-256 of the text.
// The text itself is never stored.
//
// # Layers
//
//  1. recorder.Recorder turns verdicts into records and writes them through
//     a buffered channel so evaluation never waits on storage.
//  2. storage holds the backends: memory, sqlite (mattn/go-sqlite3 or the
//     pure Go modernc.org/sqlite driver) and postgres (lib/pq).
//  3. retention.Pruner deletes by age and by count, and retention.Scheduler
//     runs it on a cron schedule.
//  4. export writes query results as JSON or CSV.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, cfg.Evidence, logger)
//	if err != nil {
//		return err
//	}
//	rec := recorder.New(store, recorder.Config{AsyncBuffer: 1000}, logger, collector)
//	defer rec.Close()
//
//	verdict := manager.Evaluate(ctx, msg)
//	rec.RecordVerdict(ctx, "http", msg, verdict)
//
// # Querying
//
//	matched := true
//	records, err := store.Query(ctx, &evidence.Query{
//		RuleName: "gambling",
//		Matched:  &matched,
//		Limit:    50,
//	})
package evidence
