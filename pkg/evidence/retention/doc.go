// Package retention removes old evidence.
//
// A Pruner deletes records older than retention.days and then the oldest
// records beyond retention.max_records. A Scheduler runs it on the cron
// schedule in retention.prune_schedule; the `evidence prune` command runs
// it once.
package retention
