// Package recorder writes evidence for evaluated messages.
//
// Records builds the records for a verdict and Recorder queues them for a
// background worker. A full queue blocks the caller for at most
// WriteTimeout before the record is dropped and counted in the
// matchgram_evidence_records_total{result="dropped"} metric.
package recorder
