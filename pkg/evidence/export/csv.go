package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/matchgram/pkg/evidence"
)

// CSVExporter writes records as CSV.
type CSVExporter struct {
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var header = []string{
	"id", "time", "source", "version", "rule_set", "rule_name", "action", "matched", "group",
	"message_id", "chat_id", "chat_type", "from_id", "text_hash", "duration_us", "error",
}

func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(row(r)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

func row(r *evidence.Record) []string {
	return []string{
		r.ID,
		r.Time.UTC().Format(time.RFC3339Nano),
		r.Source,
		r.Version,
		r.RuleSet,
		r.RuleName,
		r.Action,
		strconv.FormatBool(r.Matched),
		strconv.Itoa(r.Group),
		strconv.FormatInt(r.MessageID, 10),
		strconv.FormatInt(r.ChatID, 10),
		r.ChatType,
		strconv.FormatInt(r.FromID, 10),
		r.TextHash,
		strconv.FormatInt(r.DurationUS, 10),
		r.Error,
	}
}
