package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/matchgram/pkg/evidence"
)

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records as an array; no records give "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	if records == nil {
		records = []*evidence.Record{}
	}
	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}

// JSONLinesExporter writes one record per line.
type JSONLinesExporter struct{}

func (JSONLinesExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	enc := json.NewEncoder(w)
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(r); err != nil {
			return evidence.NewExportError("jsonl", i, err)
		}
	}
	return nil
}
