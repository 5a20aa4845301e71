// Package export writes evidence records as JSON, JSON lines or CSV.
package export

import (
	"fmt"

	"mercator-hq/matchgram/pkg/evidence"
)

// Formats lists the names New accepts.
var Formats = []string{"json", "jsonl", "csv"}

// New returns the exporter for format.
func New(format string) (evidence.Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(true), nil
	case "jsonl":
		return JSONLinesExporter{}, nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want json, jsonl or csv)", format)
	}
}
