package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or csv)", s)
	}
}

// Table is tabular command output. Text and CSV output render it as rows;
// JSON output encodes the value itself.
type Table interface {
	Header() []string
	Rows() [][]string
}

// TextWriter is implemented by results with a custom text rendering.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter renders TextWriter and Table values, and falls back to %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case TextWriter:
		return v.WriteText(w)
	case Table:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		writeTabbed(tw, v.Header())
		for _, row := range v.Rows() {
			writeTabbed(tw, row)
		}
		return tw.Flush()
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

func writeTabbed(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats Table values as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	table, ok := data.(Table)
	if !ok {
		return fmt.Errorf("%T cannot be written as CSV", data)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(table.Header()); err != nil {
		return err
	}
	for _, row := range table.Rows() {
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
