package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
)

type ruleTable struct {
	Rules []string `json:"rules"`
}

func (r ruleTable) Header() []string { return []string{"ID", "ACTION"} }

func (r ruleTable) Rows() [][]string {
	rows := make([][]string, len(r.Rules))
	for i, id := range r.Rules {
		rows[i] = []string{id, "delete"}
	}
	return rows
}

type summary struct{ n int }

func (s summary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d rules\n", s.n)
	return err
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"plain", "test message", "test message\n"},
		{"text writer", summary{n: 3}, "3 rules\n"},
		{"table", ruleTable{Rules: []string{"spam/ads"}}, "ID        ACTION\nspam/ads  delete\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := (&TextFormatter{}).FormatTo(buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("FormatTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := ruleTable{Rules: []string{"spam/ads", "spam/gambling"}}
	if err := NewFormatter(FormatJSON).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got ruleTable
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got.Rules) != 2 {
		t.Errorf("Rules = %v", got.Rules)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := ruleTable{Rules: []string{"spam/ads", `odd,"id"`}}
	if err := NewFormatter(FormatCSV).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	want := "ID,ACTION\nspam/ads,delete\n\"odd,\"\"id\"\"\",delete\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := NewFormatter(FormatCSV).FormatTo(buf, "not a table"); err == nil {
		t.Error("expected an error for non-table data")
	}
}
