package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/evidence/storage"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

var evidenceBase = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// seedEvidence writes a config pointing at a fresh SQLite database holding
// six records and selects it as the config file.
func seedEvidence(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "evidence.db")
	cfgPath := filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`evidence:
  enabled: true
  backend: sqlite
  sqlite:
    path: %s
    driver: modernc
telemetry:
  logging:
    level: error
`, dbPath)
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	store, err := storage.Open(context.Background(), cfg.Evidence, logging.Discard())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer store.Close()

	for i := 0; i < 6; i++ {
		rec := &evidence.Record{
			ID:        fmt.Sprintf("rec-%d", i),
			Time:      evidenceBase.Add(time.Duration(i) * time.Hour),
			Source:    "http",
			Group:     -1,
			MessageID: int64(100 + i),
			ChatID:    -100123,
		}
		if i%2 == 0 {
			rec.Matched = true
			rec.RuleSet, rec.RuleName, rec.Action, rec.Group = "spam", "gambling", "delete", 0
		}
		if i == 5 {
			rec.Source = "nats"
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}

	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = "" })
}

func resetEvidenceFlags() {
	evidenceFlags.backend = ""
	evidenceFlags.timeRange = ""
	evidenceFlags.ruleSet = ""
	evidenceFlags.rule = ""
	evidenceFlags.matched = false
	evidenceFlags.missed = false
	evidenceFlags.chatID = 0
	evidenceFlags.source = ""
	evidenceFlags.limit = evidence.DefaultQueryLimit
	evidenceFlags.offset = 0
	evidenceFlags.format = "text"
	evidenceFlags.output = ""
	evidenceFlags.days = 0
	evidenceFlags.maxRecord = 0
}

func TestQueryEvidence_Filters(t *testing.T) {
	seedEvidence(t)

	tests := []struct {
		name  string
		setup func()
		want  int
	}{
		{"all", func() {}, 6},
		{"matched", func() { evidenceFlags.matched = true }, 3},
		{"missed", func() { evidenceFlags.missed = true }, 3},
		{"rule", func() { evidenceFlags.ruleSet, evidenceFlags.rule = "spam", "gambling" }, 3},
		{"source", func() { evidenceFlags.source = "nats" }, 1},
		{"chat", func() { evidenceFlags.chatID = -100123 }, 6},
		{"limit", func() { evidenceFlags.limit = 2 }, 2},
		{"time range", func() {
			evidenceFlags.timeRange = "2026-10-18T13:00:00Z/2026-10-18T15:00:00Z"
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEvidenceFlags()
			evidenceFlags.format = "json"
			tt.setup()

			cmd, out := newTestCommand()
			if err := queryEvidence(cmd, nil); err != nil {
				t.Fatalf("queryEvidence() error = %v", err)
			}
			var records []*evidence.Record
			if err := json.Unmarshal(out.Bytes(), &records); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out.String())
			}
			if len(records) != tt.want {
				t.Errorf("len(records) = %d, want %d", len(records), tt.want)
			}
		})
	}
}

func TestQueryEvidence_Formats(t *testing.T) {
	seedEvidence(t)

	t.Run("text", func(t *testing.T) {
		resetEvidenceFlags()
		cmd, out := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		if !strings.Contains(out.String(), "spam/gambling") || !strings.HasPrefix(out.String(), "TIME") {
			t.Errorf("unexpected table:\n%s", out.String())
		}
	})

	t.Run("csv to file", func(t *testing.T) {
		resetEvidenceFlags()
		evidenceFlags.format = "csv"
		evidenceFlags.output = filepath.Join(t.TempDir(), "out.csv")
		cmd, _ := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		f, err := os.Open(evidenceFlags.output)
		if err != nil {
			t.Fatalf("open output: %v", err)
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("read csv: %v", err)
		}
		if len(rows) != 7 {
			t.Errorf("len(rows) = %d, want header + 6", len(rows))
		}
	})

	t.Run("jsonl", func(t *testing.T) {
		resetEvidenceFlags()
		evidenceFlags.format = "jsonl"
		cmd, out := newTestCommand()
		if err := queryEvidence(cmd, nil); err != nil {
			t.Fatalf("queryEvidence() error = %v", err)
		}
		if n := strings.Count(out.String(), "\n"); n != 6 {
			t.Errorf("lines = %d, want 6", n)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		resetEvidenceFlags()
		evidenceFlags.format = "xml"
		cmd, _ := newTestCommand()
		if err := queryEvidence(cmd, nil); err == nil {
			t.Error("queryEvidence() with unknown format should return error")
		}
	})
}

func TestQueryEvidence_BadTimeRange(t *testing.T) {
	resetEvidenceFlags()
	for _, tr := range []string{"yesterday", "2026-10-18T00:00:00Z/later", "2026-10-19T00:00:00Z/2026-10-18T00:00:00Z"} {
		evidenceFlags.timeRange = tr
		cmd, _ := newTestCommand()
		if err := queryEvidence(cmd, nil); err == nil {
			t.Errorf("queryEvidence(%q) should return error", tr)
		}
	}
}

func TestReportEvidence(t *testing.T) {
	seedEvidence(t)
	resetEvidenceFlags()

	cmd, out := newTestCommand()
	if err := reportEvidence(cmd, nil); err != nil {
		t.Fatalf("reportEvidence() error = %v", err)
	}
	for _, want := range []string{"Records: 6", "Hits:    3", "spam/gambling: 3 (100%)", "http: 5"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestPruneEvidence(t *testing.T) {
	seedEvidence(t)
	resetEvidenceFlags()
	evidenceFlags.maxRecord = 4

	cmd, out := newTestCommand()
	if err := pruneEvidence(cmd, nil); err != nil {
		t.Fatalf("pruneEvidence() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 2 record(s)") {
		t.Errorf("output = %q", out.String())
	}

	resetEvidenceFlags()
	evidenceFlags.format = "json"
	cmd, out = newTestCommand()
	if err := queryEvidence(cmd, nil); err != nil {
		t.Fatalf("queryEvidence() error = %v", err)
	}
	var records []*evidence.Record
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("len(records) after prune = %d, want 4", len(records))
	}
}

func TestSummarize(t *testing.T) {
	r := summarize([]*evidence.Record{
		{Source: "http", Matched: true, RuleSet: "a", RuleName: "x"},
		{Source: "nats", Error: "boom"},
	})
	if r.Total != 2 || r.Matched != 1 || r.Errors != 1 || r.ByRule["a/x"] != 1 {
		t.Errorf("summarize() = %+v", r)
	}
}
