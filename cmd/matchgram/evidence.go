package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/evidence"
	"mercator-hq/matchgram/pkg/evidence/export"
	"mercator-hq/matchgram/pkg/evidence/retention"
	"mercator-hq/matchgram/pkg/evidence/storage"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

var evidenceFlags struct {
	backend   string
	timeRange string
	ruleSet   string
	rule      string
	matched   bool
	missed    bool
	chatID    int64
	source    string
	limit     int
	offset    int
	format    string
	output    string
	days      int
	maxRecord int64
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query evidence database",
	Long: `Query, report on and prune the evidence records written for every
rule decision.

Subcommands:
  query   - Query evidence records with filters
  report  - Summarize hits per rule and source
  prune   - Apply the retention policy now

Examples:
  # Hits from the last day
  matchgram evidence query --matched --time-range "2026-10-18T00:00:00Z/2026-10-19T00:00:00Z"

  # Export one rule's hits as CSV
  matchgram evidence query --rule-set spam --rule gambling --format csv --output hits.csv`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-18T00:00:00Z/2026-10-19T00:00:00Z"

Output formats: text, json, jsonl, csv`,
	RunE: queryEvidence,
}

var evidenceReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize evidence records",
	RunE:  reportEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Long: `Delete evidence records older than the retention period or beyond the
record limit. Flags override the configured retention policy.`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceReportCmd, evidencePruneCmd)

	for _, c := range []*cobra.Command{evidenceQueryCmd, evidenceReportCmd, evidencePruneCmd} {
		c.Flags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, postgres, memory (uses config if not specified)")
	}
	for _, c := range []*cobra.Command{evidenceQueryCmd, evidenceReportCmd} {
		c.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().StringVar(&evidenceFlags.ruleSet, "rule-set", "", "filter by rule set")
		c.Flags().StringVar(&evidenceFlags.source, "source", "", "filter by source: http, websocket, nats")
		c.Flags().Int64Var(&evidenceFlags.chatID, "chat-id", 0, "filter by chat ID")
	}

	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.rule, "rule", "", "filter by rule name")
	evidenceQueryCmd.Flags().BoolVar(&evidenceFlags.matched, "matched", false, "only rule hits")
	evidenceQueryCmd.Flags().BoolVar(&evidenceFlags.missed, "missed", false, "only misses")
	evidenceQueryCmd.MarkFlagsMutuallyExclusive("matched", "missed")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", evidence.DefaultQueryLimit, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, jsonl, csv")
	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", 0, "retention period in days")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecord, "max-records", 0, "maximum records to keep")
}

func openEvidence(ctx context.Context, cfg *config.Config) (evidence.Storage, error) {
	ec := cfg.Evidence
	if evidenceFlags.backend != "" {
		ec.Backend = evidenceFlags.backend
	}
	store, err := storage.Open(ctx, ec, logging.Discard())
	if err != nil {
		return nil, cli.NewCommandError("evidence", err)
	}
	return store, nil
}

func buildQuery() (*evidence.Query, error) {
	q := &evidence.Query{
		RuleSet:  evidenceFlags.ruleSet,
		RuleName: evidenceFlags.rule,
		Source:   evidenceFlags.source,
		Limit:    evidenceFlags.limit,
		Offset:   evidenceFlags.offset,
	}
	if evidenceFlags.timeRange != "" {
		start, end, err := parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = &start, &end
	}
	switch {
	case evidenceFlags.matched:
		matched := true
		q.Matched = &matched
	case evidenceFlags.missed:
		matched := false
		q.Matched = &matched
	}
	if evidenceFlags.chatID != 0 {
		id := evidenceFlags.chatID
		q.ChatID = &id
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	q, err := buildQuery()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	store, err := openEvidence(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	out := cmd.OutOrStdout()
	if evidenceFlags.output != "" {
		f, err := os.Create(evidenceFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if evidenceFlags.format == "text" {
		return cli.NewFormatter(cli.FormatText).FormatTo(out, recordTable(records))
	}
	exporter, err := export.New(evidenceFlags.format)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, records, out)
}

// recordTable renders records as an aligned table.
type recordTable []*evidence.Record

func (t recordTable) Header() []string {
	return []string{"TIME", "SOURCE", "RULE", "GROUP", "CHAT", "MESSAGE", "ACTION"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rule, group := "-", "-"
		if r.Matched {
			rule = r.RuleSet + "/" + r.RuleName
			group = strconv.Itoa(r.Group)
		}
		rows = append(rows, []string{
			r.Time.UTC().Format(time.RFC3339),
			r.Source,
			rule,
			group,
			strconv.FormatInt(r.ChatID, 10),
			strconv.FormatInt(r.MessageID, 10),
			r.Action,
		})
	}
	return rows
}

// Report summarizes a set of evidence records.
type Report struct {
	Total    int            `json:"total"`
	Matched  int            `json:"matched"`
	ByRule   map[string]int `json:"by_rule"`
	BySource map[string]int `json:"by_source"`
	Errors   int            `json:"errors"`
}

func summarize(records []*evidence.Record) *Report {
	r := &Report{ByRule: map[string]int{}, BySource: map[string]int{}}
	for _, rec := range records {
		r.Total++
		r.BySource[rec.Source]++
		if rec.Error != "" {
			r.Errors++
		}
		if rec.Matched {
			r.Matched++
			r.ByRule[rec.RuleSet+"/"+rec.RuleName]++
		}
	}
	return r
}

func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintln(w, "Evidence Report")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Records: %d\n", r.Total)
	fmt.Fprintf(w, "Hits:    %d\n", r.Matched)
	fmt.Fprintf(w, "Errors:  %d\n", r.Errors)

	writeCounts(w, "By Rule:", r.ByRule, r.Matched)
	writeCounts(w, "By Source:", r.BySource, r.Total)
	return nil
}

func writeCounts(w io.Writer, title string, counts map[string]int, total int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, k := range keys {
		pct := float64(counts[k]) / float64(total) * 100
		fmt.Fprintf(w, "  %s: %d (%.0f%%)\n", k, counts[k], pct)
	}
}

func reportEvidence(cmd *cobra.Command, args []string) error {
	evidenceFlags.limit = evidence.MaxQueryLimit
	evidenceFlags.offset = 0
	q, err := buildQuery()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	store, err := openEvidence(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}
	return cli.NewFormatter(cli.FormatText).FormatTo(cmd.OutOrStdout(), summarize(records))
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rc := cfg.Evidence.Retention
	if evidenceFlags.days > 0 {
		rc.Days = evidenceFlags.days
	}
	if evidenceFlags.maxRecord > 0 {
		rc.MaxRecords = evidenceFlags.maxRecord
	}

	ctx := commandContext(cmd)
	store, err := openEvidence(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := retention.NewPruner(store, rc, logging.Discard(), nil).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("prune failed: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d record(s)\n", n)
	return nil
}
