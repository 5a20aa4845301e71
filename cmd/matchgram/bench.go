package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/rule"
)

var benchFlags struct {
	rule       string
	message    string
	iterations int
	quiet      bool
	format     string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure rule evaluation speed",
	Long: `Compile a rule once and evaluate it repeatedly against one message,
reporting compile time and the cost of a single evaluation.

Examples:
  matchgram bench --rule '(message.text all {"承接" "广告"})' --message msg.json
  matchgram bench --rule "$(cat big-rule.txt)" --iterations 1000 < msg.json`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchFlags.rule, "rule", "r", "", "rule text to benchmark (required)")
	benchCmd.Flags().StringVarP(&benchFlags.message, "message", "m", "-", "message JSON file, - for stdin")
	benchCmd.Flags().IntVarP(&benchFlags.iterations, "iterations", "n", 100000, "number of evaluations")
	benchCmd.Flags().BoolVarP(&benchFlags.quiet, "quiet", "q", false, "hide the progress bar")
	benchCmd.Flags().StringVar(&benchFlags.format, "format", "text", "output format: text, json")
}

// BenchResult summarises a bench run.
type BenchResult struct {
	RuleLength    int           `json:"rule_length"`
	Groups        int           `json:"groups"`
	Compile       time.Duration `json:"compile_ns"`
	Iterations    int           `json:"iterations"`
	Total         time.Duration `json:"total_ns"`
	PerEvaluation time.Duration `json:"per_evaluation_ns"`
	Matched       bool          `json:"matched"`
}

func (r BenchResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Rule:        %d chars, %d group(s)\n", r.RuleLength, r.Groups)
	fmt.Fprintf(w, "Compile:     %s\n", r.Compile)
	fmt.Fprintf(w, "Evaluations: %d in %s\n", r.Iterations, r.Total.Round(time.Microsecond))
	fmt.Fprintf(w, "Per eval:    %s\n", r.PerEvaluation)
	if r.Total > 0 {
		fmt.Fprintf(w, "Throughput:  %.0f msg/s\n", float64(r.Iterations)/r.Total.Seconds())
	}
	_, err := fmt.Fprintf(w, "Matched:     %t\n", r.Matched)
	return err
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.rule == "" {
		return fmt.Errorf("--rule is required")
	}
	if benchFlags.iterations <= 0 {
		return fmt.Errorf("--iterations must be positive")
	}
	format, err := cli.ParseFormat(benchFlags.format)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, benchFlags.message)
	if err != nil {
		return err
	}
	msg, err := decodeMessage(data, false)
	if err != nil {
		return cli.NewCommandError("bench", err)
	}

	start := time.Now()
	m, err := rule.Compile(benchFlags.rule)
	if err != nil {
		return cli.NewFindingsError("bench", err)
	}
	result := BenchResult{
		RuleLength: len([]rune(benchFlags.rule)),
		Groups:     len(m.Groups()),
		Compile:    time.Since(start),
		Iterations: benchFlags.iterations,
	}

	var progress cli.ProgressReporter
	if !benchFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "msg")
		progress.Start(int64(result.Iterations))
	}
	step := result.Iterations / 100
	if step == 0 {
		step = 1
	}

	start = time.Now()
	for i := 1; i <= result.Iterations; i++ {
		matched, err := m.Match(msg)
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("bench", err)
		}
		result.Matched = matched
		if progress != nil && i%step == 0 {
			progress.Update(int64(i))
		}
	}
	result.Total = time.Since(start)
	result.PerEvaluation = result.Total / time.Duration(result.Iterations)
	if progress != nil {
		progress.Finish()
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}
