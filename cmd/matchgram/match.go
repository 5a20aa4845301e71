package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule"
	"mercator-hq/matchgram/pkg/ruleset"
)

var matchFlags struct {
	rule     string
	rules    string
	message  string
	validate bool
	format   string
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Evaluate a message against a rule or rule sets",
	Long: `Evaluate one message, given as JSON, against a single rule or against
rule set files. The message may be a bare message or a Telegram update.

Examples:
  # One rule, message from a file
  matchgram match --rule '(message.text hd "/start")' --message msg.json

  # Configured rule sets, message on stdin
  matchgram match < msg.json

  # Another rule set directory, JSON verdict
  matchgram match --rules rules/ --message msg.json --format json`,
	RunE: matchMessage,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&matchFlags.rule, "rule", "r", "", "rule text to evaluate")
	matchCmd.Flags().StringVar(&matchFlags.rules, "rules", "", "rule set file or directory (default: rules.path from config)")
	matchCmd.Flags().StringVarP(&matchFlags.message, "message", "m", "-", "message JSON file, - for stdin")
	matchCmd.Flags().BoolVar(&matchFlags.validate, "validate", true, "validate the message against the message schema")
	matchCmd.Flags().StringVar(&matchFlags.format, "format", "text", "output format: text, json")
}

// RuleResult is the outcome of matching a single rule.
type RuleResult struct {
	Matched bool `json:"matched"`
	Group   int  `json:"group"`
}

func (r RuleResult) WriteText(w io.Writer) error {
	if !r.Matched {
		_, err := fmt.Fprintln(w, "no match")
		return err
	}
	_, err := fmt.Fprintf(w, "matched (group %d)\n", r.Group)
	return err
}

// verdictText renders a rule set verdict.
type verdictText struct {
	*ruleset.Verdict
}

func (v verdictText) WriteText(w io.Writer) error {
	if !v.IsMatch() {
		fmt.Fprintf(w, "no match (%d rules evaluated)\n", v.Evaluated)
	}
	for _, hit := range v.Matched {
		action := hit.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(w, "matched %s/%s group=%d action=%s\n", hit.RuleSet, hit.Rule, hit.Group, action)
	}
	for _, e := range v.Errors {
		fmt.Fprintf(w, "error   %s/%s: %s\n", e.RuleSet, e.Rule, e.Error)
	}
	if len(v.Actions()) > 0 {
		fmt.Fprintf(w, "actions: %s\n", strings.Join(v.Actions(), ", "))
	}
	return nil
}

func matchMessage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(matchFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := readInput(cmd, matchFlags.message)
	if err != nil {
		return err
	}
	msg, err := decodeMessage(data, matchFlags.validate)
	if err != nil {
		return cli.NewCommandError("match", err)
	}

	reg, err := cfg.Compiler.Registry()
	if err != nil {
		return cli.NewConfigError("compiler", err.Error())
	}

	out := cli.NewFormatter(format)
	if matchFlags.rule != "" {
		m, err := rule.Compile(matchFlags.rule, rule.WithRegistry(reg))
		if err != nil {
			return cli.NewFindingsError("match", err)
		}
		group, err := m.MatchGroup(msg)
		if err != nil {
			return cli.NewCommandError("match", err)
		}
		return out.FormatTo(cmd.OutOrStdout(), RuleResult{Matched: group >= 0, Group: group})
	}

	path := matchFlags.rules
	if path == "" {
		path = cfg.Rules.Path
	}
	mgr := ruleset.NewManager(ruleset.Options{Path: path, Fields: reg})
	if err := mgr.Load(commandContext(cmd)); err != nil {
		return cli.NewFindingsError("match", err)
	}
	verdict := mgr.Evaluate(commandContext(cmd), msg)
	if format == cli.FormatJSON {
		return out.FormatTo(cmd.OutOrStdout(), verdict)
	}
	return out.FormatTo(cmd.OutOrStdout(), verdictText{verdict})
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return data, nil
}

func decodeMessage(data []byte, validate bool) (*message.Message, error) {
	if !validate {
		return message.Decode(data)
	}
	v, err := message.NewValidator()
	if err != nil {
		return nil, err
	}
	return v.DecodeValid(data)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
