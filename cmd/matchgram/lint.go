package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/rule"
	"mercator-hq/matchgram/pkg/rule/ast"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/registry"
	"mercator-hq/matchgram/pkg/ruleset"
)

var lintFlags struct {
	rule   string
	enable []string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Check rules and rule set files",
	Long: `Compile a single rule or rule set files and report every error with
the offending column marked.

Paths may be rule set files or directories, which are searched recursively
for .yaml and .yml files.

Examples:
  # Check one rule
  matchgram lint --rule '(message.text any {"菠菜" "博彩"})'

  # Check a directory of rule sets
  matchgram lint rules/

  # Allow message.is_command in addition to the configured fields
  matchgram lint --enable-field message.is_command rules/

  # JSON output for CI
  matchgram lint --format json rules/`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.rule, "rule", "r", "", "rule text to check")
	lintCmd.Flags().StringSliceVar(&lintFlags.enable, "enable-field", nil, "enable an optional field (repeatable)")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintReport is the result of a lint run.
type LintReport struct {
	Rules       int          `json:"rules"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	// Categories counts the rule errors per error category.
	Categories map[rerrors.Category]int `json:"categories,omitempty"`
	// Normalized is the canonical form of a --rule that compiled.
	Normalized string `json:"normalized,omitempty"`

	errs rerrors.List
}

// Diagnostic is one problem found by lint.
type Diagnostic struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Rendered string `json:"rendered,omitempty"`
}

// WriteText renders diagnostics the way a compiler does.
func (r *LintReport) WriteText(w io.Writer) error {
	for _, d := range r.Diagnostics {
		if d.Rendered != "" {
			fmt.Fprint(w, d.Rendered)
		} else {
			fmt.Fprintf(w, "✗ %s\n", d.Message)
		}
		fmt.Fprintln(w)
	}
	if r.Normalized != "" {
		fmt.Fprintf(w, "✓ %s\n", r.Normalized)
	}
	if len(r.errs) > 0 {
		fmt.Fprintf(w, "by category: %s\n", r.errs.Summary())
	}
	_, err := fmt.Fprintf(w, "%d rule(s) checked, %d error(s)\n", r.Rules, len(r.Diagnostics))
	return err
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.rule == "" && len(args) == 0 {
		return fmt.Errorf("either --rule or a path must be specified")
	}
	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := lintRegistry(cfg.Compiler, lintFlags.enable)
	if err != nil {
		return err
	}

	report := &LintReport{Diagnostics: []Diagnostic{}}
	if lintFlags.rule != "" {
		lintRule(report, reg, lintFlags.rule)
	}
	loader := ruleset.NewLoader(reg, nil)
	for _, path := range args {
		lintPath(report, loader, path)
	}
	report.Categories = report.errs.Categories()

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if n := len(report.Diagnostics); n > 0 {
		return cli.NewFindingsError("lint", fmt.Errorf("%d error(s)", n))
	}
	return nil
}

func lintRegistry(cc config.CompilerConfig, enable []string) (*registry.Registry, error) {
	reg, err := cc.Registry()
	if err != nil {
		return nil, cli.NewConfigError("compiler", err.Error())
	}
	var fields []ast.Field
	for _, name := range enable {
		f, ok := ast.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		fields = append(fields, f)
	}
	return reg.With(fields...), nil
}

func lintRule(report *LintReport, reg *registry.Registry, text string) {
	report.Rules++
	m, err := rule.Compile(text, rule.WithRegistry(reg))
	if err != nil {
		report.add(err, Diagnostic{})
		return
	}
	report.Normalized = m.String()
}

func lintPath(report *LintReport, loader *ruleset.Loader, path string) {
	sets, err := loader.Load(path)
	for _, set := range sets {
		report.Rules += len(set.Rules)
	}
	if err == nil {
		return
	}

	var list ruleset.Errors
	if !errors.As(err, &list) {
		list = ruleset.Errors{err}
	}
	for _, e := range list {
		var d Diagnostic
		var ce *ruleset.CompileError
		if errors.As(e, &ce) {
			report.Rules++
			d.File, d.Line, d.Rule = ce.FilePath, ce.Line, ce.RuleSet+"/"+ce.Rule
		}
		report.add(e, d)
	}
}

// add records err as a diagnostic, filling d with the rule error details
// when err carries one.
func (r *LintReport) add(err error, d Diagnostic) {
	d.Message = err.Error()
	if r.errs.Add(err) {
		rerr := r.errs[len(r.errs)-1]
		d.Kind = rerr.Kind.String()
		d.Column = rerr.Column
		d.Rendered = rerrors.Format(rerr)
	}
	r.Diagnostics = append(r.Diagnostics, d)
}
