package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mercator-hq/matchgram/pkg/cli"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
)

func resetLintFlags() {
	cfgFile = ""
	lintFlags.rule = ""
	lintFlags.enable = nil
	lintFlags.format = "text"
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func TestLintRules_ValidRule(t *testing.T) {
	resetLintFlags()
	lintFlags.rule = `(message.text   any {"菠菜" "博彩"})`

	cmd, out := newTestCommand()
	if err := lintRules(cmd, nil); err != nil {
		t.Fatalf("lintRules() error = %v", err)
	}
	if !strings.Contains(out.String(), `✓ (message.text any {"菠菜" "博彩"})`) {
		t.Errorf("output missing normalized rule:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "1 rule(s) checked, 0 error(s)") {
		t.Errorf("output missing summary:\n%s", out.String())
	}
}

func TestLintRules_InvalidRule(t *testing.T) {
	resetLintFlags()
	lintFlags.rule = `(message.text eq "hello)`

	cmd, out := newTestCommand()
	err := lintRules(cmd, nil)
	if err == nil {
		t.Fatal("lintRules() succeeded, want findings error")
	}
	if code := cli.ExitCode(err); code != cli.ExitFindings {
		t.Errorf("ExitCode = %d, want %d", code, cli.ExitFindings)
	}
	if !strings.Contains(out.String(), "^") {
		t.Errorf("output missing caret marker:\n%s", out.String())
	}
}

func TestLintRules_DisabledFieldCanBeEnabled(t *testing.T) {
	resetLintFlags()
	lintFlags.rule = `(message.is_command)`

	cmd, _ := newTestCommand()
	if err := lintRules(cmd, nil); err == nil {
		t.Fatal("lintRules() succeeded for a disabled field")
	}

	lintFlags.enable = []string{"message.is_command"}
	cmd, _ = newTestCommand()
	if err := lintRules(cmd, nil); err != nil {
		t.Errorf("lintRules() with --enable-field error = %v", err)
	}
}

func TestLintRules_Files(t *testing.T) {
	resetLintFlags()
	cmd, _ := newTestCommand()
	if err := lintRules(cmd, []string{"testdata/valid-rules.yaml"}); err != nil {
		t.Errorf("lintRules(valid) error = %v", err)
	}

	lintFlags.format = "json"
	cmd, out := newTestCommand()
	if err := lintRules(cmd, []string{"testdata/invalid-rules.yaml"}); err == nil {
		t.Fatal("lintRules(invalid) succeeded, want error")
	}

	var report LintReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(report.Diagnostics) != 2 {
		t.Fatalf("len(Diagnostics) = %d, want 2: %+v", len(report.Diagnostics), report.Diagnostics)
	}
	kinds := map[string]bool{}
	for _, d := range report.Diagnostics {
		kinds[d.Kind] = true
		if d.File != "testdata/invalid-rules.yaml" {
			t.Errorf("File = %q, want testdata/invalid-rules.yaml", d.File)
		}
	}
	if !kinds["missing_quote"] || !kinds["unknown_field"] {
		t.Errorf("kinds = %v, want missing_quote and unknown_field", kinds)
	}
}

func TestLintRules_CategorySummary(t *testing.T) {
	resetLintFlags()
	cmd, out := newTestCommand()
	if err := lintRules(cmd, []string{"testdata/invalid-rules.yaml"}); err == nil {
		t.Fatal("lintRules(invalid) succeeded, want error")
	}
	if !strings.Contains(out.String(), "by category: lexical: 1, semantic: 1") {
		t.Errorf("output missing category summary:\n%s", out.String())
	}

	lintFlags.format = "json"
	cmd, out = newTestCommand()
	_ = lintRules(cmd, []string{"testdata/invalid-rules.yaml"})
	var report LintReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if report.Categories[rerrors.CategoryLexical] != 1 || report.Categories[rerrors.CategorySemantic] != 1 {
		t.Errorf("Categories = %v, want lexical: 1 and semantic: 1", report.Categories)
	}
}

func TestLintRules_NothingToCheck(t *testing.T) {
	resetLintFlags()
	cmd, _ := newTestCommand()
	if err := lintRules(cmd, nil); err == nil {
		t.Error("lintRules() without --rule or path should return error")
	}
}

func TestLintRules_BadFormat(t *testing.T) {
	resetLintFlags()
	lintFlags.rule = `(message.photo)`
	lintFlags.format = "xml"
	cmd, _ := newTestCommand()
	if err := lintRules(cmd, nil); err == nil {
		t.Error("lintRules() with unknown format should return error")
	}
}
