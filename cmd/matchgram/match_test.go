package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/matchgram/pkg/cli"
	"mercator-hq/matchgram/pkg/ruleset"
)

func resetMatchFlags() {
	cfgFile = ""
	matchFlags.rule = ""
	matchFlags.rules = ""
	matchFlags.message = "testdata/message.json"
	matchFlags.validate = true
	matchFlags.format = "text"
}

func TestMatchMessage_SingleRule(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want string
	}{
		{"hit", `(message.photo) or (message.text any {"菠菜" "博彩"})`, "matched (group 1)"},
		{"miss", `(message.text hd "/start")`, "no match"},
		{"negated absent field", `(not message.photo)`, "matched (group 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetMatchFlags()
			matchFlags.rule = tt.rule

			cmd, out := newTestCommand()
			if err := matchMessage(cmd, nil); err != nil {
				t.Fatalf("matchMessage() error = %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchMessage_Stdin(t *testing.T) {
	resetMatchFlags()
	matchFlags.rule = `(message.from.id eq 7)`
	matchFlags.message = "-"
	matchFlags.format = "json"

	cmd, out := newTestCommand()
	cmd.SetIn(strings.NewReader(`{"message_id":1,"from":{"id":7,"is_bot":false,"first_name":"A"}}`))
	if err := matchMessage(cmd, nil); err != nil {
		t.Fatalf("matchMessage() error = %v", err)
	}

	var got RuleResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !got.Matched || got.Group != 0 {
		t.Errorf("result = %+v, want matched group 0", got)
	}
}

func TestMatchMessage_RuleSets(t *testing.T) {
	resetMatchFlags()
	matchFlags.rules = "testdata/valid-rules.yaml"
	matchFlags.format = "json"

	cmd, out := newTestCommand()
	if err := matchMessage(cmd, nil); err != nil {
		t.Fatalf("matchMessage() error = %v", err)
	}

	var v ruleset.Verdict
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(v.Matched) != 1 || v.Matched[0].Rule != "gambling" {
		t.Errorf("Matched = %+v, want the gambling rule only", v.Matched)
	}
}

func TestMatchMessage_Errors(t *testing.T) {
	t.Run("invalid rule", func(t *testing.T) {
		resetMatchFlags()
		matchFlags.rule = `(message.text eq`
		cmd, _ := newTestCommand()
		err := matchMessage(cmd, nil)
		if cli.ExitCode(err) != cli.ExitFindings {
			t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitFindings)
		}
	})

	t.Run("invalid message", func(t *testing.T) {
		resetMatchFlags()
		matchFlags.rule = `(message.photo)`
		matchFlags.message = "-"
		cmd, _ := newTestCommand()
		cmd.SetIn(bytes.NewBufferString(`{"message_id":"one"}`))
		if err := matchMessage(cmd, nil); err == nil {
			t.Error("matchMessage() succeeded for a message that fails validation")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		resetMatchFlags()
		matchFlags.rule = `(message.photo)`
		matchFlags.message = "testdata/nonexistent.json"
		cmd, _ := newTestCommand()
		if err := matchMessage(cmd, nil); err == nil {
			t.Error("matchMessage() succeeded for a missing file")
		}
	})

	t.Run("broken rule set", func(t *testing.T) {
		resetMatchFlags()
		matchFlags.rules = "testdata/invalid-rules.yaml"
		cmd, _ := newTestCommand()
		if err := matchMessage(cmd, nil); err == nil {
			t.Error("matchMessage() succeeded with a broken rule set")
		}
	})
}

func TestRunBench(t *testing.T) {
	benchFlags.rule = `(message.text any {"菠菜" "博彩"})`
	benchFlags.message = "testdata/message.json"
	benchFlags.iterations = 100
	benchFlags.quiet = true
	benchFlags.format = "json"

	cmd, out := newTestCommand()
	if err := runBench(cmd, nil); err != nil {
		t.Fatalf("runBench() error = %v", err)
	}

	var got BenchResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Iterations != 100 || !got.Matched || got.Groups != 1 {
		t.Errorf("result = %+v", got)
	}

	benchFlags.iterations = 0
	if err := runBench(cmd, nil); err == nil {
		t.Error("runBench() with zero iterations should return error")
	}
}
