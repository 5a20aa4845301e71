package ruleset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/matchgram/pkg/message"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/ast"
	"mercator-hq/matchgram/pkg/rule/registry"
)

const antiSpam = `name: anti-spam
description: gambling and ads
rules:
  - name: gambling
    action: delete
    rule: (message.text any {"菠菜" "博彩"})
  - name: ads
    action: delete
    tags: [ads]
    rule: (message.text all {"承接" "广告"})
  - name: bots
    action: ban
    enabled: false
    rule: (message.from.is_bot)
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func textMessage(text string) *message.Message {
	return &message.Message{
		MessageID: 1,
		Chat:      &message.Chat{ID: -100, Type: message.ChatSupergroup},
		From:      &message.User{ID: 42, FirstName: "Ann"},
		Text:      message.String(text),
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "anti-spam.yaml", antiSpam)

	set, err := NewLoader(nil, nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if set.Name != "anti-spam" {
		t.Errorf("Name = %q, want anti-spam", set.Name)
	}
	if len(set.Rules) != 3 {
		t.Fatalf("len(Rules) = %d, want 3", len(set.Rules))
	}

	gambling := set.Rules[0]
	if gambling.ID() != "anti-spam/gambling" || gambling.Action != "delete" || !gambling.Enabled {
		t.Errorf("gambling = %+v", gambling)
	}
	if gambling.Line != 4 {
		t.Errorf("gambling.Line = %d, want 4", gambling.Line)
	}
	if set.Rules[2].Enabled {
		t.Error("bots rule should be disabled")
	}
	if got := set.Rules[1].Tags; len(got) != 1 || got[0] != "ads" {
		t.Errorf("ads.Tags = %v", got)
	}
}

func TestLoader_NameFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "media.yml", "rules:\n  - name: photos\n    rule: (message.photo)\n")
	set, err := NewLoader(nil, nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if set.Name != "media" {
		t.Errorf("Name = %q, want media", set.Name)
	}
}

func TestLoader_ReportsEveryError(t *testing.T) {
	content := `name: broken
rules:
  - name: typo
    rule: (message.txt eq "x")
  - name: fine
    rule: (message.photo)
  - rule: (message.video)
  - name: fine
    rule: (message.voice)
  - name: empty
    rule: ""
  - name: unclosed
    rule: (message.text eq "x"
`
	path := writeFile(t, t.TempDir(), "broken.yaml", content)

	_, err := NewLoader(nil, nil).LoadFile(path)
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("error = %v, want Errors", err)
	}
	if len(errs) != 5 {
		t.Fatalf("len(errs) = %d, want 5:\n%v", len(errs), err)
	}

	compileErrs := CompileErrors(err)
	if len(compileErrs) != 2 {
		t.Fatalf("len(CompileErrors) = %d, want 2", len(compileErrs))
	}
	typo := compileErrs[0]
	if typo.Rule != "typo" || typo.Line != 3 {
		t.Errorf("typo error = rule %q line %d", typo.Rule, typo.Line)
	}
	if typo.Err.Kind != rerrors.UnknownField {
		t.Errorf("typo kind = %v, want UnknownField", typo.Err.Kind)
	}
	if typo.Err.Context == "" {
		t.Error("compile error has no rendered context")
	}
	if !strings.Contains(err.Error(), "duplicate rule name") {
		t.Errorf("error does not mention the duplicate: %v", err)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		content string
		target  any
	}{
		{"bad yaml", "bad.yaml", "rules: [", new(*LoadError)},
		{"unknown key", "unknown.yaml", "rules:\n  - name: x\n    rules: y\n", new(*LoadError)},
		{"empty file", "empty.yaml", "", new(*LoadError)},
		{"invalid utf8", "binary.yaml", "name: \xff\xfe", new(*LoadError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.path, tt.content)
			_, err := NewLoader(nil, nil).LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile() succeeded, want error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Errorf("error = %T %v, want *LoadError", err, err)
			}
		})
	}

	if _, err := NewLoader(nil, nil).Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("Load(missing) succeeded, want error")
	}
}

func TestLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anti-spam.yaml", antiSpam)
	writeFile(t, dir, "nested/media.yml", "name: media\nrules:\n  - name: photos\n    rule: (message.photo)\n")
	writeFile(t, dir, ".hidden/ignored.yaml", "name: [")
	writeFile(t, dir, "README.md", "not a rule file")

	sets, err := NewLoader(nil, nil).Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, want 2", len(sets))
	}

	writeFile(t, dir, "dup.yaml", "name: media\nrules: []\n")
	if _, err := NewLoader(nil, nil).Load(dir); err == nil || !strings.Contains(err.Error(), "already defined") {
		t.Errorf("Load() with duplicate set = %v, want already defined", err)
	}

	if _, err := NewLoader(nil, nil).Load(t.TempDir()); !errors.Is(err, ErrNoRules) {
		t.Errorf("Load(empty dir) = %v, want ErrNoRules", err)
	}
}

func TestLoader_FieldRegistry(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cmd.yaml", "rules:\n  - name: say\n    rule: (message.is_command)\n")

	_, err := NewLoader(nil, nil).LoadFile(path)
	if ce := CompileErrors(err); len(ce) != 1 || ce[0].Err.Kind != rerrors.FieldNotEnabled {
		t.Fatalf("default registry error = %v, want FieldNotEnabled", err)
	}

	reg := registry.Default().With(ast.MessageIsCommand)
	if _, err := NewLoader(reg, nil).LoadFile(path); err != nil {
		t.Errorf("LoadFile() with is_command enabled failed: %v", err)
	}
}

func TestVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "anti-spam.yaml", antiSpam)
	a, err := NewLoader(nil, nil).LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewLoader(nil, nil).LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if Version([]*Set{a}) != Version([]*Set{b}) {
		t.Error("Version differs for identical content")
	}

	b.Rules[0].Text = `(message.text eq "x")`
	if Version([]*Set{a}) == Version([]*Set{b}) {
		t.Error("Version unchanged after rule text changed")
	}
}

func TestManager_Evaluate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anti-spam.yaml", antiSpam)

	m := NewManager(Options{Path: dir})
	if err := m.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Load succeeded")
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Load = %v", err)
	}

	tests := []struct {
		name  string
		text  string
		rules []string
	}{
		{"gambling", "最新菠菜平台", []string{"gambling"}},
		{"ads", "承接各类广告", []string{"ads"}},
		{"both", "承接广告 博彩", []string{"gambling", "ads"}},
		{"clean", "hello", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := m.Evaluate(context.Background(), textMessage(tt.text))
			if v.Evaluated != 2 {
				t.Errorf("Evaluated = %d, want 2 (disabled rule skipped)", v.Evaluated)
			}
			if len(v.Matched) != len(tt.rules) {
				t.Fatalf("Matched = %+v, want rules %v", v.Matched, tt.rules)
			}
			for i, hit := range v.Matched {
				if hit.Rule != tt.rules[i] || hit.RuleSet != "anti-spam" {
					t.Errorf("Matched[%d] = %+v, want %s", i, hit, tt.rules[i])
				}
			}
			if v.Version != m.Version() {
				t.Errorf("Version = %q, want %q", v.Version, m.Version())
			}
		})
	}

	v := m.Evaluate(context.Background(), textMessage("承接广告 博彩"))
	if got := v.Actions(); len(got) != 1 || got[0] != "delete" {
		t.Errorf("Actions() = %v, want [delete]", got)
	}
}

func TestManager_ReloadKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "anti-spam.yaml", antiSpam)

	m := NewManager(Options{Path: path})
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	good := m.Version()

	writeFile(t, dir, "anti-spam.yaml", "rules:\n  - name: x\n    rule: (message.text eq)\n")
	if err := m.Reload(context.Background()); err == nil {
		t.Fatal("Reload() of broken file succeeded")
	}
	if m.Version() != good {
		t.Errorf("Version = %q after failed reload, want %q", m.Version(), good)
	}
	if !m.Evaluate(context.Background(), textMessage("菠菜")).IsMatch() {
		t.Error("last good rules no longer match")
	}
	status := m.Status()
	if status.LastError == "" || status.Rules != 2 {
		t.Errorf("Status = %+v", status)
	}
	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after failed reload = %v", err)
	}

	other := writeFile(t, t.TempDir(), "media.yaml", "name: media\nrules:\n  - name: photos\n    rule: (message.photo)\n")
	if err := m.ReloadFrom(context.Background(), other); err != nil {
		t.Fatalf("ReloadFrom() failed: %v", err)
	}
	if m.Status().Path != other {
		t.Errorf("Path = %q, want %q", m.Status().Path, other)
	}
	if _, ok := m.Rule("media/photos"); !ok {
		t.Error("Rule(media/photos) not found after ReloadFrom")
	}
}

func TestManager_NumericRules(t *testing.T) {
	path := writeFile(t, t.TempDir(), "numbers.yaml", `name: numbers
rules:
  - name: long
    rule: (message.text.len gt 3)
  - name: anyone
    rule: (message.from.id gt 0)
`)
	m := NewManager(Options{Path: path})
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	v := m.Evaluate(context.Background(), textMessage("hello"))
	if len(v.Matched) != 2 || len(v.Errors) != 0 {
		t.Errorf("verdict = %+v", v)
	}
}

func TestManager_CancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "anti-spam.yaml", antiSpam)
	m := NewManager(Options{Path: path})
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := m.Evaluate(ctx, textMessage("菠菜"))
	if len(v.Errors) != 1 || v.IsMatch() {
		t.Errorf("verdict for cancelled context = %+v", v)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls after Stop = %d, want 1", got)
	}
}

func TestManager_Watch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anti-spam.yaml", antiSpam)

	m := NewManager(Options{Path: dir, Debounce: 20 * time.Millisecond})
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := m.Version()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	writeFile(t, dir, "media.yaml", "name: media\nrules:\n  - name: photos\n    rule: (message.photo)\n")

	deadline := time.Now().Add(3 * time.Second)
	for m.Version() == before && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if m.Version() == before {
		t.Error("rules were not reloaded after a file was added")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch() did not return after cancel")
	}
}
