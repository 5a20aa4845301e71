package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule/ast"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/lexer"
	"mercator-hq/matchgram/pkg/rule/registry"
)

func parseGroups(t *testing.T, p *Parser, rule string) (ast.Groups, error) {
	t.Helper()
	stream, err := lexer.Tokenize(rule)
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", rule, err)
	}
	return p.ParseGroups(stream)
}

func TestParser_Groups(t *testing.T) {
	rule := `(message.text any {"柬埔寨" "东南亚"} and not message.from.is_bot) or (message.text.len ge 10)`
	got, err := parseGroups(t, New(nil), rule)
	if err != nil {
		t.Fatalf("ParseGroups() failed: %v", err)
	}

	want := ast.Groups{
		{
			{Field: ast.MessageText, Operator: ast.Any, Value: ast.Values{ast.LetterOf("柬埔寨"), ast.LetterOf("东南亚")}},
			{Negative: true, Field: ast.MessageFromIsBot},
		},
		{
			{Field: ast.MessageTextLen, Operator: ast.Ge, Value: ast.Values{ast.IntegerOf(10)}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseGroups() mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_RoundTrip(t *testing.T) {
	rules := []string{
		`(message.from.is_bot)`,
		`(not message.text any {"say:" "说："})`,
		`(message.location.latitude ge 31.5 and message.location.longitude lt -0.25)`,
		`(message.from.first_name in {"Java" "Rust"}) or (message.photo) or (not message.sticker.is_animated)`,
	}

	p := New(nil)
	for _, rule := range rules {
		t.Run(rule, func(t *testing.T) {
			first, err := parseGroups(t, p, rule)
			if err != nil {
				t.Fatalf("ParseGroups() failed: %v", err)
			}
			second, err := parseGroups(t, p, first.String())
			if err != nil {
				t.Fatalf("ParseGroups(%q) failed: %v", first.String(), err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}
		})
	}
}

func TestParser_NotAny(t *testing.T) {
	stream, err := lexer.Tokenize(`(not message.text any {"say:" "说："})`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	m, err := New(nil).Parse(stream)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"Jay say: Hi", false},
		{"小明说：你好", false},
		{"早上好", true},
	}
	for _, tt := range tests {
		got, err := m.Match(&message.Message{Text: message.String(tt.text)})
		if err != nil {
			t.Fatalf("Match() failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name       string
		rule       string
		kind       rerrors.Kind
		column     int
		suggestion string
	}{
		{"missing open paren", `message.text eq "x"`, rerrors.ParseFailed, 1, ""},
		{"trailing group without or", `(message.photo) (message.video)`, rerrors.ShouldEndHere, 17, ""},
		{"unclosed group", `(message.text eq "x" or (message.photo)`, rerrors.ShouldCloseParenthesisHere, 22, ""},
		{"close before open", `) (message.photo)`, rerrors.ShouldOpenParenthesisHere, 1, ""},
		{"doubled or", `(message.photo) or or (message.video)`, rerrors.ShouldOpenParenthesisHere, 20, ""},
		{"not without field", `(not )`, rerrors.MissingField, 6, ""},
		{"unknown field", `(message.txt eq "x")`, rerrors.UnknownField, 2, "did you mean `message.text`?"},
		{"unknown operator", `(message.text eqq "x")`, rerrors.UnknownOperator, 15, "did you mean `eq`?"},
		{"disabled field", `(message.is_command)`, rerrors.FieldNotEnabled, 2, ""},
		{"unsupported operator", `(message.text gt "x")`, rerrors.UnsupportedOperator, 15, ""},
		{"operator on presence field", `(message.photo eq "x")`, rerrors.UnsupportedOperator, 16, ""},
		{"bare comparison field", `(message.text)`, rerrors.FieldRequireOperator, 2, ""},
		{"empty list", `(message.text in {})`, rerrors.ShouldValueHere, 19, ""},
		{"string for number field", `(message.text.len eq "5")`, rerrors.InvalidValue, 22, ""},
		{"number for string field", `(message.text eq 5)`, rerrors.InvalidValue, 18, ""},
		{"integer overflow", `(message.from.id eq 99999999999999999999)`, rerrors.DecimalParseFailed, 21, ""},
	}

	p := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := lexer.Tokenize(tt.rule)
			if err == nil {
				_, err = p.Parse(stream)
			}
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			e, ok := err.(*rerrors.Error)
			if !ok {
				t.Fatalf("error type = %T, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v (%v)", e.Kind, tt.kind, err)
			}
			if tt.column != 0 && e.Column != tt.column {
				t.Errorf("Column = %d, want %d", e.Column, tt.column)
			}
			if tt.suggestion != "" && e.Suggestion != tt.suggestion {
				t.Errorf("Suggestion = %q, want %q", e.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestParser_RegistryIsExplicit(t *testing.T) {
	rule := `(message.is_command and message.text hd "/ban")`

	if _, err := parseGroups(t, New(registry.Default()), rule); !rerrors.IsKind(err, rerrors.FieldNotEnabled) {
		t.Fatalf("ParseGroups() error = %v, want field_not_enabled", err)
	}

	groups, err := parseGroups(t, New(registry.Default().With(ast.MessageIsCommand)), rule)
	if err != nil {
		t.Fatalf("ParseGroups() failed: %v", err)
	}
	if groups.Conditions() != 2 {
		t.Errorf("Conditions() = %d, want 2", groups.Conditions())
	}

	if _, err := parseGroups(t, New(registry.Default().Without(ast.MessageText)), rule); err == nil {
		t.Error("ParseGroups() succeeded without message.text enabled")
	}
}

func TestParser_LongAndChain(t *testing.T) {
	const n = 20000
	var sb strings.Builder
	sb.WriteString("(message.from.is_bot")
	for i := 0; i < n; i++ {
		sb.WriteString(" and\nmessage.text.len gt 1")
	}
	sb.WriteString(")")

	groups, err := parseGroups(t, New(nil), sb.String())
	if err != nil {
		t.Fatalf("ParseGroups() failed: %v", err)
	}
	if got := groups.Conditions(); got != n+1 {
		t.Errorf("Conditions() = %d, want %d", got, n+1)
	}
}
