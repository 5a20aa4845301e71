package rule

import (
	"errors"
	"strings"
	"testing"

	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule/ast"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/registry"
)

const pacificText = `
太平洋是地球上五大洋中面积最大的洋，面积1.813亿平方公里，它从北冰洋一直延伸至南冰洋，其西面为亚洲、大洋洲，东面为美洲，覆盖着地球约46%的水面及约32%的总面积，比地球上所有陆地面积的总和还要大。赤道将太平洋分为北太平洋及南太平洋。北面连接白令海峡，南面则以南纬60度为界。

位于北太平洋西侧的马里亚纳海沟是地球表面最深的位置。海沟最大深度为海平面下 10,911米（35,797英尺）。

太平洋之名称起源自拉丁文“Mare Pacificum”，意为“平静的海洋”，由航海家麦哲伦命名。受雇于西班牙的葡萄牙航海家麦哲伦于1520年10月，率领5艘船从大西洋找到了一个西南出口（麦哲伦海峡）向西航行，经过38天的惊涛骇浪后到达一个平静的洋面，他因称之为太平洋。
`

const (
	regularRule       = `(message.text all {"太平洋" "年" "月"})`
	regularNegateRule = `(not message.text all {"太平洋" "年" "月"})`
	longRule          = `(
		message.text any {"太"} and
		message.text any {"平"} and
		message.text any {"洋"} and
		message.text any {"年"} and
		message.text any {"月"}
	)`
	longerRule = `(
		message.text any {"太"} and
		message.text any {"平"} and
		message.text any {"洋"} and
		message.text any {"年"} and
		message.text any {"月"} and
		message.text all {"太"} and
		message.text all {"平"} and
		message.text all {"洋"} and
		message.text all {"年"} and
		message.text all {"月"} and
		message.text all {"太" "平" "洋" "年" "月"}
	)`
)

func textMessage(text string) *message.Message {
	return &message.Message{Text: message.String(text)}
}

// megabyteRule generates a rule of at least 1 MiB made of or-joined groups.
func megabyteRule() string {
	const group = `(message.text any {"菠菜" "博彩" "东南亚" "柬埔寨"} and not message.from.is_bot and message.text.len gt 5)`
	var sb strings.Builder
	sb.WriteString(group)
	for sb.Len() < 1<<20 {
		sb.WriteString(" or\n")
		sb.WriteString(group)
	}
	return sb.String()
}

func TestMatch_PacificRules(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want bool
	}{
		{"regular", regularRule, true},
		{"regular negated", regularNegateRule, false},
		{"long", longRule, true},
		{"longer", longerRule, true},
	}

	msg := textMessage(pacificText)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.rule, msg)
			if err != nil {
				t.Fatalf("Match() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScenario_AllLiterals(t *testing.T) {
	m, err := Compile(`(message.text all {"太平洋" "年"})`)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"麦哲伦于1520年穿越太平洋", true},
		{"麦哲伦穿越太平洋", false},
	}
	for _, tt := range tests {
		got, err := m.Match(textMessage(tt.text))
		if err != nil {
			t.Fatalf("Match() failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestScenario_NegatedAny(t *testing.T) {
	m, err := Compile(`(not message.text any {"say:" "说："})`)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"Jay say: Hi", false},
		{"小明说：你好", false},
		{"good morning", true},
	}
	for _, tt := range tests {
		got, err := m.Match(textMessage(tt.text))
		if err != nil {
			t.Fatalf("Match() failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestScenario_TextLength(t *testing.T) {
	m, err := Compile(`(message.text.len eq 5)`)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"我是五个字", true},
		{"四个字啊", false},
		{"我是六个字啊", false},
		{"hello", true},
	}
	for _, tt := range tests {
		got, err := m.Match(textMessage(tt.text))
		if err != nil {
			t.Fatalf("Match() failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestScenario_UnterminatedQuote(t *testing.T) {
	rule := `(message.text all "不闭合`
	m, err := Compile(rule)
	if m != nil {
		t.Error("Compile() returned a matcher for a malformed rule")
	}

	var e *rerrors.Error
	if !errors.As(err, &e) {
		t.Fatalf("Compile() error = %v, want *errors.Error", err)
	}
	if e.Kind != rerrors.MissingQuote {
		t.Errorf("Kind = %v, want %v", e.Kind, rerrors.MissingQuote)
	}
	if e.Column != 23 {
		t.Errorf("Column = %d, want 23", e.Column)
	}
	if !strings.Contains(e.Context, rule) {
		t.Errorf("Context = %q, want it to show the rule line", e.Context)
	}
}

func TestScenario_DisabledField(t *testing.T) {
	_, err := Compile(`(message.is_command)`)
	if !rerrors.IsKind(err, rerrors.FieldNotEnabled) {
		t.Errorf("Compile() error = %v, want field_not_enabled", err)
	}

	_, err = Compile(`(message.is_commando)`)
	if !rerrors.IsKind(err, rerrors.UnknownField) {
		t.Errorf("Compile() error = %v, want unknown_field", err)
	}

	m, err := Compile(`(message.is_command)`, WithRegistry(registry.Default().With(ast.MessageIsCommand)))
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	got, err := m.Match(&message.Message{
		Text:     message.String("/start"),
		Entities: []message.MessageEntity{{Type: message.EntityBotCommand, Length: 6}},
	})
	if err != nil || !got {
		t.Errorf("Match() = %v, %v, want true", got, err)
	}
}

func TestMatcher_Deterministic(t *testing.T) {
	m, err := Compile(`(message.from.is_bot and message.text hd "/") or (message.text.len gt 3)`)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	msg := &message.Message{Text: message.String("hi"), From: &message.User{IsBot: true}}

	first, err := m.Match(msg)
	if err != nil {
		t.Fatalf("Match() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, _ := m.Match(msg)
		if got != first {
			t.Fatalf("Match() call %d = %v, want %v", i, got, first)
		}
	}

	again, err := Compile(m.String())
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", m.String(), err)
	}
	if got, _ := again.Match(msg); got != first {
		t.Errorf("recompiled Match() = %v, want %v", got, first)
	}
}

func TestMatchJSON(t *testing.T) {
	data := []byte(`{"text":"我是五个字","from":{"id":1000012,"first_name":"Rust","is_bot":true}}`)

	tests := []struct {
		rule string
		want bool
	}{
		{`(message.text.len eq 5)`, true},
		{`(not message.text.len gt 5)`, true},
		{`(message.from.first_name in {"Java" "Rust"})`, true},
		{`(message.from.first_name in {"Java" "Golang"})`, false},
		{`(message.from.first_name hd "Rus")`, true},
		{`(message.from.id eq 1000012)`, true},
		{`(not message.from.is_bot)`, false},
	}
	for _, tt := range tests {
		got, err := MatchJSON(tt.rule, data)
		if err != nil {
			t.Fatalf("MatchJSON(%q) failed: %v", tt.rule, err)
		}
		if got != tt.want {
			t.Errorf("MatchJSON(%q) = %v, want %v", tt.rule, got, tt.want)
		}
	}

	if _, err := MatchJSON(`(message.photo)`, []byte(`{"text":`)); !rerrors.IsKind(err, rerrors.JSON) {
		t.Errorf("MatchJSON() error = %v, want json", err)
	}
}

func TestCompile_Source(t *testing.T) {
	_, err := Compile(`(message.text eq)`, WithSource("spam.yaml#ads"))
	if err == nil {
		t.Fatal("Compile() succeeded, want error")
	}
	if !strings.HasPrefix(err.Error(), "spam.yaml#ads: ") {
		t.Errorf("Error() = %q, want source prefix", err.Error())
	}
}

func TestCompile_MegabyteRule(t *testing.T) {
	rule := megabyteRule()
	m, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if len(m.Groups()) < 1000 {
		t.Errorf("len(Groups()) = %d, want many", len(m.Groups()))
	}
	got, err := m.Match(textMessage("柬埔寨东南亚招聘"))
	if err != nil {
		t.Fatalf("Match() failed: %v", err)
	}
	if !got {
		t.Error("Match() = false, want true")
	}
}

func TestMustCompile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile() did not panic")
		}
	}()
	MustCompile(`(message.text`)
}
