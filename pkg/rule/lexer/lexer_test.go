package lexer

import (
	"reflect"
	"testing"

	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/token"
)

func TestTokenize_Kinds(t *testing.T) {
	stream, err := Tokenize(`(not message.from.is_bot) or (message.text eq "/say")`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	want := []token.Kind{
		token.OpenParen, token.Not, token.Field, token.CloseParen,
		token.Or,
		token.OpenParen, token.Field, token.Operator, token.Quote, token.Letter, token.Quote, token.CloseParen,
		token.EOF,
	}
	if !reflect.DeepEqual(stream.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", stream.Tokens, want)
	}
	if len(stream.Positions) != len(stream.Tokens) {
		t.Errorf("len(Positions) = %d, want %d", len(stream.Positions), len(stream.Tokens))
	}
}

func TestTokenize_Lexemes(t *testing.T) {
	stream, err := Tokenize(`(message.text any {"菠菜" "博彩"} and message.text.len gt 5)`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	want := []string{
		"(", "message.text", "any", "{", `"`, "菠菜", `"`, `"`, "博彩", `"`, "}",
		"and", "message.text.len", "gt", "5", ")", "EOF",
	}
	if got := stream.Lexemes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lexemes() = %q, want %q", got, want)
	}
}

func TestTokenize_PositionsAreRuneOffsets(t *testing.T) {
	stream, err := Tokenize(`(message.text eq "我是")`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	// ( message.text eq " 我是 " ) EOF
	letter := 4
	if stream.Kind(letter) != token.Letter {
		t.Fatalf("Kind(%d) = %v, want letter", letter, stream.Kind(letter))
	}
	pos, err := stream.Position(letter)
	if err != nil {
		t.Fatalf("Position() failed: %v", err)
	}
	if pos.Begin != 18 || pos.End != 20 {
		t.Errorf("Position = %v, want [18,20)", pos)
	}

	eof := stream.Len() - 1
	if got := stream.Column(eof); got != 23 {
		t.Errorf("Column(EOF) = %d, want 23", got)
	}
}

func TestTokenize_Numbers(t *testing.T) {
	tests := []struct {
		name string
		rule string
		kind token.Kind
		text string
	}{
		{"integer", `(message.from.id eq 1000012)`, token.Integer, "1000012"},
		{"negative integer", `(message.from.id gt -1)`, token.Integer, "-1"},
		{"decimal", `(message.location.latitude ge 31.25)`, token.Decimal, "31.25"},
		{"negative decimal", `(message.location.longitude le -0.5)`, token.Decimal, "-0.5"},
		{"in list", `(message.from.id eq {1 2})`, token.Integer, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := Tokenize(tt.rule)
			if err != nil {
				t.Fatalf("Tokenize() failed: %v", err)
			}
			found := false
			for i, kind := range stream.Tokens {
				if kind != tt.kind {
					continue
				}
				text, err := stream.Text(i)
				if err != nil {
					t.Fatalf("Text(%d) failed: %v", i, err)
				}
				if text != tt.text {
					t.Errorf("Text(%d) = %q, want %q", i, text, tt.text)
				}
				found = true
				break
			}
			if !found {
				t.Errorf("no %v token in %v", tt.kind, stream.Tokens)
			}
		})
	}
}

func TestTokenize_KeywordsAreContextual(t *testing.T) {
	tests := []struct {
		name  string
		rule  string
		field string
	}{
		{"field prefixed by or", `(order eq "x")`, "order"},
		{"field prefixed by and", `(android eq "x")`, "android"},
		{"field prefixed by not", `(notice eq "x")`, "notice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := Tokenize(tt.rule)
			if err != nil {
				t.Fatalf("Tokenize() failed: %v", err)
			}
			if stream.Kind(1) != token.Field {
				t.Fatalf("Kind(1) = %v, want field", stream.Kind(1))
			}
			if text, _ := stream.Text(1); text != tt.field {
				t.Errorf("Text(1) = %q, want %q", text, tt.field)
			}
		})
	}
}

func TestTokenize_PresenceBeforeAnd(t *testing.T) {
	stream, err := Tokenize(`(message.from.is_bot and message.text eq "hi")`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	want := []token.Kind{
		token.OpenParen, token.Field, token.And, token.Field, token.Operator,
		token.Quote, token.Letter, token.Quote, token.CloseParen, token.EOF,
	}
	if !reflect.DeepEqual(stream.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", stream.Tokens, want)
	}
}

func TestTokenize_EmptyLiteral(t *testing.T) {
	stream, err := Tokenize(`(message.text eq "")`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	text, err := stream.Text(4)
	if err != nil {
		t.Fatalf("Text(4) failed: %v", err)
	}
	if text != "" {
		t.Errorf("Text(4) = %q, want empty", text)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		kind   rerrors.Kind
		column int
	}{
		{"unterminated literal", `(message.text eq "hello)`, rerrors.MissingQuote, 25},
		{"newline in literal", "(message.text eq \"he\nllo\")", rerrors.MissingQuote, 21},
		{"unterminated list", `(message.text in {"a" "b"`, rerrors.ShouldCloseBraceHere, 26},
		{"bare word in list", `(message.text in {"a" b})`, rerrors.ShouldQuoteHere, 23},
		{"missing value", `(message.text eq`, rerrors.MissingValue, 17},
		{"bare word value", `(message.text eq hello)`, rerrors.ShouldOpenBraceOrQuote, 18},
		{"missing field", `( )`, rerrors.MissingField, 3},
		{"missing operator", `(message.text "x")`, rerrors.MissingOperator, 15},
		{"field at end", `(message.text`, rerrors.MissingOperator, 14},
		{"number with suffix", `(message.text.len gt 5x)`, rerrors.DecimalParseFailed, 22},
		{"number with trailing dot", `(message.text.len gt 5.)`, rerrors.DecimalParseFailed, 22},
		{"lone minus", `(message.text.len gt -)`, rerrors.DecimalParseFailed, 22},
		{"junk between groups", `(message.from.is_bot) xor (message.photo)`, rerrors.ParseFailed, 23},
		{"and between groups", `(message.text eq "a") and (message.text eq "b")`, rerrors.ParseFailed, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.rule)
			if err == nil {
				t.Fatal("Tokenize() succeeded, want error")
			}
			e, ok := err.(*rerrors.Error)
			if !ok {
				t.Fatalf("error type = %T, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.kind)
			}
			if e.Column != tt.column {
				t.Errorf("Column = %d, want %d", e.Column, tt.column)
			}
		})
	}
}

func TestStream_Text_Guards(t *testing.T) {
	stream, err := Tokenize(`(message.photo)`)
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	if _, err := stream.Text(0); !rerrors.IsKind(err, rerrors.MissingTokenData) {
		t.Errorf("Text(0) error = %v, want missing_token_data", err)
	}
	if _, err := stream.Text(99); !rerrors.IsKind(err, rerrors.MissingTokenPosition) {
		t.Errorf("Text(99) error = %v, want missing_token_position", err)
	}
	if got := stream.Kind(99); got != token.EOF {
		t.Errorf("Kind(99) = %v, want EOF", got)
	}
}
