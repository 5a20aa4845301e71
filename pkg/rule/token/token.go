// Package token defines the alphabet the rule lexer emits and the parser consumes.
package token

import "fmt"

// Kind classifies a lexed token. It carries no payload; the lexeme is
// recovered through the parallel Position table of a Stream.
type Kind uint8

const (
	OpenParen Kind = iota
	CloseParen
	OpenBrace
	CloseBrace
	Quote
	Field
	Operator
	Letter
	Integer
	Decimal
	And
	Or
	Not
	EOF
)

var kindNames = [...]string{
	OpenParen:  "(",
	CloseParen: ")",
	OpenBrace:  "{",
	CloseBrace: "}",
	Quote:      `"`,
	Field:      "field",
	Operator:   "operator",
	Letter:     "letter",
	Integer:    "integer",
	Decimal:    "decimal",
	And:        "and",
	Or:         "or",
	Not:        "not",
	EOF:        "EOF",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// HasData reports whether tokens of this kind carry lexeme text.
func (k Kind) HasData() bool {
	switch k {
	case Field, Operator, Letter, Integer, Decimal, And, Or, Not:
		return true
	}
	return false
}

// Position is a half-open [Begin, End) span of rune offsets into the rule text.
type Position struct {
	Begin int
	End   int
}

// Column returns the 1-based column of the first rune of the span.
func (p Position) Column() int {
	return p.Begin + 1
}

// Len returns the number of runes covered by the span.
func (p Position) Len() int {
	return p.End - p.Begin
}

func (p Position) String() string {
	return fmt.Sprintf("[%d,%d)", p.Begin, p.End)
}
