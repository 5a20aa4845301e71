package lexer

import (
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/token"
)

// Lexer converts rule text into a token Stream.
//
// The scan is context-sensitive: `(` and the `and` keyword are always
// followed by a condition head (optional `not`, a field, and unless the
// field is used bare an operator and a value expression). Keywords are only
// recognised where the grammar expects them, so a field may be named
// `order` or `notice` without colliding with `or` and `not`.
type Lexer struct {
	input     []rune
	pos       int
	tokens    []token.Kind
	positions []token.Position
}

// New creates a lexer over text.
func New(text string) *Lexer {
	input := []rune(text)
	return &Lexer{
		input:     input,
		tokens:    make([]token.Kind, 0, len(input)/4+1),
		positions: make([]token.Position, 0, len(input)/4+1),
	}
}

// Tokenize is shorthand for New(text).Tokenize().
func Tokenize(text string) (*Stream, error) {
	return New(text).Tokenize()
}

// Tokenize scans the whole input. The first error aborts the scan; no
// partial stream is returned. `and` joins conditions inside a group only;
// groups are joined with `or`.
func (l *Lexer) Tokenize() (*Stream, error) {
	inGroup := false
	for {
		l.skipWhitespace()
		if l.eof() {
			l.push(token.EOF, l.pos, l.pos)
			return &Stream{
				Input:     l.input,
				Tokens:    l.tokens,
				Positions: l.positions,
			}, nil
		}

		switch c := l.current(); {
		case c == '(':
			l.pushDelimiter(token.OpenParen)
			inGroup = true
			if err := l.condition(); err != nil {
				return nil, err
			}
		case c == ')':
			l.pushDelimiter(token.CloseParen)
			inGroup = false
		case inGroup && l.keywordAhead("and"):
			l.pushKeyword(token.And, len("and"))
			if err := l.condition(); err != nil {
				return nil, err
			}
		case l.keywordAhead("or"):
			l.pushKeyword(token.Or, len("or"))
		default:
			return nil, rerrors.At(rerrors.ParseFailed, l.column())
		}
	}
}

// condition scans `[not] field [operator value]`.
func (l *Lexer) condition() error {
	l.skipWhitespace()
	if l.keywordAhead("not") {
		l.pushKeyword(token.Not, len("not"))
		l.skipWhitespace()
	}

	begin := l.pos
	l.scanWord()
	if l.pos == begin {
		return rerrors.At(rerrors.MissingField, l.column())
	}
	l.push(token.Field, begin, l.pos)

	l.skipWhitespace()
	if l.eof() {
		return rerrors.At(rerrors.MissingOperator, l.column())
	}
	// A bare field is a presence check.
	if l.current() == ')' || l.keywordAhead("and") {
		return nil
	}

	begin = l.pos
	l.scanWord()
	if l.pos == begin {
		return rerrors.At(rerrors.MissingOperator, l.column())
	}
	l.push(token.Operator, begin, l.pos)

	l.skipWhitespace()
	return l.valueExpr()
}

// valueExpr scans `{ value... }`, `"letter"` or a bare number.
func (l *Lexer) valueExpr() error {
	if l.eof() {
		return rerrors.At(rerrors.MissingValue, l.column())
	}

	switch c := l.current(); {
	case c == '{':
		l.pushDelimiter(token.OpenBrace)
		return l.list()
	case c == '"':
		return l.quoted()
	case isNumberStart(c):
		return l.number()
	default:
		return rerrors.At(rerrors.ShouldOpenBraceOrQuote, l.column())
	}
}

func (l *Lexer) list() error {
	for {
		l.skipWhitespace()
		if l.eof() {
			return rerrors.At(rerrors.ShouldCloseBraceHere, l.column())
		}

		switch c := l.current(); {
		case c == '}':
			l.pushDelimiter(token.CloseBrace)
			return nil
		case c == '"':
			if err := l.quoted(); err != nil {
				return err
			}
		case isNumberStart(c):
			if err := l.number(); err != nil {
				return err
			}
		default:
			return rerrors.At(rerrors.ShouldQuoteHere, l.column())
		}
	}
}

// quoted scans `"letter"`. Only the closing quote ends the literal; a
// newline or the end of input before it is an error.
func (l *Lexer) quoted() error {
	l.pushDelimiter(token.Quote)

	begin := l.pos
	for !l.eof() && l.current() != '"' && l.current() != '\n' {
		l.pos++
	}
	if l.eof() || l.current() == '\n' {
		return rerrors.At(rerrors.MissingQuote, l.column())
	}

	l.push(token.Letter, begin, l.pos)
	l.pushDelimiter(token.Quote)
	return nil
}

// number scans `-?digits` or `-?digits.digits`, which must be followed by
// whitespace, `}`, `)` or the end of input.
func (l *Lexer) number() error {
	begin := l.pos
	for !l.eof() && !isNumberEnd(l.current()) {
		l.pos++
	}

	kind, ok := classifyNumber(l.input[begin:l.pos])
	if !ok {
		return rerrors.At(rerrors.DecimalParseFailed, begin+1)
	}
	l.push(kind, begin, l.pos)
	return nil
}

func classifyNumber(s []rune) (token.Kind, bool) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}

	intDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		intDigits++
	}
	if intDigits == 0 {
		return 0, false
	}
	if i == len(s) {
		return token.Integer, true
	}
	if s[i] != '.' {
		return 0, false
	}
	i++

	fracDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		fracDigits++
	}
	if fracDigits == 0 || i != len(s) {
		return 0, false
	}
	return token.Decimal, true
}

// scanWord advances over a field or operator name.
func (l *Lexer) scanWord() {
	for !l.eof() && !isWordEnd(l.current()) {
		l.pos++
	}
}

// keywordAhead reports whether word starts at the current position and is
// followed by whitespace.
func (l *Lexer) keywordAhead(word string) bool {
	end := l.pos + len(word)
	if end >= len(l.input) {
		return false
	}
	for i, r := range word {
		if l.input[l.pos+i] != r {
			return false
		}
	}
	return isWhitespace(l.input[end])
}

func (l *Lexer) push(kind token.Kind, begin, end int) {
	l.tokens = append(l.tokens, kind)
	l.positions = append(l.positions, token.Position{Begin: begin, End: end})
}

func (l *Lexer) pushDelimiter(kind token.Kind) {
	l.push(kind, l.pos, l.pos+1)
	l.pos++
}

func (l *Lexer) pushKeyword(kind token.Kind, length int) {
	l.push(kind, l.pos, l.pos+length)
	l.pos += length
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() && isWhitespace(l.current()) {
		l.pos++
	}
}

func (l *Lexer) current() rune {
	return l.input[l.pos]
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

// column returns the 1-based column of the current position.
func (l *Lexer) column() int {
	return l.pos + 1
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNumberStart(r rune) bool {
	return isDigit(r) || r == '-'
}

func isNumberEnd(r rune) bool {
	return isWhitespace(r) || r == '}' || r == ')'
}

func isWordEnd(r rune) bool {
	switch r {
	case '(', ')', '{', '}', '"':
		return true
	}
	return isWhitespace(r)
}
