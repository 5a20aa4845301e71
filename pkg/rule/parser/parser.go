// Package parser builds matchers from lexed rule text.
//
// Grammar:
//
//	rule       := group ('or' group)* EOF
//	group      := '(' cond ('and' cond)* ')'
//	cond       := ['not'] field [operator value_expr]
//	value_expr := '{' value value* '}' | value
//	value      := '"' letter '"' | integer | decimal
//
// Both repetitions are plain loops, so rule length is bounded only by
// memory. Every field and operator is checked against a registry while
// parsing; the resulting matcher never re-validates them.
package parser

import (
	"strconv"

	"mercator-hq/matchgram/pkg/rule/ast"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/lexer"
	"mercator-hq/matchgram/pkg/rule/matcher"
	"mercator-hq/matchgram/pkg/rule/registry"
	"mercator-hq/matchgram/pkg/rule/token"
)

// Parser turns token streams into matchers. It holds only its registry and
// may be shared between goroutines.
type Parser struct {
	registry *registry.Registry
}

// New creates a parser validating against reg. A nil reg uses
// registry.Default().
func New(reg *registry.Registry) *Parser {
	if reg == nil {
		reg = registry.Default()
	}
	return &Parser{registry: reg}
}

// Registry returns the registry the parser validates against.
func (p *Parser) Registry() *registry.Registry {
	return p.registry
}

// Parse builds a matcher from stream.
func (p *Parser) Parse(stream *lexer.Stream) (*matcher.Matcher, error) {
	groups, err := p.ParseGroups(stream)
	if err != nil {
		return nil, err
	}
	return matcher.New(groups)
}

// ParseGroups builds the group structure from stream without compiling it.
func (p *Parser) ParseGroups(stream *lexer.Stream) (ast.Groups, error) {
	st := &state{registry: p.registry, stream: stream}
	return st.rule()
}

// state is the cursor of a single parse.
type state struct {
	registry *registry.Registry
	stream   *lexer.Stream
	i        int
}

func (st *state) rule() (ast.Groups, error) {
	first, err := st.group()
	if err != nil {
		return nil, err
	}
	groups := ast.Groups{first}

	for st.peek() == token.Or {
		st.next()
		g, err := st.group()
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	if st.peek() != token.EOF {
		return nil, st.errorHere(rerrors.ShouldEndHere)
	}
	return groups, nil
}

func (st *state) group() (ast.Group, error) {
	if st.peek() != token.OpenParen {
		return nil, st.errorHere(rerrors.ShouldOpenParenthesisHere)
	}
	st.next()

	first, err := st.cond()
	if err != nil {
		return nil, err
	}
	group := ast.Group{first}

	for st.peek() == token.And {
		st.next()
		c, err := st.cond()
		if err != nil {
			return nil, err
		}
		group = append(group, c)
	}

	if st.peek() != token.CloseParen {
		return nil, st.errorHere(rerrors.ShouldCloseParenthesisHere)
	}
	st.next()
	return group, nil
}

func (st *state) cond() (ast.Cont, error) {
	negative := false
	if st.peek() == token.Not {
		negative = true
		st.next()
	}

	if st.peek() != token.Field {
		return ast.Cont{}, st.errorHere(rerrors.MissingCondition)
	}
	field, fieldColumn, err := st.field()
	if err != nil {
		return ast.Cont{}, err
	}
	ops, enabled := st.registry.Lookup(field)
	if !enabled {
		return ast.Cont{}, rerrors.NewFieldError(rerrors.FieldNotEnabled, field.String(), fieldColumn)
	}

	if st.peek() != token.Operator {
		if len(ops) > 0 {
			e := rerrors.NewFieldError(rerrors.FieldRequireOperator, field.String(), fieldColumn)
			e.Suggestion = rerrors.SuggestOperators(field.String(), st.registry.OperatorNames(field))
			return ast.Cont{}, e
		}
		return ast.NewPresence(negative, field), nil
	}

	op, opColumn, err := st.operator()
	if err != nil {
		return ast.Cont{}, err
	}
	if !st.registry.Supports(field, op) {
		e := rerrors.NewUnsupportedOperatorError(field.String(), op.String(), opColumn)
		e.Suggestion = rerrors.SuggestOperators(field.String(), st.registry.OperatorNames(field))
		return ast.Cont{}, e
	}

	valueColumn := st.column()
	values, err := st.valueExpr()
	if err != nil {
		return ast.Cont{}, err
	}
	if err := checkValues(field, values, valueColumn); err != nil {
		return ast.Cont{}, err
	}

	c, err := ast.NewCont(negative, field, op, values)
	if err != nil {
		if e, ok := err.(*rerrors.Error); ok {
			e.Column = fieldColumn
		}
		return ast.Cont{}, err
	}
	return c, nil
}

func (st *state) field() (ast.Field, int, error) {
	column := st.column()
	text, err := st.stream.Text(st.i)
	if err != nil {
		return 0, column, err
	}
	field, ok := ast.ParseField(text)
	if !ok {
		return 0, column, rerrors.NewUnknownFieldError(text, column, rerrors.SuggestName(text, ast.FieldNames()))
	}
	st.next()
	return field, column, nil
}

func (st *state) operator() (ast.Operator, int, error) {
	column := st.column()
	text, err := st.stream.Text(st.i)
	if err != nil {
		return 0, column, err
	}
	op, ok := ast.ParseOperator(text)
	if !ok {
		return 0, column, rerrors.NewUnknownOperatorError(text, column, rerrors.SuggestName(text, ast.OperatorNames()))
	}
	st.next()
	return op, column, nil
}

func (st *state) valueExpr() (ast.Values, error) {
	switch st.peek() {
	case token.OpenBrace:
		st.next()
		var values ast.Values
		for {
			switch st.peek() {
			case token.CloseBrace:
				if len(values) == 0 {
					return nil, st.errorHere(rerrors.ShouldValueHere)
				}
				st.next()
				return values, nil
			case token.EOF:
				return nil, st.errorHere(rerrors.ShouldCloseBraceHere)
			}
			v, err := st.value()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	case token.Quote, token.Integer, token.Decimal:
		v, err := st.value()
		if err != nil {
			return nil, err
		}
		return ast.Values{v}, nil
	}
	return nil, st.errorHere(rerrors.ShouldValueHere)
}

func (st *state) value() (ast.Value, error) {
	column := st.column()
	switch st.peek() {
	case token.Quote:
		st.next()
		if st.peek() != token.Letter {
			return ast.Value{}, st.errorHere(rerrors.ShouldValueHere)
		}
		text, err := st.stream.Text(st.i)
		if err != nil {
			return ast.Value{}, err
		}
		st.next()
		if st.peek() != token.Quote {
			return ast.Value{}, st.errorHere(rerrors.ShouldQuoteHere)
		}
		st.next()
		return ast.LetterOf(text), nil

	case token.Integer:
		text, err := st.stream.Text(st.i)
		if err != nil {
			return ast.Value{}, err
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ast.Value{}, &rerrors.Error{Kind: rerrors.DecimalParseFailed, Column: column, Value: text, Err: err}
		}
		st.next()
		return ast.IntegerOf(n), nil

	case token.Decimal:
		text, err := st.stream.Text(st.i)
		if err != nil {
			return ast.Value{}, err
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ast.Value{}, &rerrors.Error{Kind: rerrors.DecimalParseFailed, Column: column, Value: text, Err: err}
		}
		st.next()
		return ast.FloatOf(f), nil
	}
	return ast.Value{}, st.errorHere(rerrors.ShouldQuoteHere)
}

// checkValues rejects literals of the wrong kind for the field, so that
// evaluation never meets a data-shape error.
func checkValues(field ast.Field, values ast.Values, column int) error {
	want := field.ValueKind()
	for _, v := range values {
		if v.Kind != want {
			return &rerrors.Error{
				Kind:   rerrors.InvalidValue,
				Column: column,
				Field:  field.String(),
				Value:  v.Text(),
			}
		}
	}
	return nil
}

func (st *state) peek() token.Kind {
	return st.stream.Kind(st.i)
}

func (st *state) next() {
	st.i++
}

func (st *state) column() int {
	return st.stream.Column(st.i)
}

func (st *state) errorHere(kind rerrors.Kind) *rerrors.Error {
	return rerrors.At(kind, st.column())
}
