package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"mercator-hq/matchgram/pkg/rule/token"
)

// Kind identifies a rule compilation or evaluation failure.
type Kind int

const (
	ShouldEndHere Kind = iota + 1
	ShouldOpenParenthesisHere
	ShouldCloseParenthesisHere
	UnsupportedOperator
	UnknownField
	UnknownOperator
	InvalidValue
	MissingField
	MissingOperator
	FieldRequireOperator
	FieldRequireValue
	MissingValue
	MissingQuote
	ShouldQuoteHere
	ShouldCloseBraceHere
	ShouldValueHere
	ShouldOpenBraceOrQuote
	MissingCondition
	MissingTokenPosition
	MissingTokenData
	DecimalParseFailed
	ParseFailed
	FieldNotEnabled
	NotAString
	NotADecimal
	RefValueInEmptyList
	JSON
)

var kindNames = map[Kind]string{
	ShouldEndHere:              "should_end_here",
	ShouldOpenParenthesisHere:  "should_open_parenthesis_here",
	ShouldCloseParenthesisHere: "should_close_parenthesis_here",
	UnsupportedOperator:        "unsupported_operator",
	UnknownField:               "unknown_field",
	UnknownOperator:            "unknown_operator",
	InvalidValue:               "invalid_value",
	MissingField:               "missing_field",
	MissingOperator:            "missing_operator",
	FieldRequireOperator:       "field_require_operator",
	FieldRequireValue:          "field_require_value",
	MissingValue:               "missing_value",
	MissingQuote:               "missing_quote",
	ShouldQuoteHere:            "should_quote_here",
	ShouldCloseBraceHere:       "should_close_brace_here",
	ShouldValueHere:            "should_value_here",
	ShouldOpenBraceOrQuote:     "should_open_brace_or_quote",
	MissingCondition:           "missing_condition",
	MissingTokenPosition:       "missing_token_position",
	MissingTokenData:           "missing_token_data",
	DecimalParseFailed:         "decimal_parse_failed",
	ParseFailed:                "parse_failed",
	FieldNotEnabled:            "field_not_enabled",
	NotAString:                 "not_a_string",
	NotADecimal:                "not_a_decimal",
	RefValueInEmptyList:        "ref_value_in_empty_list",
	JSON:                       "json",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Category groups error kinds by the pipeline stage that raises them.
type Category string

const (
	CategoryLexical   Category = "lexical"
	CategorySyntactic Category = "syntactic"
	CategorySemantic  Category = "semantic"
	CategoryDataShape Category = "data_shape"
	CategoryPosition  Category = "position"
	CategoryInput     Category = "input"
)

// Category returns the category of the kind.
func (k Kind) Category() Category {
	switch k {
	case ParseFailed, MissingField, MissingOperator, MissingValue, MissingQuote,
		ShouldQuoteHere, ShouldCloseBraceHere, ShouldOpenBraceOrQuote:
		return CategoryLexical
	case ShouldEndHere, ShouldOpenParenthesisHere, ShouldCloseParenthesisHere,
		ShouldValueHere, MissingCondition, DecimalParseFailed:
		return CategorySyntactic
	case UnknownField, UnknownOperator, FieldNotEnabled, UnsupportedOperator,
		FieldRequireOperator, FieldRequireValue, InvalidValue:
		return CategorySemantic
	case NotAString, NotADecimal, RefValueInEmptyList:
		return CategoryDataShape
	case MissingTokenPosition, MissingTokenData:
		return CategoryPosition
	default:
		return CategoryInput
	}
}

// Error is a rule error. Column is 1-based and zero when the error is not
// tied to a place in the rule text.
type Error struct {
	Kind       Kind
	Column     int
	Field      string
	Operator   string
	Value      string
	Token      token.Kind
	Index      int
	Source     string // rule name or file the text came from, if known
	Context    string // rendered rule line with a caret, if attached
	Suggestion string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	if e.Source != "" {
		sb.WriteString(e.Source)
		sb.WriteString(": ")
	}
	sb.WriteString(e.message())

	if e.Suggestion != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Suggestion)
		sb.WriteString(")")
	}

	return sb.String()
}

func (e *Error) message() string {
	switch e.Kind {
	case ShouldEndHere:
		return fmt.Sprintf("should end here, column: %d", e.Column)
	case ShouldOpenParenthesisHere:
		return fmt.Sprintf("should be `(` from column: %d", e.Column)
	case ShouldCloseParenthesisHere:
		return fmt.Sprintf("should be `)` from column: %d", e.Column)
	case UnsupportedOperator:
		return fmt.Sprintf("the field `%s` does not support the `%s` operator", e.Field, e.Operator)
	case UnknownField:
		return fmt.Sprintf("unknown `%s` field", e.Field)
	case UnknownOperator:
		return fmt.Sprintf("unknown `%s` operator", e.Operator)
	case InvalidValue:
		return fmt.Sprintf("the value `%s` of the field `%s` is invalid", e.Value, e.Field)
	case MissingField:
		return fmt.Sprintf("missing field from column %d", e.Column)
	case MissingOperator:
		return fmt.Sprintf("missing operator from column %d", e.Column)
	case FieldRequireOperator:
		return fmt.Sprintf("field `%s` requires operator", e.Field)
	case FieldRequireValue:
		return fmt.Sprintf("field `%s` requires value", e.Field)
	case MissingValue:
		return fmt.Sprintf("missing value from column %d", e.Column)
	case MissingQuote:
		return fmt.Sprintf("missing quote from column %d", e.Column)
	case ShouldQuoteHere:
		return fmt.Sprintf("should be `\"` from column: %d", e.Column)
	case ShouldCloseBraceHere:
		return fmt.Sprintf("should be `}` from column: %d", e.Column)
	case ShouldValueHere:
		return fmt.Sprintf("should be values from column: %d", e.Column)
	case ShouldOpenBraceOrQuote:
		return fmt.Sprintf("should be `{` or `\"` from column: %d", e.Column)
	case MissingCondition:
		return fmt.Sprintf("missing condition from column %d", e.Column)
	case MissingTokenPosition:
		return fmt.Sprintf("token `%s` is missing position information, index %d", e.Token, e.Index)
	case MissingTokenData:
		return fmt.Sprintf("the token data at index %d is missing", e.Index)
	case DecimalParseFailed:
		return fmt.Sprintf("error in conversion of numbers starting in column %d", e.Column)
	case ParseFailed:
		return fmt.Sprintf("failed to parse from column %d", e.Column)
	case FieldNotEnabled:
		return fmt.Sprintf("the field `%s` is not enabled", e.Field)
	case NotAString:
		return fmt.Sprintf("the value `%s` is not a string", e.Value)
	case NotADecimal:
		return fmt.Sprintf("the value `%s` is not a decimal", e.Value)
	case RefValueInEmptyList:
		return "reference to a value in an empty list"
	case JSON:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid JSON"
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. It lets callers
// write errors.Is(err, &Error{Kind: MissingQuote}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// At creates an error of the given kind at a 1-based column.
func At(kind Kind, column int) *Error {
	return &Error{Kind: kind, Column: column}
}

// NewUnknownFieldError creates an UnknownField error.
func NewUnknownFieldError(field string, column int, suggestion string) *Error {
	return &Error{
		Kind:       UnknownField,
		Column:     column,
		Field:      field,
		Suggestion: suggestion,
	}
}

// NewUnknownOperatorError creates an UnknownOperator error.
func NewUnknownOperatorError(operator string, column int, suggestion string) *Error {
	return &Error{
		Kind:       UnknownOperator,
		Column:     column,
		Operator:   operator,
		Suggestion: suggestion,
	}
}

// NewFieldError creates an error of the given kind about a field.
func NewFieldError(kind Kind, field string, column int) *Error {
	return &Error{Kind: kind, Column: column, Field: field}
}

// NewUnsupportedOperatorError creates an UnsupportedOperator error.
func NewUnsupportedOperatorError(field, operator string, column int) *Error {
	return &Error{
		Kind:     UnsupportedOperator,
		Column:   column,
		Field:    field,
		Operator: operator,
	}
}

// NewValueError creates a data-shape error about a rule value.
func NewValueError(kind Kind, value string) *Error {
	return &Error{Kind: kind, Value: value}
}

// NewTokenError creates a position bookkeeping error.
func NewTokenError(kind Kind, tok token.Kind, index int) *Error {
	return &Error{Kind: kind, Token: tok, Index: index}
}

// NewJSONError wraps a message decoding failure.
func NewJSONError(err error) *Error {
	return &Error{Kind: JSON, Err: err}
}
