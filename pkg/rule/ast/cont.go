package ast

import (
	"strings"

	rerrors "mercator-hq/matchgram/pkg/rule/errors"
)

// Cont is a single condition: `[not] field operator value` or `[not] field`.
// Operator is zero and Value is nil exactly when the condition is a
// presence check.
type Cont struct {
	Negative bool
	Field    Field
	Operator Operator
	Value    Values
}

// NewCont creates a comparison condition. Value must not be empty.
func NewCont(negative bool, field Field, operator Operator, value Values) (Cont, error) {
	if operator == 0 {
		return Cont{}, rerrors.NewFieldError(rerrors.FieldRequireOperator, field.String(), 0)
	}
	if len(value) == 0 {
		return Cont{}, rerrors.NewFieldError(rerrors.FieldRequireValue, field.String(), 0)
	}
	return Cont{
		Negative: negative,
		Field:    field,
		Operator: operator,
		Value:    value,
	}, nil
}

// NewPresence creates a presence check condition.
func NewPresence(negative bool, field Field) Cont {
	return Cont{Negative: negative, Field: field}
}

// IsPresence reports whether the condition tests the field's truthiness.
func (c Cont) IsPresence() bool {
	return c.Operator == 0
}

// String renders the condition as rule text.
func (c Cont) String() string {
	var sb strings.Builder
	if c.Negative {
		sb.WriteString("not ")
	}
	sb.WriteString(c.Field.String())
	if !c.IsPresence() {
		sb.WriteString(" ")
		sb.WriteString(c.Operator.String())
		sb.WriteString(" ")
		sb.WriteString(c.Value.String())
	}
	return sb.String()
}

// Group is a non-empty AND-conjunction of conditions.
type Group []Cont

// String renders the group as `(a and b)`.
func (g Group) String() string {
	parts := make([]string, len(g))
	for i, c := range g {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " and ") + ")"
}

// Groups is the OR-sequence of groups a rule compiles to.
type Groups []Group

// String renders the groups as rule text that compiles back to the same structure.
func (gs Groups) String() string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.String()
	}
	return strings.Join(parts, " or ")
}

// Conditions returns the total number of conditions across all groups.
func (gs Groups) Conditions() int {
	n := 0
	for _, g := range gs {
		n += len(g)
	}
	return n
}
