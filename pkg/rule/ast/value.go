package ast

import (
	"strconv"
	"strings"

	rerrors "mercator-hq/matchgram/pkg/rule/errors"
)

// ValueKind tags a rule value.
type ValueKind int

const (
	LetterValue ValueKind = iota + 1
	DecimalValue
)

// Decimal is a numeric rule value. Integer literals keep their exact int64
// form; literals written with a decimal point are held as float64.
type Decimal struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// Float64 returns the value as a float64.
func (d Decimal) Float64() float64 {
	if d.IsFloat {
		return d.Float
	}
	return float64(d.Int)
}

// CompareInt compares v against d and returns -1, 0 or +1.
func (d Decimal) CompareInt(v int64) int {
	if d.IsFloat {
		return compareFloat(float64(v), d.Float)
	}
	switch {
	case v < d.Int:
		return -1
	case v > d.Int:
		return 1
	}
	return 0
}

// CompareFloat compares v against d and returns -1, 0 or +1.
func (d Decimal) CompareFloat(v float64) int {
	return compareFloat(v, d.Float64())
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Decimal) String() string {
	if !d.IsFloat {
		return strconv.FormatInt(d.Int, 10)
	}
	s := strconv.FormatFloat(d.Float, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Value is a tagged union: a quoted letter or a decimal.
type Value struct {
	Kind    ValueKind
	Letter  string
	Decimal Decimal
}

// LetterOf creates a letter value.
func LetterOf(s string) Value {
	return Value{Kind: LetterValue, Letter: s}
}

// IntegerOf creates an integer decimal value.
func IntegerOf(i int64) Value {
	return Value{Kind: DecimalValue, Decimal: Decimal{Int: i}}
}

// FloatOf creates a fractional decimal value.
func FloatOf(f float64) Value {
	return Value{Kind: DecimalValue, Decimal: Decimal{Float: f, IsFloat: true}}
}

// String returns the value as it would be written in a rule.
func (v Value) String() string {
	if v.Kind == DecimalValue {
		return v.Decimal.String()
	}
	return `"` + v.Letter + `"`
}

// Text returns the bare value without quoting.
func (v Value) Text() string {
	if v.Kind == DecimalValue {
		return v.Decimal.String()
	}
	return v.Letter
}

// AsString returns the letter, or NotAString for a decimal.
func (v Value) AsString() (string, error) {
	if v.Kind != LetterValue {
		return "", rerrors.NewValueError(rerrors.NotAString, v.Text())
	}
	return v.Letter, nil
}

// AsDecimal returns the decimal, or NotADecimal for a letter.
func (v Value) AsDecimal() (Decimal, error) {
	if v.Kind != DecimalValue {
		return Decimal{}, rerrors.NewValueError(rerrors.NotADecimal, v.Text())
	}
	return v.Decimal, nil
}

// Values is the ordered value list of a condition. A single value and a
// brace-delimited list share this representation.
type Values []Value

// FirstString extracts the scalar string operand of eq, hd and td.
func (vs Values) FirstString() (string, error) {
	if len(vs) == 0 {
		return "", &rerrors.Error{Kind: rerrors.RefValueInEmptyList}
	}
	return vs[0].AsString()
}

// FirstDecimal extracts the scalar numeric operand of eq, gt, lt, ge and le.
func (vs Values) FirstDecimal() (Decimal, error) {
	if len(vs) == 0 {
		return Decimal{}, &rerrors.Error{Kind: rerrors.RefValueInEmptyList}
	}
	return vs[0].AsDecimal()
}

// Strings returns every value as a string, failing on the first decimal.
func (vs Values) Strings() ([]string, error) {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		s, err := v.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// String renders the list as a rule value expression.
func (vs Values) String() string {
	if len(vs) == 1 {
		return vs[0].String()
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
