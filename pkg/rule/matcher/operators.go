package matcher

import (
	"strings"
	"unicode/utf8"

	"mercator-hq/matchgram/pkg/rule/ast"
)

func eqString(v string, values ast.Values) (bool, error) {
	s, err := values.FirstString()
	if err != nil {
		return false, err
	}
	return v == s, nil
}

func inString(v string, values ast.Values) (bool, error) {
	for _, value := range values {
		s, err := value.AsString()
		if err != nil {
			return false, err
		}
		if v == s {
			return true, nil
		}
	}
	return false, nil
}

func anyString(v string, values ast.Values) (bool, error) {
	for _, value := range values {
		s, err := value.AsString()
		if err != nil {
			return false, err
		}
		if strings.Contains(v, s) {
			return true, nil
		}
	}
	return false, nil
}

func allString(v string, values ast.Values) (bool, error) {
	for _, value := range values {
		s, err := value.AsString()
		if err != nil {
			return false, err
		}
		if !strings.Contains(v, s) {
			return false, nil
		}
	}
	return true, nil
}

func hdString(v string, values ast.Values) (bool, error) {
	s, err := values.FirstString()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(v, s), nil
}

func tdString(v string, values ast.Values) (bool, error) {
	s, err := values.FirstString()
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(v, s), nil
}

type number interface {
	int64 | float64
}

// compareNumber applies an ordering operator to v and the first decimal
// of values.
func compareNumber[T number](v T, op ast.Operator, values ast.Values) (bool, error) {
	d, err := values.FirstDecimal()
	if err != nil {
		return false, err
	}

	var c int
	switch x := any(v).(type) {
	case int64:
		c = d.CompareInt(x)
	case float64:
		c = d.CompareFloat(x)
	}

	switch op {
	case ast.Eq:
		return c == 0, nil
	case ast.Gt:
		return c > 0, nil
	case ast.Lt:
		return c < 0, nil
	case ast.Ge:
		return c >= 0, nil
	case ast.Le:
		return c <= 0, nil
	}
	return false, errUnsupported
}

// compareLength compares the character count of v.
func compareLength(v string, op ast.Operator, values ast.Values) (bool, error) {
	return compareNumber(int64(utf8.RuneCountInString(v)), op, values)
}
