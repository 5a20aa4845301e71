package matcher

import (
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/rule/ast"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
)

var errUnsupported = &rerrors.Error{Kind: rerrors.UnsupportedOperator}

// condition is a compiled Cont.
type condition struct {
	ast.Cont
	patterns *patternSet
}

// Matcher evaluates compiled groups against messages. It holds no state
// between calls and is safe for concurrent use.
type Matcher struct {
	groups     ast.Groups
	conditions [][]condition
}

// New compiles groups into a Matcher. any/all conditions with long literal
// lists get a multi-pattern automaton. A Matcher with no groups never
// matches.
func New(groups ast.Groups) (*Matcher, error) {
	m := &Matcher{
		groups:     groups,
		conditions: make([][]condition, len(groups)),
	}
	for gi, group := range groups {
		conds := make([]condition, len(group))
		for ci, cont := range group {
			c, err := compile(cont)
			if err != nil {
				return nil, err
			}
			conds[ci] = c
		}
		m.conditions[gi] = conds
	}
	return m, nil
}

func compile(cont ast.Cont) (condition, error) {
	c := condition{Cont: cont}
	if cont.Operator != ast.Any && cont.Operator != ast.All {
		return c, nil
	}
	if len(cont.Value) < minAutomatonPatterns {
		return c, nil
	}
	literals, err := cont.Value.Strings()
	if err != nil {
		return condition{}, err
	}
	c.patterns = newPatternSet(literals)
	return c, nil
}

// Groups returns the compiled group structure.
func (m *Matcher) Groups() ast.Groups {
	return m.groups
}

// String renders the matcher as rule text.
func (m *Matcher) String() string {
	return m.groups.String()
}

// Match reports whether msg satisfies any group.
func (m *Matcher) Match(msg *message.Message) (bool, error) {
	idx, err := m.MatchGroup(msg)
	return idx >= 0, err
}

// MatchGroup returns the index of the first group msg satisfies, or -1.
// Groups after the first match and conditions after the first failure in
// a group are not evaluated. A nil msg matches no group.
func (m *Matcher) MatchGroup(msg *message.Message) (int, error) {
	if msg == nil {
		return -1, nil
	}
	for gi, group := range m.conditions {
		matched, err := matchGroup(group, msg)
		if err != nil {
			return -1, err
		}
		if matched {
			return gi, nil
		}
	}
	return -1, nil
}

func matchGroup(group []condition, msg *message.Message) (bool, error) {
	for i := range group {
		ok, err := group[i].eval(msg)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *condition) eval(msg *message.Message) (bool, error) {
	out, err := c.outcome(msg)
	if err != nil {
		return false, err
	}
	return out.Resolve(c.Negative), nil
}

// outcome evaluates the condition without negation.
func (c *condition) outcome(msg *message.Message) (Outcome, error) {
	if c.IsPresence() {
		out, ok := presence(c.Field, msg)
		if !ok {
			return False, rerrors.NewFieldError(rerrors.FieldRequireOperator, c.Field.String(), 0)
		}
		return out, nil
	}

	a, ok := resolve(c.Field, msg)
	if !ok {
		return False, c.unsupported()
	}
	if !a.present {
		return Absent, nil
	}

	var (
		matched bool
		err     error
	)
	switch a.kind {
	case attrString:
		matched, err = c.matchString(a.s)
	case attrLength:
		matched, err = compareLength(a.s, c.Operator, c.Value)
	case attrInt:
		matched, err = compareNumber(a.i, c.Operator, c.Value)
	case attrFloat:
		matched, err = compareNumber(a.f, c.Operator, c.Value)
	}
	if err == errUnsupported {
		return False, c.unsupported()
	}
	if err != nil {
		return False, err
	}
	return outcomeOf(matched), nil
}

func (c *condition) matchString(v string) (bool, error) {
	switch c.Operator {
	case ast.Eq:
		return eqString(v, c.Value)
	case ast.In:
		return inString(v, c.Value)
	case ast.Any:
		if c.patterns != nil {
			return c.patterns.any(v), nil
		}
		return anyString(v, c.Value)
	case ast.All:
		if c.patterns != nil {
			return c.patterns.all(v), nil
		}
		return allString(v, c.Value)
	case ast.Hd:
		return hdString(v, c.Value)
	case ast.Td:
		return tdString(v, c.Value)
	}
	return false, errUnsupported
}

func (c *condition) unsupported() error {
	return rerrors.NewUnsupportedOperatorError(c.Field.String(), c.Operator.String(), 0)
}
