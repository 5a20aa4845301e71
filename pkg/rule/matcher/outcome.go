package matcher

// Outcome is the raw result of a condition before negation.
type Outcome uint8

const (
	// False is a definite non-match.
	False Outcome = iota
	// True is a definite match.
	True
	// Absent means the field, or a parent on its path, is not set.
	Absent
)

func outcomeOf(b bool) Outcome {
	if b {
		return True
	}
	return False
}

// Resolve applies negation. An absent value never satisfies a plain
// condition and always satisfies a negated one.
func (o Outcome) Resolve(negative bool) bool {
	switch o {
	case True:
		return !negative
	case Absent:
		return negative
	default:
		return negative
	}
}

func (o Outcome) String() string {
	switch o {
	case True:
		return "true"
	case Absent:
		return "absent"
	default:
		return "false"
	}
}
