package matcher

import (
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"
)

// minAutomatonPatterns is the list length from which any/all scan the text
// once with an automaton instead of once per literal.
const minAutomatonPatterns = 4

// patternSet is a compiled any/all literal list.
type patternSet struct {
	automaton ac.AhoCorasick
	patterns  []string
	hasEmpty  bool
}

func newPatternSet(literals []string) *patternSet {
	ps := &patternSet{}
	seen := make(map[string]struct{}, len(literals))
	for _, lit := range literals {
		if lit == "" {
			ps.hasEmpty = true
			continue
		}
		if _, dup := seen[lit]; dup {
			continue
		}
		seen[lit] = struct{}{}
		ps.patterns = append(ps.patterns, lit)
	}

	if len(ps.patterns) > 0 {
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			MatchKind: ac.LeftMostLongestMatch,
		})
		ps.automaton = builder.Build(ps.patterns)
	}
	return ps
}

func (ps *patternSet) any(text string) bool {
	if ps.hasEmpty {
		return true
	}
	if len(ps.patterns) == 0 {
		return false
	}
	return len(ps.automaton.FindAll(text)) > 0
}

// all reports whether every literal occurs in text. Matches reported by the
// automaton never overlap, so literals it did not report are confirmed with
// a direct search.
func (ps *patternSet) all(text string) bool {
	if len(ps.patterns) == 0 {
		return true
	}
	seen := make([]bool, len(ps.patterns))
	found := 0
	for _, m := range ps.automaton.FindAll(text) {
		idx := m.Pattern()
		if idx >= 0 && idx < len(seen) && !seen[idx] {
			seen[idx] = true
			found++
		}
	}
	if found == len(ps.patterns) {
		return true
	}

	for i, p := range ps.patterns {
		if !seen[i] && !strings.Contains(text, p) {
			return false
		}
	}
	return true
}
