package ruleset

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync/atomic"
	"time"
)

// snapshot is an immutable view of the loaded rule sets.
type snapshot struct {
	sets     []*Set
	rules    []*CompiledRule
	byID     map[string]*CompiledRule
	version  string
	loadedAt time.Time
}

// Registry holds the active rule sets. Replacing them is a single atomic
// pointer swap, so evaluations never observe a half-applied reload.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(newSnapshot(nil))
	return r
}

func newSnapshot(sets []*Set) *snapshot {
	sorted := append([]*Set(nil), sets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	s := &snapshot{
		sets:     sorted,
		byID:     make(map[string]*CompiledRule),
		loadedAt: time.Now(),
	}
	for _, set := range sorted {
		for _, r := range set.Rules {
			s.rules = append(s.rules, r)
			s.byID[r.ID()] = r
		}
	}
	s.version = Version(sorted)
	return s
}

// Replace swaps in a new collection of rule sets.
func (r *Registry) Replace(sets []*Set) {
	r.current.Store(newSnapshot(sets))
}

// Sets returns the loaded rule sets sorted by name.
func (r *Registry) Sets() []*Set {
	return r.current.Load().sets
}

// Rules returns every loaded rule, enabled or not, in evaluation order.
func (r *Registry) Rules() []*CompiledRule {
	return r.current.Load().rules
}

// Rule returns a rule by its "set/name" ID.
func (r *Registry) Rule(id string) (*CompiledRule, bool) {
	rule, ok := r.current.Load().byID[id]
	return rule, ok
}

// Version is a content hash of the loaded rules.
func (r *Registry) Version() string {
	return r.current.Load().version
}

// LoadedAt is when the current rules were installed.
func (r *Registry) LoadedAt() time.Time {
	return r.current.Load().loadedAt
}

// Len returns the number of enabled rules.
func (r *Registry) Len() int {
	n := 0
	for _, rule := range r.current.Load().rules {
		if rule.Enabled {
			n++
		}
	}
	return n
}

// Version hashes rule set contents: set names, rule names, enabled flags,
// actions and rule texts. Equal content always yields the same version.
func Version(sets []*Set) string {
	h := sha256.New()
	for _, set := range sets {
		h.Write([]byte(set.Name))
		h.Write([]byte{0})
		for _, r := range set.Rules {
			h.Write([]byte(r.Name))
			h.Write([]byte{0})
			if r.Enabled {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
			h.Write([]byte(r.Action))
			h.Write([]byte{0})
			h.Write([]byte(r.Text))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
