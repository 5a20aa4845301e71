package ruleset

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/matchgram/pkg/rule"
)

// File is the on-disk form of a rule set.
//
//	name: anti-spam
//	description: gambling and ad spam
//	rules:
//	  - name: gambling-ads
//	    action: delete
//	    rule: (message.text any {"菠菜" "博彩"})
type File struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Rules       []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule in a rule set file.
type RuleSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Action      string   `yaml:"action,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Enabled     *bool    `yaml:"enabled,omitempty"`
	Rule        string   `yaml:"rule"`

	// Line is the line of the rule entry in its file.
	Line int `yaml:"-"`
}

var ruleSpecKeys = map[string]bool{
	"name": true, "description": true, "action": true,
	"tags": true, "enabled": true, "rule": true,
}

// UnmarshalYAML records the entry's line before decoding it. Node.Decode
// does not inherit the decoder's KnownFields, so keys are checked here.
func (s *RuleSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if !ruleSpecKeys[key.Value] {
				return fmt.Errorf("line %d: field %s not found in rule", key.Line, key.Value)
			}
		}
	}

	type plain RuleSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = RuleSpec(p)
	s.Line = node.Line
	return nil
}

// IsEnabled reports whether the rule takes part in evaluation. Rules are
// enabled unless they say otherwise.
func (s RuleSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Set is a compiled rule set.
type Set struct {
	Name        string
	Description string
	Path        string
	Rules       []*CompiledRule
}

// CompiledRule is a rule ready for evaluation.
type CompiledRule struct {
	Set         string
	Name        string
	Description string
	Action      string
	Tags        []string
	Enabled     bool
	Text        string
	Path        string
	Line        int
	Matcher     *rule.Matcher
}

// ID is the rule's stable identifier, "set/name".
func (r *CompiledRule) ID() string {
	return r.Set + "/" + r.Name
}

// Hit is a rule that matched a message.
type Hit struct {
	RuleSet string `json:"rule_set"`
	Rule    string `json:"rule"`
	Action  string `json:"action,omitempty"`

	// Group is the index of the first group that matched.
	Group int `json:"group"`
}

// RuleError is a rule whose evaluation failed. It is reported alongside the
// hits rather than aborting the whole evaluation.
type RuleError struct {
	RuleSet string `json:"rule_set"`
	Rule    string `json:"rule"`
	Error   string `json:"error"`
}

// Verdict is the result of evaluating one message against the loaded rules.
type Verdict struct {
	Matched   []Hit         `json:"matched"`
	Errors    []RuleError   `json:"errors,omitempty"`
	Evaluated int           `json:"evaluated"`
	Version   string        `json:"version"`
	Duration  time.Duration `json:"duration_ns"`
}

// IsMatch reports whether any rule matched.
func (v *Verdict) IsMatch() bool {
	return len(v.Matched) > 0
}

// Actions returns the distinct actions of the matched rules in rule order.
func (v *Verdict) Actions() []string {
	seen := make(map[string]bool, len(v.Matched))
	var actions []string
	for _, hit := range v.Matched {
		if hit.Action == "" || seen[hit.Action] {
			continue
		}
		seen[hit.Action] = true
		actions = append(actions, hit.Action)
	}
	return actions
}
