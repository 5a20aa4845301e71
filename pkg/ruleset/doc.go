// Package ruleset loads named rules from YAML files and evaluates messages
// against all of them.
//
// A rule set file holds a list of rules, each with a name, an optional
// action label and the rule text:
//
//	name: anti-spam
//	rules:
//	  - name: gambling-ads
//	    action: delete
//	    rule: (message.text any {"菠菜" "博彩"})
//	  - name: bot-links
//	    action: ban
//	    enabled: false
//	    rule: (message.from.is_bot and message.text hd "https://")
//
// Loading compiles every rule and reports every broken one at once, each
// with its file, line and the rule error. The Manager installs a loaded
// collection with a single atomic swap; a failed reload leaves the previous
// rules serving. Watch reloads on file changes, debounced.
//
// Evaluate runs every enabled rule and returns a Verdict with the hits in
// rule set order, the rules that failed to evaluate, and the content
// version of the rules that produced it.
package ruleset
