// Package ast defines the compiled structure of a rule.
//
// A rule compiles to Groups: an OR-sequence of AND-groups of conditions.
// The rule
//
//	(message.text any {"柬埔寨" "东南亚"} and message.text any {"菠菜" "博彩"}) or (message.text all {"承接" "广告"})
//
// has two groups; the first holds two conditions and the second one.
//
// # Fields
//
// Field is a closed enumeration of dotted message paths. Each field has a
// fixed external form used both for parsing and for error messages:
//
//	f, ok := ast.ParseField("message.from.first_name")
//	fmt.Println(f) // message.from.first_name
//
// # Operators
//
// Operator is one of eq, gt, lt, ge, le, in, any, all, hd (prefix) and
// td (suffix). Which operators a field accepts is decided by the registry
// package, not here.
//
// # Values
//
// A condition value is a non-empty Values list. A single quoted literal,
// a bare number and a brace list all share this representation. Scalar
// operators use the first element.
//
// # Round trip
//
// Groups.String renders rule text that compiles back to an equivalent
// structure, which the lint command uses to print a normalised rule.
package ast
