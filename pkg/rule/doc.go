// Package rule compiles and evaluates message-filtering rules.
//
// A rule is one or more parenthesised groups joined by `or`. A group holds
// one or more conditions joined by `and`, each optionally negated with
// `not`:
//
//	(message.from.is_bot) or (message.text any {"菠菜" "博彩"} and not message.reply_to_message)
//
// A condition is either a bare presence field, or a field, an operator and
// a value. Values are quoted strings, bare integers or decimals, or a
// brace list of them:
//
//	(message.text.len gt 200)
//	(message.from.first_name in {"Java" "Rust"})
//	(message.location.latitude ge 31.25)
//
// Operators: eq, gt, lt, ge, le, in (equals one of), any (contains one
// of), all (contains every one of), hd (starts with) and td (ends with).
// Which operators a field accepts is defined by a registry; see the
// registry package for the standard table.
//
// Compile once and match many times:
//
//	m, err := rule.Compile(`(not message.text any {"say:" "说："})`)
//	if err != nil {
//		return err
//	}
//	matched, err := m.Match(msg)
//
// A compiled Matcher is immutable and may be shared between goroutines.
//
// # Absent values
//
// When a condition's field, or a parent on its path, is not set on the
// message, a plain condition is false and a negated one is true. For a
// message without a sender both `(message.from.first_name eq "x")` and
// `(message.from.is_bot)` are false, and their negations are true.
//
// # Keywords
//
// `and`, `or` and `not` must be followed by whitespace, and are only
// recognised where the grammar allows them: `and` and `or` between
// conditions and groups, `not` at the start of a condition. A field may
// therefore be named `order` or `notice`.
package rule
