// Package matcher evaluates compiled rules against messages.
//
// Groups are folded with OR and the conditions inside a group with AND,
// both short-circuiting left to right. Each condition first resolves its
// field on the message. If the field or a parent on its path is not set the
// raw outcome is Absent rather than false; Absent satisfies a negated
// condition and fails a plain one:
//
//	(message.from.is_bot)      // false for a message without a sender
//	(not message.from.is_bot)  // true for a message without a sender
//
// Presence-only fields test truthiness directly. All other fields dispatch
// on the operator to string, numeric or length comparisons.
package matcher
