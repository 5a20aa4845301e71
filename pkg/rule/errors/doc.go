// Package errors provides the error surface of the rule compiler and evaluator.
//
// Every failure is an *Error carrying a Kind plus whatever context the kind
// needs: a 1-based column for lexical and syntactic errors, the field and
// operator names for semantic errors, the offending value for data-shape
// errors and the token index for position bookkeeping errors.
//
// # Kinds and categories
//
// Kinds are grouped by Kind.Category:
//
//   - lexical: ParseFailed, MissingField, MissingOperator, MissingValue, MissingQuote, ...
//   - syntactic: ShouldOpenParenthesisHere, ShouldCloseParenthesisHere, ShouldEndHere, ...
//   - semantic: UnknownField, UnknownOperator, FieldNotEnabled, UnsupportedOperator, ...
//   - data_shape: NotAString, NotADecimal, RefValueInEmptyList
//   - position: MissingTokenPosition, MissingTokenData
//
// # Matching errors
//
// Use IsKind or errors.Is with a kind-only template:
//
//	if errors.Is(err, &rerrors.Error{Kind: rerrors.MissingQuote}) { ... }
//
// # Rendering
//
// Format renders an error the way the lint command prints it:
//
//	[lexical] missing quote from column 23
//	  --> spam.yaml#gambling:23
//	  1 | (message.text all "不闭合
//	                                ^
//
// SuggestName uses Levenshtein distance to propose the closest field or
// operator name for UnknownField and UnknownOperator errors.
package errors
