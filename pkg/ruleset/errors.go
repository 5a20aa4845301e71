package ruleset

import (
	"errors"
	"fmt"
	"strings"

	rerrors "mercator-hq/matchgram/pkg/rule/errors"
)

// LoadError is a rule set file that could not be read or decoded.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rule set %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rule set %q: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ValidationError is a structurally invalid rule set, such as a rule
// without a name.
type ValidationError struct {
	FilePath string
	Line     int
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid rule set %q at line %d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("invalid rule set %q: %s", e.FilePath, e.Message)
}

// CompileError is a rule whose text does not compile.
type CompileError struct {
	FilePath string
	Line     int
	RuleSet  string
	Rule     string
	Err      *rerrors.Error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: rule %s/%s: %v", e.FilePath, e.Line, e.RuleSet, e.Rule, e.Err)
}

// Unwrap returns the rule error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Errors aggregates the problems found while loading. Loading reports every
// broken rule at once.
type Errors []error

// Error implements the error interface.
func (es Errors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d rule set errors:", len(es)))
	for _, err := range es {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (es Errors) Unwrap() []error {
	return es
}

// CompileErrors returns the compile errors in err, for diagnostics output.
func CompileErrors(err error) []*CompileError {
	var out []*CompileError
	var list Errors
	if errors.As(err, &list) {
		for _, e := range list {
			var ce *CompileError
			if errors.As(e, &ce) {
				out = append(out, ce)
			}
		}
		return out
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}

// ErrNoRules is returned when a source contains no rule set files.
var ErrNoRules = errors.New("no rule set files found")
