package errors

import (
	"fmt"
	"strings"
)

// ExtractContext renders the line of text that contains the given 1-based
// column, followed by a caret under that column. Columns count runes, the
// same way the lexer does. It returns "" when the column is out of range.
func ExtractContext(text string, column int) string {
	runes := []rune(text)
	if column < 1 || column > len(runes)+1 {
		return ""
	}

	offset := column - 1
	lineStart := offset
	for lineStart > 0 && runes[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := offset
	for lineEnd < len(runes) && runes[lineEnd] != '\n' {
		lineEnd++
	}
	lineNum := strings.Count(string(runes[:lineStart]), "\n") + 1

	prefix := fmt.Sprintf("%d | ", lineNum)

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(string(runes[lineStart:lineEnd]))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(prefix)+displayWidth(runes[lineStart:offset])))
	sb.WriteString("^\n")

	return sb.String()
}

// WithContext attaches the rendered rule context to err and returns it.
func WithContext(err *Error, text string) *Error {
	if err.Column > 0 {
		err.Context = ExtractContext(text, err.Column)
	}
	return err
}

// Format renders err with its context block, the way lint output shows it.
func Format(err *Error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", err.Kind.Category(), err.message()))
	if err.Source != "" {
		if err.Column > 0 {
			sb.WriteString(fmt.Sprintf("  --> %s:%d\n", err.Source, err.Column))
		} else {
			sb.WriteString(fmt.Sprintf("  --> %s\n", err.Source))
		}
	}
	if err.Context != "" {
		for _, line := range strings.Split(strings.TrimRight(err.Context, "\n"), "\n") {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	if err.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", err.Suggestion))
	}

	return sb.String()
}

// displayWidth approximates the terminal width of runes: wide East Asian
// characters take two cells.
func displayWidth(runes []rune) int {
	width := 0
	for _, r := range runes {
		switch {
		case r == '\t':
			width += 4
		case r >= 0x1100 && (r <= 0x115f || (r >= 0x2e80 && r <= 0xa4cf) ||
			(r >= 0xac00 && r <= 0xd7a3) || (r >= 0xf900 && r <= 0xfaff) ||
			(r >= 0xfe30 && r <= 0xfe4f) || (r >= 0xff00 && r <= 0xff60) ||
			(r >= 0xffe0 && r <= 0xffe6)):
			width += 2
		default:
			width++
		}
	}
	return width
}
