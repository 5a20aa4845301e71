package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// List collects the rule errors of a lint run so every broken rule is
// reported, not only the first.
type List []*Error

// Add appends err when it is or wraps an *Error and reports whether it did.
// Other failures, such as unreadable files, are left to the caller.
func (l *List) Add(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	*l = append(*l, e)
	return true
}

// Err returns nil for an empty list.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return ""
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rule errors:", len(l))
	for _, e := range l {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ByCategory returns the errors of category c in the order they were added.
func (l List) ByCategory(c Category) List {
	var out List
	for _, e := range l {
		if e.Kind.Category() == c {
			out = append(out, e)
		}
	}
	return out
}

// Categories counts the errors per category.
func (l List) Categories() map[Category]int {
	if len(l) == 0 {
		return nil
	}
	counts := make(map[Category]int)
	for _, e := range l {
		counts[e.Kind.Category()]++
	}
	return counts
}

// Summary renders Categories as "lexical: 1, semantic: 2", sorted by
// category name.
func (l List) Summary() string {
	counts := l.Categories()
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = fmt.Sprintf("%s: %d", c, counts[Category(c)])
	}
	return strings.Join(parts, ", ")
}
