package errors

import (
	"fmt"
	"strings"
)

// SuggestName suggests the closest valid name for a misspelled field or
// operator using Levenshtein distance. It returns "" when nothing is close.
func SuggestName(unknown string, valid []string) string {
	if len(valid) == 0 || unknown == "" {
		return ""
	}

	minDistance := -1
	var bestMatch string

	for _, name := range valid {
		dist := levenshteinDistance(unknown, name)
		if minDistance < 0 || dist < minDistance {
			minDistance = dist
			bestMatch = name
		}
	}

	// Only suggest if the distance is reasonable
	limit := len([]rune(unknown)) / 2
	if limit < 2 {
		limit = 2
	}
	if minDistance <= limit {
		return fmt.Sprintf("did you mean `%s`?", bestMatch)
	}

	return ""
}

// SuggestOperators lists the operators a field accepts.
func SuggestOperators(field string, operators []string) string {
	if len(operators) == 0 {
		return fmt.Sprintf("`%s` is a presence check and takes no operator", field)
	}
	return fmt.Sprintf("`%s` accepts: %s", field, strings.Join(operators, ", "))
}

// levenshteinDistance computes the edit distance between two strings, rune-wise.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // Deletion
				curr[j-1]+1,    // Insertion
				prev[j-1]+cost, // Substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
