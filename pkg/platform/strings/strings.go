// Package strings provides string slice utilities used when normalizing
// user-entered list fields.
package strings

import (
	"strings"
)

// CompactTrim trims whitespace from each element and removes the empties.
// Order and duplicates are preserved; filings may legitimately repeat text.
//
// Example:
//
//	CompactTrim([]string{"  foo ", "", "bar", "  "})
//	// Returns: []string{"foo", "bar"}
func CompactTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

// DedupeAndTrim is CompactTrim plus duplicate removal. Order is preserved.
// Used for address and remark lists where repeats carry no meaning.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
