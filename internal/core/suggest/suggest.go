// Package suggest generates alternate handle candidates for taken handles.
// Generation is pure: no randomness, no network, same input same output.
package suggest

import (
	"fmt"
	"regexp"
)

const (
	// MaxSuggestions bounds the returned candidate list.
	MaxSuggestions = 8

	// DefaultMaxLength truncates candidates to a length most platforms accept.
	DefaultMaxLength = 30
)

var disallowed = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Generate returns up to MaxSuggestions alternate handles for handle,
// truncated to DefaultMaxLength, deduplicated in first-seen order.
func Generate(handle string) []string {
	return GenerateWithMaxLength(handle, DefaultMaxLength)
}

// GenerateWithMaxLength is Generate with an explicit truncation length.
func GenerateWithMaxLength(handle string, maxLen int) []string {
	base := disallowed.ReplaceAllString(handle, "")

	candidates := []string{
		base + "_official",
		base + ".official",
		base + "_hq",
		base + "_app",
		"get_" + base,
		"the_" + base,
	}
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, fmt.Sprintf("%s%d", base, i))
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, MaxSuggestions)
	for _, candidate := range candidates {
		if maxLen > 0 && len(candidate) > maxLen {
			candidate = candidate[:maxLen]
		}
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
