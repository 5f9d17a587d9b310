package utils

import "strings"

// SuggestionFilter drops case-insensitive repeats while one result list is
// assembled. It is not safe for concurrent use; build one per request.
type SuggestionFilter struct {
	seen map[string]struct{}
}

// NewSuggestionFilter returns a filter that already counts input as seen,
// so the typed word is never offered back. An empty input excludes nothing.
func NewSuggestionFilter(input string) *SuggestionFilter {
	f := &SuggestionFilter{seen: make(map[string]struct{})}
	if input != "" {
		f.seen[strings.ToLower(input)] = struct{}{}
	}
	return f
}

// ShouldInclude reports whether word is new, and records it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	key := strings.ToLower(word)
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}
