package utils

import (
	"strings"
	"unicode"
)

// CapitalPositions reports, per rune of s, whether it is an upper-case letter
func CapitalPositions(s string) []bool {
	runes := []rune(s)
	positions := make([]bool, len(runes))
	found := false
	for i, r := range runes {
		if unicode.IsUpper(r) {
			positions[i] = true
			found = true
		}
	}
	if !found {
		return nil
	}
	return positions
}

// ApplyCapitals upper-cases the runes of word at the flagged positions.
// Positions past the end of word are ignored.
func ApplyCapitals(word string, positions []bool) string {
	if len(positions) == 0 {
		return word
	}

	runes := []rune(word)
	for i := 0; i < len(runes) && i < len(positions); i++ {
		if positions[i] {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

// HasPrefixFold reports whether s begins with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	sr, pr := []rune(s), []rune(prefix)
	if len(pr) > len(sr) {
		return false
	}
	return strings.EqualFold(string(sr[:len(pr)]), prefix)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
