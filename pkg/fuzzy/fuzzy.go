// Package fuzzy suggests typo corrections for a typed word against a
// frequency-weighted vocabulary.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bastiangx/cellcomplete/internal/utils"
)

// Scoring constants
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
	maxFrequencyBonus              = 30
)

// Match represents a candidate word that matched a pattern, with its score
type Match struct {
	Str            string
	Score          int
	MatchedIndexes []int
}

// Corrector handles approximate matching of typed words against a vocabulary
type Corrector struct {
	words    []string
	wordFreq map[string]int
}

// NewCorrector creates a corrector over words and their frequencies.
// Candidate order is stable: words are kept sorted.
func NewCorrector(words map[string]int) *Corrector {
	wordList := make([]string, 0, len(words))
	freq := make(map[string]int, len(words))
	for word, f := range words {
		lower := strings.ToLower(word)
		if _, seen := freq[lower]; !seen {
			wordList = append(wordList, lower)
		}
		freq[lower] = max(freq[lower], f)
	}
	sort.Strings(wordList)

	return &Corrector{
		words:    wordList,
		wordFreq: freq,
	}
}

// Len returns the vocabulary size.
func (c *Corrector) Len() int {
	return len(c.words)
}

// Correct returns the most likely correction for a possibly misspelled word.
// The bool is false when input is already a known word or nothing matched.
func (c *Corrector) Correct(input string) (string, bool) {
	if utils.RuneLen(input) < 2 {
		return input, false
	}

	lowerInput := strings.ToLower(input)
	if _, ok := c.wordFreq[lowerInput]; ok {
		return lowerInput, false
	}

	matches := c.Candidates(lowerInput, 1)
	if len(matches) > 0 {
		return matches[0].Str, true
	}
	return input, false
}

// Candidates returns up to limit scored matches for input, best first.
// A non-positive limit returns every match.
func (c *Corrector) Candidates(input string, limit int) []Match {
	lowerInput := strings.ToLower(input)
	matches := c.findMatches(lowerInput)

	for i := range matches {
		// frequency bonus, capped so it can't dominate
		if freq := c.wordFreq[matches[i].Str]; freq > 0 {
			matches[i].Score += min(freq/10, maxFrequencyBonus)
		}
		lengthDiff := abs(utils.RuneLen(matches[i].Str) - utils.RuneLen(lowerInput))
		matches[i].Score -= lengthDiff * 2
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func (c *Corrector) findMatches(pattern string) []Match {
	if len(pattern) == 0 {
		return nil
	}

	var matches []Match
	patternRunes := []rune(pattern)

	for _, candidate := range c.words {
		// first characters must agree once the pattern is long enough
		if len(patternRunes) > 1 && len(candidate) > 0 && pattern[0] != candidate[0] {
			continue
		}

		match := Match{
			Str:            candidate,
			MatchedIndexes: make([]int, 0, len(patternRunes)),
		}

		if runFuzzyMatch(patternRunes, candidate, &match) {
			match.Score += len(match.MatchedIndexes) - utils.RuneLen(candidate)
			matches = append(matches, match)
		}
	}

	return matches
}

// runFuzzyMatch tests whether every pattern rune appears in candidate in
// order and accumulates the score into match.
func runFuzzyMatch(pattern []rune, candidate string, match *Match) bool {
	candidateRunes := []rune(candidate)

	var last rune
	var lastIndex int
	var currAdjacentMatchBonus int
	patternIndex := 0
	bestScore := -1
	matchedIndex := -1

	for i := 0; i < len(candidateRunes); i++ {
		curr := candidateRunes[i]

		if utils.EqualFold(curr, pattern[patternIndex]) {
			score := 0

			if i == 0 {
				score += firstCharMatchBonus
			}
			if i > 0 && unicode.IsLower(last) && unicode.IsUpper(curr) {
				score += camelCaseMatchBonus
			}
			if i > 0 && utils.IsSeparator(last) {
				score += separatorMatchBonus
			}

			if len(match.MatchedIndexes) > 0 {
				lastMatch := match.MatchedIndexes[len(match.MatchedIndexes)-1]
				bonus := 0
				if lastIndex == lastMatch {
					bonus = currAdjacentMatchBonus*2 + adjacentMatchBonus
					currAdjacentMatchBonus = bonus
				} else {
					currAdjacentMatchBonus = 0
				}
				score += bonus
			}

			if score > bestScore {
				bestScore = score
				matchedIndex = i
			}

			var nextPatternRune rune
			if patternIndex < len(pattern)-1 {
				nextPatternRune = pattern[patternIndex+1]
			}
			var nextCandidateRune rune
			if i < len(candidateRunes)-1 {
				nextCandidateRune = candidateRunes[i+1]
			}

			// hold the match open while the next rune could take the same
			// pattern rune at a better position
			deferMatch := nextCandidateRune != 0 &&
				utils.EqualFold(nextCandidateRune, pattern[patternIndex]) &&
				!utils.EqualFold(nextPatternRune, nextCandidateRune)

			if !deferMatch {
				if matchedIndex > -1 {
					if len(match.MatchedIndexes) == 0 {
						penalty := matchedIndex * unmatchedLeadingCharPenalty
						bestScore += max(penalty, maxUnmatchedLeadingCharPenalty)
					}

					match.Score += bestScore
					match.MatchedIndexes = append(match.MatchedIndexes, matchedIndex)
					bestScore = -1
					patternIndex++
				}
			}
		}

		last = curr
		lastIndex = i

		if patternIndex >= len(pattern) {
			return true
		}
	}

	return patternIndex >= len(pattern)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
