package dictionary

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is a prefix-searchable vocabulary. Words are stored lowercase.
type Index struct {
	trie     *patricia.Trie
	scores   map[string]int
	maxScore int
	mu       sync.RWMutex
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		trie:   patricia.NewTrie(),
		scores: make(map[string]int),
	}
}

// Insert adds an entry, keeping the higher score when the word is present.
func (ix *Index) Insert(e Entry) {
	word := strings.ToLower(e.Word)
	if word == "" {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if prev, ok := ix.scores[word]; ok && prev >= e.Score {
		return
	}
	ix.scores[word] = e.Score
	ix.trie.Set(patricia.Prefix(word), e.Score)
	ix.maxScore = max(ix.maxScore, e.Score)
}

// InsertAll adds every entry.
func (ix *Index) InsertAll(entries []Entry) {
	for _, e := range entries {
		ix.Insert(e)
	}
}

// Search returns the words starting with lowerPrefix whose score is at
// least minScore, best first. A positive limit caps the result.
func (ix *Index) Search(lowerPrefix string, minScore, limit int) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var results []Entry
	err := ix.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		score := 1
		switch v := item.(type) {
		case int:
			score = v
		case int32:
			score = int(v)
		case uint16:
			score = int(v)
		default:
			log.Errorf("Unknown item type: %T for word %s", item, p)
		}

		if score < minScore {
			return nil
		}
		results = append(results, Entry{Word: string(p), Score: score})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Word < results[j].Word
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Score returns the score of word.
func (ix *Index) Score(word string) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	score, ok := ix.scores[strings.ToLower(word)]
	return score, ok
}

// Len returns the number of words.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.scores)
}

// MaxScore returns the highest score inserted so far.
func (ix *Index) MaxScore() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.maxScore
}

// Scores returns a copy of the word to score map.
func (ix *Index) Scores() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	scores := make(map[string]int, len(ix.scores))
	for k, v := range ix.scores {
		scores[k] = v
	}
	return scores
}
