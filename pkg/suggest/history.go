package suggest

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// History remembers recently committed words. It is bounded; the least
// recently used word is evicted first.
type History struct {
	words       map[string]string // lowercase -> as committed
	trie        *patricia.Trie
	accessTime  map[string]int64
	accessCount int64
	maxWords    int
	hits        int64
	mu          sync.RWMutex
}

// NewHistory creates a history holding at most maxWords words.
func NewHistory(maxWords int) *History {
	if maxWords <= 0 {
		maxWords = 1
	}
	return &History{
		words:      make(map[string]string, maxWords),
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, maxWords),
		maxWords:   maxWords,
	}
}

// Record marks word as just committed.
func (h *History) Record(word string) {
	lower := strings.ToLower(word)
	if lower == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.words[lower]; !ok && len(h.words) >= h.maxWords {
		h.evictLRU()
	}
	h.words[lower] = word
	h.trie.Set(patricia.Prefix(lower), word)
	h.accessTime[lower] = h.getNextAccessTime()
}

// Search returns the recorded words starting with lowerPrefix, most
// recent first.
func (h *History) Search(lowerPrefix string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var found []string
	err := h.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		found = append(found, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error searching history: %v", err)
	}

	sort.Slice(found, func(i, j int) bool {
		return h.accessTime[found[i]] > h.accessTime[found[j]]
	})

	results := make([]string, len(found))
	for i, lower := range found {
		results[i] = h.words[lower]
	}
	if len(results) > 0 {
		h.hits++
	}
	return results
}

// Contains reports whether word was recorded and not evicted.
func (h *History) Contains(word string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of remembered words.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.words)
}

func (h *History) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int{
		"historyWords":    len(h.words),
		"maxHistoryWords": h.maxWords,
		"historyHits":     int(h.hits),
	}
}

func (h *History) getNextAccessTime() int64 {
	h.accessCount++
	return h.accessCount
}

func (h *History) evictLRU() {
	var oldestWord string
	var oldestTime int64 = math.MaxInt64

	for word, accessTime := range h.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestWord = word
		}
	}

	if oldestWord != "" {
		delete(h.words, oldestWord)
		delete(h.accessTime, oldestWord)
		h.trie.Delete(patricia.Prefix(oldestWord))
		log.Debugf("Evicted word '%s' from history", oldestWord)
	}
}
