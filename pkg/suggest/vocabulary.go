package suggest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/cellcomplete/internal/utils"
	"github.com/bastiangx/cellcomplete/pkg/async"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/dictionary"
	"github.com/bastiangx/cellcomplete/pkg/fuzzy"
)

const (
	defaultMaxItems     = 64
	defaultMinFrequency = 20
	defaultHistorySize  = 256
	shortPrefixBoost    = 4
	maxCorrections      = 3
)

// Vocabulary is a completion supplier. Keywords, explicitly added words
// and the commit history are offered synchronously; identifiers from the
// loaded vocabulary index arrive asynchronously.
type Vocabulary struct {
	keywords []string
	local    *dictionary.Index
	index    *async.Future[*dictionary.Index]
	history  *History
	maxItems int
	minFreq  int
	onCommit func(word, typed string)
	logger   *log.Logger

	mu           sync.Mutex
	corrector    *fuzzy.Corrector
	correctorFor *dictionary.Index
}

// Option configures a Vocabulary.
type Option func(*Vocabulary)

// WithKeywords sets the reserved words. In menus they filter like
// identifiers; elsewhere they only match when typed in full.
func WithKeywords(words ...string) Option {
	return func(v *Vocabulary) { v.keywords = append(v.keywords, words...) }
}

// WithIndex sets the future delivering the identifier index, usually
// dictionary.Loader.LoadAsync.
func WithIndex(f *async.Future[*dictionary.Index]) Option {
	return func(v *Vocabulary) { v.index = f }
}

// WithHistory replaces the commit history.
func WithHistory(h *History) Option {
	return func(v *Vocabulary) { v.history = h }
}

// WithMaxItems caps the identifiers offered per menu or async request.
func WithMaxItems(n int) Option {
	return func(v *Vocabulary) {
		if n > 0 {
			v.maxItems = n
		}
	}
}

// WithMinFrequency sets the score an indexed identifier needs to be
// offered. Short or repetitive prefixes need a little more.
func WithMinFrequency(n int) Option {
	return func(v *Vocabulary) { v.minFreq = n }
}

// WithCommitHandler is called with the committed word and the text that
// was typed when it was chosen.
func WithCommitHandler(fn func(word, typed string)) Option {
	return func(v *Vocabulary) { v.onCommit = fn }
}

// WithLogger sets the vocabulary's logger.
func WithLogger(logger *log.Logger) Option {
	return func(v *Vocabulary) { v.logger = logger }
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary(opts ...Option) *Vocabulary {
	v := &Vocabulary{
		local:    dictionary.NewIndex(),
		history:  NewHistory(defaultHistorySize),
		maxItems: defaultMaxItems,
		minFreq:  defaultMinFrequency,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// History returns the commit history.
func (v *Vocabulary) History() *History { return v.history }

// AddWord adds a word that is offered synchronously.
func (v *Vocabulary) AddWord(word string, frequency int) {
	v.local.Insert(dictionary.Entry{Word: word, Score: frequency})
}

// Get returns keywords, added words narrowed by p.Prefix, and recently
// committed words as low-priority items. Added words are capped at the
// max items only for menus.
func (v *Vocabulary) Get(p completion.Params) []completion.Item {
	lower := strings.ToLower(p.Prefix)
	caps := utils.CapitalPositions(p.Prefix)
	filter := utils.NewSuggestionFilter("")

	items := make([]completion.Item, 0, len(v.keywords))
	for _, kw := range v.keywords {
		if !filter.ShouldInclude(kw) {
			continue
		}
		if p.Menu {
			items = append(items, completion.Identifier{Name: kw, Apply: v.commitFunc(kw)})
		} else {
			items = append(items, completion.Keyword{Word: kw, Apply: v.commitFunc(kw)})
		}
	}

	// Side popups decide on a unique match over every added word.
	limit := 0
	if p.Menu {
		limit = v.maxItems
	}
	for _, e := range v.local.Search(lower, 0, limit) {
		if filter.ShouldInclude(e.Word) {
			items = append(items, v.identifier(e, caps))
		}
	}

	for _, word := range v.history.Search(lower) {
		if filter.ShouldInclude(word) {
			items = append(items, completion.LowPriority(completion.Identifier{
				Name:  utils.ApplyCapitals(word, caps),
				Apply: v.commitFunc(word),
			}))
		}
	}

	return items
}

// GetAsync resolves with the indexed identifiers for p.Prefix, best first.
// When none match, up to three typo corrections are offered instead as
// low-priority fuzzy items. A failed index load fails the result.
func (v *Vocabulary) GetAsync(p completion.Params) *async.Future[[]completion.Item] {
	if v.index == nil {
		return async.Resolved[[]completion.Item](nil)
	}

	lower := strings.ToLower(p.Prefix)
	caps := utils.CapitalPositions(p.Prefix)
	return async.Map(v.index, func(ix *dictionary.Index) []completion.Item {
		return v.indexItems(ix, lower, caps)
	})
}

func (v *Vocabulary) indexItems(ix *dictionary.Index, lower string, caps []bool) []completion.Item {
	entries := ix.Search(lower, v.threshold(lower), v.maxItems)
	items := make([]completion.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, v.identifier(e, caps))
	}
	if len(items) > 0 || utils.RuneLen(lower) < 2 {
		return items
	}

	for _, m := range v.correctorOf(ix).Candidates(lower, maxCorrections) {
		items = append(items, completion.Fuzzy{
			Target: utils.ApplyCapitals(m.Str, caps),
			Apply:  v.commitFunc(m.Str),
		})
	}
	v.logger.Debug("offering corrections", "prefix", lower, "count", len(items))
	return items
}

// Complete returns up to limit suggestions for prefix from the added words
// and, once loaded, the index. The typed word itself is left out. When
// nothing matches, the suggestions complete the corrected prefix.
func (v *Vocabulary) Complete(prefix string, limit int) []Suggestion {
	lower := strings.ToLower(prefix)
	caps := utils.CapitalPositions(prefix)
	filter := utils.NewSuggestionFilter(prefix)

	var suggestions []Suggestion
	add := func(entries []dictionary.Entry, corrected string) {
		for _, e := range entries {
			if !filter.ShouldInclude(e.Word) {
				continue
			}
			s := Suggestion{Word: utils.ApplyCapitals(e.Word, caps), Frequency: e.Score}
			if corrected != "" {
				s.WasCorrected = true
				s.OriginalPrefix = prefix
				s.CorrectedPrefix = corrected
			}
			suggestions = append(suggestions, s)
		}
	}

	add(v.local.Search(lower, 0, 0), "")
	ix := v.loadedIndex()
	if ix != nil {
		add(ix.Search(lower, v.threshold(lower), 0), "")
	}

	if len(suggestions) == 0 && ix != nil {
		if corrected, ok := v.correctorOf(ix).Correct(lower); ok {
			add(ix.Search(corrected, 0, 0), corrected)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Frequency > suggestions[j].Frequency
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func (v *Vocabulary) Stats() map[string]int {
	stats := map[string]int{
		"keywords":    len(v.keywords),
		"localWords":  v.local.Len(),
		"indexLoaded": 0,
	}
	if ix := v.loadedIndex(); ix != nil {
		stats["indexLoaded"] = 1
		stats["totalWords"] = ix.Len()
		stats["maxFrequency"] = ix.MaxScore()
	}
	for k, val := range v.history.Stats() {
		stats[k] = val
	}
	return stats
}

func (v *Vocabulary) identifier(e dictionary.Entry, caps []bool) completion.Item {
	return completion.Identifier{
		Name:  utils.ApplyCapitals(e.Word, caps),
		Freq:  e.Score,
		Apply: v.commitFunc(e.Word),
	}
}

func (v *Vocabulary) commitFunc(word string) func(string) {
	return func(typed string) {
		v.history.Record(word)
		if v.onCommit != nil {
			v.onCommit(word, typed)
		}
	}
}

func (v *Vocabulary) threshold(lowerPrefix string) int {
	t := v.minFreq
	if t > 0 && (utils.RuneLen(lowerPrefix) <= 2 || utils.IsRepetitive(lowerPrefix)) {
		t += shortPrefixBoost
	}
	return t
}

// loadedIndex returns the index if it has been delivered, without waiting.
func (v *Vocabulary) loadedIndex() *dictionary.Index {
	if v.index == nil || !v.index.Settled() {
		return nil
	}
	ix, err := v.index.Result(context.Background())
	if err != nil {
		return nil
	}
	return ix
}

func (v *Vocabulary) correctorOf(ix *dictionary.Index) *fuzzy.Corrector {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.corrector == nil || v.correctorFor != ix {
		v.corrector = fuzzy.NewCorrector(ix.Scores())
		v.correctorFor = ix
	}
	return v.corrector
}
