package completion

import (
	"strings"

	"github.com/bastiangx/cellcomplete/internal/utils"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Keyword matches its word exactly, case-sensitively.
type Keyword struct {
	Word  string
	Apply func(text string)
}

func (k Keyword) Text() string                { return k.Word }
func (k Keyword) IsMatch(text string) bool    { return k.Word == text }
func (k Keyword) IsMatchPrefix(p string) bool { return strings.HasPrefix(k.Word, p) }
func (k Keyword) IsLowPriority() bool         { return false }
func (k Keyword) Complete(text string) Action { return applyAction(k.Apply, text) }
func (k Keyword) IsStrictMatchPrefix(p string) bool {
	return strings.HasPrefix(k.Word, p) && len(k.Word) > len(p)
}

// Identifier matches any leading part of a name, ignoring case. Freq ranks
// identifiers drawn from a vocabulary and plays no part in matching.
type Identifier struct {
	Name  string
	Freq  int
	Apply func(text string)
}

func (i Identifier) Text() string                { return i.Name }
func (i Identifier) IsMatch(text string) bool    { return utils.HasPrefixFold(i.Name, text) }
func (i Identifier) IsMatchPrefix(p string) bool { return utils.HasPrefixFold(i.Name, p) }
func (i Identifier) IsLowPriority() bool         { return false }
func (i Identifier) Complete(text string) Action { return applyAction(i.Apply, text) }
func (i Identifier) IsStrictMatchPrefix(p string) bool {
	return utils.HasPrefixFold(i.Name, p) && utils.RuneLen(i.Name) > utils.RuneLen(p)
}

// Validating accepts any text its validator accepts, such as numeric
// literals or fresh names. It never claims that more text is coming.
type Validating struct {
	Label string

	// Accept decides full matches.
	Accept func(text string) bool

	// AcceptPrefix decides prefix matches. Accept is used when nil.
	AcceptPrefix func(prefix string) bool

	Low   bool
	Apply func(text string)
}

func (v Validating) Text() string                    { return v.Label }
func (v Validating) IsStrictMatchPrefix(string) bool { return false }
func (v Validating) IsLowPriority() bool             { return v.Low }
func (v Validating) Complete(text string) Action     { return applyAction(v.Apply, text) }

func (v Validating) IsMatch(text string) bool {
	return v.Accept != nil && v.Accept(text)
}

func (v Validating) IsMatchPrefix(prefix string) bool {
	if v.AcceptPrefix != nil {
		return v.AcceptPrefix(prefix)
	}
	return v.IsMatch(prefix)
}

// Fuzzy is a typo tolerant fallback. It matches when the typed runes
// appear in order in Target, ignoring case, and is always low priority.
type Fuzzy struct {
	Target string
	Apply  func(text string)
}

func (f Fuzzy) Text() string                    { return f.Target }
func (f Fuzzy) IsMatch(text string) bool        { return text != "" && fuzzy.MatchFold(text, f.Target) }
func (f Fuzzy) IsMatchPrefix(p string) bool     { return f.IsMatch(p) }
func (f Fuzzy) IsStrictMatchPrefix(string) bool { return false }
func (f Fuzzy) IsLowPriority() bool             { return true }
func (f Fuzzy) Complete(text string) Action     { return applyAction(f.Apply, text) }

// Wrap decorates an item with a hook run just before the wrapped item's
// own completion action.
type Wrap struct {
	Item
	OnComplete func(text string)
}

func (w Wrap) Complete(text string) Action {
	return Sequence(applyAction(w.OnComplete, text), w.Item.Complete(text))
}

type lowPriority struct{ Item }

func (lowPriority) IsLowPriority() bool { return true }

// LowPriority returns item demoted to a fallback candidate.
func LowPriority(item Item) Item {
	return lowPriority{item}
}

func applyAction(fn func(string), text string) Action {
	if fn == nil {
		return Noop
	}
	return func() { fn(text) }
}
