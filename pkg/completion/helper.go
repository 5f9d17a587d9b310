package completion

import "errors"

// ErrNoMatches is returned when a commit is requested for text that no
// item matches.
var ErrNoMatches = errors.New("no matching completion items")

// Helper answers matching questions over a fixed list of items. The list
// is copied at construction and never changes afterwards.
type Helper struct {
	items []Item
}

// NewHelper returns a Helper over a copy of items.
func NewHelper(items []Item) *Helper {
	h := &Helper{items: make([]Item, len(items))}
	copy(h.items, items)
	return h
}

// HelperFor returns a Helper over the synchronous items of s.
func HelperFor(s Supplier, p Params) *Helper {
	return NewHelper(s.Get(p))
}

func (h *Helper) IsEmpty() bool { return len(h.items) == 0 }

// Items returns a copy of the underlying list.
func (h *Helper) Items() []Item {
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of items.
func (h *Helper) Len() int { return len(h.items) }

// At returns the item at index i.
func (h *Helper) At(i int) Item { return h.items[i] }

// PrefixedBy returns the items prefix could still lead to. No priority
// reduction is applied.
func (h *Helper) PrefixedBy(prefix string) []Item {
	return h.pick(h.prefixed(prefix))
}

// StrictlyPrefixedBy returns the items that extend strictly beyond prefix.
func (h *Helper) StrictlyPrefixedBy(prefix string) []Item {
	return h.pick(h.strictlyPrefixed(prefix))
}

// Matches returns the items matching text after priority reduction.
func (h *Helper) Matches(text string) []Item {
	return h.pick(h.MatchIndices(text))
}

// MatchIndices is Matches expressed as indices into the list, in list
// order.
func (h *Helper) MatchIndices(text string) []int {
	var idx []int
	for i, it := range h.items {
		if it.IsMatch(text) {
			idx = append(idx, i)
		}
	}
	return h.reduce(idx)
}

// HasSingleMatch reports whether text identifies exactly one item and it is
// safe to take it now. With eager set any unique match is taken. Otherwise
// the unique match is taken only if every item strictly prefixed by text is
// that match, or priority reduction over the match and those items still
// leaves only that match.
func (h *Helper) HasSingleMatch(text string, eager bool) bool {
	matches := h.MatchIndices(text)
	if len(matches) != 1 {
		return false
	}
	if eager {
		return true
	}
	match := matches[0]
	strictly := h.strictlyPrefixed(text)
	if containsOnly(strictly, match) {
		return true
	}
	reduced := h.reduce(append([]int{match}, strictly...))
	return len(reduced) == 1 && reduced[0] == match
}

// IsBoundary reports whether position splits text into a token that is
// already decided and a trailing part no item continues into. Position is
// counted in runes and must lie strictly inside text.
func (h *Helper) IsBoundary(text string, position int) bool {
	runes := []rune(text)
	if position <= 0 || position >= len(runes) {
		return false
	}
	prefix := string(runes[:position])
	extended := string(runes[:position+1])
	return len(h.MatchIndices(prefix)) == 1 && len(h.prefixed(extended)) == 0
}

// HasMatches reports whether any item is prefixed by text.
func (h *Helper) HasMatches(text string) bool {
	for _, it := range h.items {
		if it.IsMatchPrefix(text) {
			return true
		}
	}
	return false
}

// CompleteFirstMatch runs the completion of the first item matching text.
func (h *Helper) CompleteFirstMatch(text string) error {
	matches := h.MatchIndices(text)
	if len(matches) == 0 {
		return ErrNoMatches
	}
	h.items[matches[0]].Complete(text).Run()
	return nil
}

func (h *Helper) prefixed(prefix string) []int {
	var idx []int
	for i, it := range h.items {
		if it.IsMatchPrefix(prefix) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (h *Helper) strictlyPrefixed(prefix string) []int {
	var idx []int
	for i, it := range h.items {
		if it.IsStrictMatchPrefix(prefix) {
			idx = append(idx, i)
		}
	}
	return idx
}

// reduce keeps the normal priority entries of idx, or the low priority
// ones when there are no normal ones. Relative order is preserved.
func (h *Helper) reduce(idx []int) []int {
	var normal, low []int
	for _, i := range idx {
		if h.items[i].IsLowPriority() {
			low = append(low, i)
		} else {
			normal = append(normal, i)
		}
	}
	if len(normal) == 0 {
		return low
	}
	return normal
}

func (h *Helper) pick(idx []int) []Item {
	out := make([]Item, 0, len(idx))
	for _, i := range idx {
		out = append(out, h.items[i])
	}
	return out
}

func containsOnly(idx []int, want int) bool {
	for _, i := range idx {
		if i != want {
			return false
		}
	}
	return true
}

// FilterMatches returns the items of list matching text after priority
// reduction.
func FilterMatches(list []Item, text string) []Item {
	return NewHelper(list).Matches(text)
}

// FilterPrefixed returns the items of list prefix could lead to.
func FilterPrefixed(list []Item, prefix string) []Item {
	return NewHelper(list).PrefixedBy(prefix)
}

// FilterStrictlyPrefixed returns the items of list extending strictly
// beyond prefix.
func FilterStrictlyPrefixed(list []Item, prefix string) []Item {
	return NewHelper(list).StrictlyPrefixedBy(prefix)
}

// Reduce drops low priority items from list unless nothing else is left.
func Reduce(list []Item) []Item {
	h := NewHelper(list)
	idx := make([]int, len(list))
	for i := range idx {
		idx[i] = i
	}
	return h.pick(h.reduce(idx))
}

// HasSingleMatch is Helper.HasSingleMatch over list.
func HasSingleMatch(list []Item, text string, eager bool) bool {
	return NewHelper(list).HasSingleMatch(text, eager)
}

// IsBoundary is Helper.IsBoundary over list.
func IsBoundary(list []Item, text string, position int) bool {
	return NewHelper(list).IsBoundary(text, position)
}
