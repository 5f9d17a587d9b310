package memhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/cellcomplete/internal/memhost"
	"github.com/bastiangx/cellcomplete/pkg/async"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/dictionary"
	"github.com/bastiangx/cellcomplete/pkg/session"
	"github.com/bastiangx/cellcomplete/pkg/suggest"
)

var (
	down  = session.KeyEvent{Key: session.KeyDown}
	enter = session.KeyEvent{Key: session.KeyEnter}
	esc   = session.KeyEvent{Key: session.KeyEscape}
)

func texts(items []completion.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text()
	}
	return out
}

func vocabulary(doc *memhost.Document) *suggest.Vocabulary {
	ix := dictionary.NewIndex()
	ix.InsertAll([]dictionary.Entry{
		{Word: "column", Score: 80},
		{Word: "count", Score: 50},
		{Word: "cell", Score: 10},
	})
	return suggest.NewVocabulary(
		suggest.WithIndex(async.Resolved(ix)),
		suggest.WithMinFrequency(0),
		suggest.WithCommitHandler(func(word, typed string) { doc.Complete(typed, word) }),
	)
}

func keywords(doc *memhost.Document, words ...string) completion.Supplier {
	items := make([]completion.Item, len(words))
	for i, w := range words {
		items[i] = completion.Keyword{Word: w, Apply: func(typed string) { doc.Complete(typed, w) }}
	}
	return completion.Static(items...)
}

func TestDocumentEditing(t *testing.T) {
	doc := memhost.NewDocument("ab")
	assert.Equal(t, 2, doc.CaretPosition())

	doc.Type("c")
	assert.Equal(t, "abc", doc.Text())

	doc.SetText("xyz", 1)
	doc.Insert("_")
	assert.Equal(t, "x_yz", doc.Text())
	assert.Equal(t, 2, doc.CaretPosition())

	doc.Press(session.KeyEvent{Key: session.KeyBackspace})
	assert.Equal(t, "xyz", doc.Text())

	restore := doc.SaveState()
	doc.Complete("x", "xray")
	assert.Equal(t, []string{"xray"}, doc.Tokens())
	assert.Equal(t, "yz", doc.Text())
	assert.Equal(t, "xray yz", doc.String())

	restore()
	assert.Empty(t, doc.Tokens())
	assert.Equal(t, "xyz", doc.Text())
	assert.Equal(t, 1, doc.CaretPosition())
}

func TestDocumentHandlers(t *testing.T) {
	doc := memhost.NewDocument("")
	var order []string
	r1 := doc.AddKeyHandler(func(session.KeyEvent) bool {
		order = append(order, "first")
		return false
	})
	r2 := doc.AddKeyHandler(func(session.KeyEvent) bool {
		order = append(order, "second")
		return true
	})
	assert.Equal(t, 2, doc.HandlerCount())

	assert.True(t, doc.Press(esc))
	assert.Equal(t, []string{"second"}, order, "newest handler sees the key first")

	r2.Remove()
	r2.Remove()
	assert.False(t, doc.Press(esc))
	assert.Equal(t, []string{"second", "first"}, order)

	r1.Remove()
	assert.Zero(t, doc.HandlerCount())
}

func TestMenuCommit(t *testing.T) {
	doc := memhost.NewDocument("c")
	ctl := session.NewController(doc, session.WithStateSaver(doc))

	s, err := ctl.Activate(vocabulary(doc), completion.Params{Menu: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"column", "count", "cell"}, texts(s.VisibleItems()))

	doc.Type("o")
	assert.Equal(t, []string{"column", "count"}, texts(s.VisibleItems()))

	assert.True(t, doc.Press(down))
	assert.True(t, doc.Press(enter))

	assert.Equal(t, session.Committed, s.State())
	assert.Nil(t, ctl.Active())
	assert.Equal(t, []string{"count"}, doc.Tokens())
	assert.Equal(t, "", doc.Text())
	assert.Zero(t, doc.HandlerCount())
}

func TestMenuEscapeRestores(t *testing.T) {
	doc := memhost.NewDocument("c")
	ctl := session.NewController(doc, session.WithStateSaver(doc))

	s, err := ctl.Activate(vocabulary(doc), completion.Params{Menu: true})
	require.NoError(t, err)

	doc.Type("ol")
	assert.Equal(t, []string{"column"}, texts(s.VisibleItems()))

	assert.True(t, doc.Press(esc))
	assert.Equal(t, session.Cancelled, s.State())
	assert.Equal(t, "c", doc.Text())
	assert.Equal(t, 1, doc.CaretPosition())
	assert.False(t, doc.Press(esc), "closed session consumes nothing")
}

func TestSidePopupSingleMatch(t *testing.T) {
	doc := memhost.NewDocument("")
	slot := &memhost.Slot{}
	ctl := session.NewController(doc, session.WithStateSaver(doc), session.WithTypist(doc))

	s, err := ctl.ActivateSidePopup(slot, keywords(doc, "in", "int", "+"), true)
	require.NoError(t, err)
	assert.Equal(t, session.Popup(s), slot.Get())

	doc.Type("in")
	assert.False(t, s.Closed(), "int could still follow")

	doc.Type("t")
	assert.Equal(t, session.Committed, s.State())
	assert.Equal(t, []string{"int"}, doc.Tokens())
	assert.Nil(t, slot.Get())
}

func TestSidePopupBoundary(t *testing.T) {
	doc := memhost.NewDocument("")
	slot := &memhost.Slot{}
	ctl := session.NewController(doc, session.WithStateSaver(doc), session.WithTypist(doc))

	s, err := ctl.ActivateSidePopup(slot, keywords(doc, "in", "int"), true)
	require.NoError(t, err)

	doc.Type("in+")
	assert.Equal(t, session.Committed, s.State())
	assert.Equal(t, []string{"in"}, doc.Tokens())
	assert.Equal(t, "+", doc.Text(), "the splitting character is replayed")
	assert.Equal(t, "in +", doc.String())
}

func TestSidePopupSeesEveryAddedWord(t *testing.T) {
	doc := memhost.NewDocument("")
	slot := &memhost.Slot{}
	ctl := session.NewController(doc, session.WithStateSaver(doc), session.WithTypist(doc))
	v := suggest.NewVocabulary(
		suggest.WithMaxItems(2),
		suggest.WithCommitHandler(func(word, typed string) { doc.Complete(typed, word) }),
	)
	v.AddWord("cat", 1)
	v.AddWord("catalog", 90)
	v.AddWord("dog", 80)

	s, err := ctl.ActivateSidePopup(slot, v, true)
	require.NoError(t, err)

	doc.Type("c")
	assert.False(t, s.Closed(), "cat and catalog both match")
	doc.Type("at")
	assert.False(t, s.Closed())
	assert.Empty(t, doc.Tokens())

	doc.Type("a")
	assert.Equal(t, session.Committed, s.State())
	assert.Equal(t, []string{"catalog"}, doc.Tokens())
}

func TestSidePopupFocusLostKeepsText(t *testing.T) {
	doc := memhost.NewDocument("")
	slot := &memhost.Slot{}
	ctl := session.NewController(doc, session.WithStateSaver(doc))

	s, err := ctl.ActivateSidePopup(slot, keywords(doc, "int"), true)
	require.NoError(t, err)

	doc.Type("i")
	doc.Blur()
	assert.Equal(t, session.Cancelled, s.State())
	assert.Equal(t, "i", doc.Text())

	_, err = ctl.ActivateSidePopup(slot, keywords(doc, "int"), true)
	assert.ErrorIs(t, err, session.ErrNotFocused)
}

func TestMetrics(t *testing.T) {
	doc := memhost.NewDocument("")
	items := make([]completion.Item, 30)
	for i := range items {
		items[i] = completion.Identifier{Name: "x" + string(rune('a'+i%26)) + string(rune('a'+i/26))}
	}
	ctl := session.NewController(doc, session.WithPageMetrics(memhost.Metrics{Height: 100, Row: 10}))

	s, err := ctl.Activate(completion.Static(items...), completion.Params{Menu: true})
	require.NoError(t, err)

	assert.True(t, doc.Press(session.KeyEvent{Key: session.KeyPageDown}))
	idx, ok := s.SelectedIndex()
	assert.True(t, ok)
	assert.Equal(t, 10, idx)
}
