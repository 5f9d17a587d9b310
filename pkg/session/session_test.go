package session

import (
	"testing"

	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMenu(t *testing.T, text string, items ...completion.Item) (*Session, *fakeTarget, *countingSaver) {
	t.Helper()
	target := newTarget(text)
	saver := &countingSaver{}
	c := NewController(target, WithStateSaver(saver))
	s, err := c.Activate(completion.Static(items...), completion.EmptyParams)
	require.NoError(t, err)
	return s, target, saver
}

func selected(t *testing.T, s *Session) int {
	t.Helper()
	i, ok := s.SelectedIndex()
	require.True(t, ok, "expected a selection")
	return i
}

func TestMenuFiltersOnTextChange(t *testing.T) {
	var log commitLog
	s, target, _ := openMenu(t, "", log.ident("apple"), log.ident("apricot"), log.ident("banana"))

	assert.Equal(t, []string{"apple", "apricot", "banana"}, texts(s.VisibleItems()))
	assert.Equal(t, 0, selected(t, s))

	target.typeText("ap")
	assert.Equal(t, "ap", s.Prefix())
	assert.Equal(t, []string{"apple", "apricot"}, texts(s.VisibleItems()))

	s.Navigate(Down, 1)
	assert.Equal(t, 1, selected(t, s))
	assert.Equal(t, Selecting, s.State())

	target.typeText("r")
	assert.Equal(t, []string{"apricot"}, texts(s.VisibleItems()))
	assert.Equal(t, 0, selected(t, s), "selected item stays selected")

	target.typeText("x")
	assert.Empty(t, s.VisibleItems())
	_, ok := s.SelectedIndex()
	assert.False(t, ok)

	target.setText("b", 1)
	assert.Equal(t, []string{"banana"}, texts(s.VisibleItems()))
	assert.Equal(t, 0, selected(t, s))
}

func TestSelectionClampsWhenItemDisappears(t *testing.T) {
	var log commitLog
	s, target, _ := openMenu(t, "a", log.ident("ab1"), log.ident("ab2"), log.ident("ac1"))

	s.Navigate(Down, 2)
	assert.Equal(t, 2, selected(t, s))

	target.typeText("b")
	assert.Equal(t, []string{"ab1", "ab2"}, texts(s.VisibleItems()))
	assert.Equal(t, 1, selected(t, s))
}

func TestPrefixStopsAtCaret(t *testing.T) {
	var log commitLog
	s, target, _ := openMenu(t, "", log.ident("abc"), log.ident("xyz"))

	target.setText("xa", 1)
	assert.Equal(t, "x", s.Prefix())
	assert.Equal(t, []string{"xyz"}, texts(s.VisibleItems()))
}

func TestNavigateClamps(t *testing.T) {
	var log commitLog
	s, _, _ := openMenu(t, "", log.ident("a"), log.ident("b"), log.ident("c"))

	s.Navigate(Up, 1)
	assert.Equal(t, 0, selected(t, s))
	s.Navigate(Down, 10)
	assert.Equal(t, 2, selected(t, s))
	s.Navigate(Down, 1)
	assert.Equal(t, 2, selected(t, s), "navigation does not wrap")

	empty, _, _ := openMenu(t, "")
	empty.Navigate(Down, 1)
	_, ok := empty.SelectedIndex()
	assert.False(t, ok)
	assert.Equal(t, Ready, empty.State())
}

func TestCommitSelected(t *testing.T) {
	var log commitLog
	target := newTarget("ap")
	saver := &countingSaver{}
	slot := &fakeSlot{}
	rec := &recorder{}
	c := NewController(target, WithStateSaver(saver), WithMenuSlot(slot), WithEvents(rec))

	s, err := c.Activate(completion.Static(log.ident("apple"), log.ident("apricot")), completion.EmptyParams)
	require.NoError(t, err)
	assert.Same(t, s, slot.Get())

	s.Navigate(Down, 1)
	require.NoError(t, s.CommitSelected())

	assert.Equal(t, []string{"apricot:ap"}, log.all())
	assert.Equal(t, Committed, s.State())
	assert.True(t, s.Closed())
	assert.Zero(t, target.handlerCount())
	assert.Nil(t, slot.Get())
	assert.Nil(t, c.Active())
	_, restores := saver.counts()
	assert.Zero(t, restores, "commit keeps the edited state")
	assert.Equal(t, []events.Type{events.Activated, events.ItemsArrived, events.Committed}, rec.types())
}

func TestCommitErrors(t *testing.T) {
	var log commitLog
	s, target, _ := openMenu(t, "zz", log.ident("apple"))

	assert.ErrorIs(t, s.CommitSelected(), ErrNothingToCommit)
	assert.ErrorIs(t, s.Commit(0), ErrNotVisible)
	assert.False(t, s.Closed())

	target.setText("a", 1)
	assert.ErrorIs(t, s.Commit(1), ErrNotVisible)
	assert.ErrorIs(t, s.Commit(-1), ErrNotVisible)
	require.NoError(t, s.Commit(0))

	assert.ErrorIs(t, s.Commit(0), ErrClosed)
	assert.ErrorIs(t, s.CommitSelected(), ErrClosed)
	assert.ErrorIs(t, s.CommitItem(log.ident("apple"), "a"), ErrClosed)
	assert.Equal(t, []string{"apple:a"}, log.all())
}

func TestCancelIsIdempotent(t *testing.T) {
	var log commitLog
	s, target, saver := openMenu(t, "", log.ident("a"))

	assert.True(t, s.Cancel(Escape))
	assert.False(t, s.Cancel(Escape))
	assert.False(t, s.Cancel(FocusLost))
	assert.ErrorIs(t, s.CommitSelected(), ErrClosed)

	_, restores := saver.counts()
	assert.Equal(t, 1, restores)
	assert.Equal(t, 3, target.releasedCount())
	assert.Equal(t, Cancelled, s.State())
	assert.Empty(t, log.all())
}

func TestCommitThenCancel(t *testing.T) {
	var log commitLog
	s, target, saver := openMenu(t, "", log.ident("a"))

	require.NoError(t, s.CommitSelected())
	assert.False(t, s.Cancel(Escape))
	target.blur()

	_, restores := saver.counts()
	assert.Zero(t, restores)
	assert.Equal(t, 3, target.releasedCount())
	assert.Equal(t, Committed, s.State())
}

func TestFocusLost(t *testing.T) {
	var log commitLog

	t.Run("menu restores", func(t *testing.T) {
		s, target, saver := openMenu(t, "", log.ident("a"))
		target.blur()
		assert.Equal(t, Cancelled, s.State())
		_, restores := saver.counts()
		assert.Equal(t, 1, restores)
	})

	t.Run("side popup keeps state", func(t *testing.T) {
		target := newTarget("")
		saver := &countingSaver{}
		slot := &fakeSlot{}
		c := NewController(target, WithStateSaver(saver))
		s, err := c.ActivateSidePopup(slot, completion.Static(log.keyword("foo")), false)
		require.NoError(t, err)

		target.blur()
		assert.Equal(t, Cancelled, s.State())
		assert.Nil(t, slot.Get())
		_, restores := saver.counts()
		assert.Zero(t, restores)
	})
}

func TestEmptyText(t *testing.T) {
	var log commitLog

	t.Run("side popup cancels", func(t *testing.T) {
		target := newTarget("")
		saver := &countingSaver{}
		rec := &recorder{}
		c := NewController(target, WithStateSaver(saver), WithEvents(rec))
		s, err := c.ActivateSidePopup(&fakeSlot{}, completion.Static(log.keyword("foo")), false)
		require.NoError(t, err)

		target.typeText("f")
		assert.False(t, s.Closed())
		target.setText("", 0)
		assert.Equal(t, Cancelled, s.State())
		_, restores := saver.counts()
		assert.Equal(t, 1, restores)
		require.NotEmpty(t, rec.events)
		last := rec.events[len(rec.events)-1]
		assert.Equal(t, EmptyText, last.Payload.Reason)
	})

	t.Run("menu stays open", func(t *testing.T) {
		s, target, _ := openMenu(t, "a", log.ident("ab"))
		target.setText("", 0)
		assert.False(t, s.Closed())
		assert.Equal(t, []string{"ab"}, texts(s.VisibleItems()))
	})
}

func TestDetachedRestores(t *testing.T) {
	var log commitLog
	s, _, saver := openMenu(t, "", log.ident("a"))
	s.Cancel(Detached)
	_, restores := saver.counts()
	assert.Equal(t, 1, restores)
}
