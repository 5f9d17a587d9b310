package session

import (
	"testing"

	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSide(t *testing.T, opts []Option, items ...completion.Item) (*Session, *fakeTarget, *fakeSlot, *countingSaver) {
	t.Helper()
	target := newTarget("")
	saver := &countingSaver{}
	slot := &fakeSlot{}
	c := NewController(target, append([]Option{WithStateSaver(saver)}, opts...)...)
	s, err := c.ActivateSidePopup(slot, completion.Static(items...), false)
	require.NoError(t, err)
	return s, target, slot, saver
}

func TestSidePopupCommitsSingleMatch(t *testing.T) {
	var log commitLog
	s, target, slot, saver := openSide(t, nil, log.keyword("foo"), log.keyword("bar"))

	target.typeText("f")
	target.typeText("o")
	assert.False(t, s.Closed())
	target.typeText("o")

	assert.Equal(t, Committed, s.State())
	assert.Equal(t, []string{"foo:foo"}, log.all())
	assert.Nil(t, slot.Get())
	_, restores := saver.counts()
	assert.Zero(t, restores)
}

func TestSidePopupEager(t *testing.T) {
	var log commitLog

	s, target, _, _ := openSide(t, nil, log.keyword("in"), log.keyword("int"))
	target.typeText("in")
	assert.False(t, s.Closed(), "a longer keyword may still follow")
	target.typeText("t")
	assert.Equal(t, Committed, s.State())

	eager, target, _, _ := openSide(t, []Option{WithEager(true)}, log.keyword("in"), log.keyword("int"))
	target.typeText("in")
	assert.Equal(t, Committed, eager.State())

	assert.Equal(t, []string{"int:int", "in:in"}, log.all())
}

func TestSidePopupSplitsAtBoundary(t *testing.T) {
	var log commitLog
	ty := &typist{}
	s, target, _, _ := openSide(t, []Option{WithTypist(ty)}, log.keyword("x"), log.keyword("xy"))

	target.typeText("x")
	assert.False(t, s.Closed())
	target.typeText("+")

	assert.Equal(t, Committed, s.State())
	assert.Equal(t, []string{"x:x"}, log.all())
	assert.Equal(t, []rune{'+'}, ty.runes)
}

func TestSidePopupWaitsForCaretAtEnd(t *testing.T) {
	var log commitLog
	s, target, _, _ := openSide(t, nil, log.keyword("foo"))

	target.setText("foo", 1)
	assert.False(t, s.Closed())
	assert.Equal(t, "f", s.Prefix())
}

func TestSidePopupSupplierMarksCompleted(t *testing.T) {
	var log commitLog
	s, _, slot, saver := openSide(t, nil, log.keyword("foo"))

	items := s.Supplier().Get(completion.EmptyParams)
	require.Len(t, items, 1)
	items[0].Complete("foo").Run()

	assert.Equal(t, Committed, s.State())
	assert.Nil(t, slot.Get())
	assert.False(t, s.Cancel(FocusLost))
	_, restores := saver.counts()
	assert.Zero(t, restores)
	assert.Equal(t, []string{"foo:foo"}, log.all())
}
