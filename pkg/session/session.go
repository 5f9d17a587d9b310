package session

import (
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/events"
	"github.com/bastiangx/cellcomplete/pkg/reg"
)

// Session is one completion interaction, from activation until it is
// committed or cancelled. All methods are safe for concurrent use; host
// callbacks and item actions run outside the session lock.
type Session struct {
	id       string
	variant  Variant
	ctl      *Controller
	supplier completion.Supplier
	params   completion.Params
	slot     PopupSlot
	restore  func()
	regs     *reg.Composite

	mu        sync.Mutex
	state     State
	loading   bool
	delivered bool
	prefix    string
	helper    *completion.Helper
	visible   []int
	selected  int
	completed bool
	dismissed bool
}

func (s *Session) ID() string { return s.id }

func (s *Session) Variant() Variant { return s.variant }

// Supplier is the supplier the session queries. For side popups every item
// it offers closes the session as committed when its action runs.
func (s *Session) Supplier() completion.Supplier { return s.supplier }

func (s *Session) Params() completion.Params { return s.params }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether asynchronous items are still expected.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Prefix is the target text up to the caret as last observed.
func (s *Session) Prefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefix
}

// Closed reports whether the session was committed or cancelled.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed || s.dismissed
}

// Items returns every item received so far, in arrival order.
func (s *Session) Items() []completion.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.helper.Items()
}

// VisibleItems returns the items matching the current prefix.
func (s *Session) VisibleItems() []completion.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]completion.Item, len(s.visible))
	for i, idx := range s.visible {
		out[i] = s.helper.At(idx)
	}
	return out
}

// SelectedIndex returns the selected position in VisibleItems.
func (s *Session) SelectedIndex() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected >= 0
}

// Navigate moves the selection by steps in dir, stopping at either end.
func (s *Session) Navigate(dir Direction, steps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.dismissed || len(s.visible) == 0 {
		return
	}
	next := s.selected + int(dir)*steps
	if s.selected < 0 {
		next = 0
	}
	s.selected = min(max(next, 0), len(s.visible)-1)
	s.state = Selecting
}

// OnKeyEvent dispatches ev with the controller's key map.
func (s *Session) OnKeyEvent(ev KeyEvent) bool {
	return s.ctl.dispatcher().Dispatch(s, ev)
}

// CommitSelected commits the selected item with the current prefix.
func (s *Session) CommitSelected() error {
	s.mu.Lock()
	if s.completed || s.dismissed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.selected < 0 {
		s.mu.Unlock()
		return ErrNothingToCommit
	}
	item, text := s.helper.At(s.visible[s.selected]), s.prefix
	s.mu.Unlock()
	return s.CommitItem(item, text)
}

// Commit commits the visible item at index with the current prefix.
func (s *Session) Commit(index int) error {
	s.mu.Lock()
	if s.completed || s.dismissed {
		s.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(s.visible) {
		s.mu.Unlock()
		return ErrNotVisible
	}
	item, text := s.helper.At(s.visible[index]), s.prefix
	s.mu.Unlock()
	return s.CommitItem(item, text)
}

// CommitItem commits item with text. The item does not have to be visible,
// which lets single match automation commit without a selection. The
// session is torn down before the item's action runs; prior editor state
// is not restored.
func (s *Session) CommitItem(item completion.Item, text string) error {
	if !s.finish(true) {
		return ErrClosed
	}
	s.teardown(false)
	s.ctl.logger.Debug("committed", "session", s.id, "variant", s.variant, "item", item.Text(), "text", text)
	s.ctl.publish(events.Committed, Event{SessionID: s.id, Variant: s.variant, Item: item.Text(), Text: text})
	item.Complete(text).Run()
	return nil
}

// Cancel closes the session. Prior editor state is restored unless a side
// popup lost focus. It reports false if the session was already closed.
func (s *Session) Cancel(reason CancelReason) bool {
	if !s.finish(false) {
		return false
	}
	s.teardown(!(reason == FocusLost && s.variant == SidePopup))
	s.ctl.logger.Debug("cancelled", "session", s.id, "variant", s.variant, "reason", reason)
	s.ctl.publish(events.Cancelled, Event{SessionID: s.id, Variant: s.variant, Reason: reason})
	return true
}

// finish sets the terminal flag once.
func (s *Session) finish(committed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || s.dismissed {
		return false
	}
	if committed {
		s.completed = true
		s.state = Committed
	} else {
		s.dismissed = true
		s.state = Cancelled
	}
	return true
}

func (s *Session) teardown(restore bool) {
	s.regs.Remove()
	if s.slot != nil && s.slot.Get() == Popup(s) {
		s.slot.Clear()
	}
	s.ctl.release(s)
	if restore && s.restore != nil {
		s.restore()
	}
}

// onTextChanged re-filters against the target's text up to the caret.
func (s *Session) onTextChanged() {
	text := s.ctl.target.Text()
	if s.variant == SidePopup && text == "" {
		s.Cancel(EmptyText)
		return
	}
	caret := s.ctl.target.CaretPosition()

	s.mu.Lock()
	if s.completed || s.dismissed {
		s.mu.Unlock()
		return
	}
	s.prefix = prefixText(text, caret)
	s.refilter()
	s.mu.Unlock()

	if s.variant == SidePopup && caret >= len([]rune(text)) {
		s.afterType(text)
	}
}

// refilter recomputes the visible list. The selected item stays selected
// while visible; otherwise the old position is clamped into the new list.
// Callers hold s.mu.
func (s *Session) refilter() {
	prev := -1
	if s.selected >= 0 && s.selected < len(s.visible) {
		prev = s.visible[s.selected]
	}
	s.visible = s.helper.MatchIndices(s.prefix)

	switch {
	case len(s.visible) == 0:
		s.selected = -1
	case prev >= 0:
		s.selected = min(s.selected, len(s.visible)-1)
		for i, idx := range s.visible {
			if idx == prev {
				s.selected = i
				break
			}
		}
	default:
		s.selected = 0
	}
}

func prefixText(text string, caret int) string {
	r := []rune(text)
	return string(r[:min(max(caret, 0), len(r))])
}
