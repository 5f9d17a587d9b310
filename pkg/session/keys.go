package session

import (
	"github.com/charmbracelet/bubbles/key"
)

// Key identifies a non-character key.
type Key int

const (
	KeyUnknown Key = iota
	KeyRune
	KeyEscape
	KeyEnter
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyBackspace
)

var keyNames = map[Key]string{
	KeyEscape:    "esc",
	KeyEnter:     "enter",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdown",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
}

// KeyEvent is a key press delivered by the host. Its String form follows
// the names used by key bindings, so it can be passed to key.Matches.
type KeyEvent struct {
	Key  Key
	Rune rune
}

func (e KeyEvent) String() string {
	if e.Key == KeyRune {
		return string(e.Rune)
	}
	if name, ok := keyNames[e.Key]; ok {
		return name
	}
	return "unknown"
}

// ParseKey turns a binding name or a single character into a KeyEvent.
func ParseKey(name string) (KeyEvent, bool) {
	for k, n := range keyNames {
		if n == name {
			return KeyEvent{Key: k}, true
		}
	}
	if r := []rune(name); len(r) == 1 {
		return KeyEvent{Key: KeyRune, Rune: r[0]}, true
	}
	return KeyEvent{}, false
}

// KeyMap binds keys to session commands.
type KeyMap struct {
	Accept   key.Binding
	Dismiss  key.Binding
	Next     key.Binding
	Prev     key.Binding
	PageNext key.Binding
	PagePrev key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Accept:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "accept completion")),
		Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss completion")),
		Next:     key.NewBinding(key.WithKeys("down"), key.WithHelp("down", "next completion")),
		Prev:     key.NewBinding(key.WithKeys("up"), key.WithHelp("up", "prev completion")),
		PageNext: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "next completion page")),
		PagePrev: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev completion page")),
	}
}

// Dispatcher maps key events onto session commands.
type Dispatcher struct {
	Keys    KeyMap
	Metrics PageMetrics
	// PageHeight is used when Metrics is nil.
	PageHeight int
}

// Dispatch applies ev to s and reports whether ev was consumed. Accept is
// consumed only when there is a selection to commit; other bound keys are
// always consumed while the session is open.
func (d Dispatcher) Dispatch(s *Session, ev KeyEvent) bool {
	if s.Closed() {
		return false
	}
	switch {
	case key.Matches(ev, d.Keys.Dismiss):
		s.Cancel(Escape)
		return true
	case key.Matches(ev, d.Keys.Accept):
		return s.CommitSelected() == nil
	case key.Matches(ev, d.Keys.Prev):
		s.Navigate(Up, 1)
		return true
	case key.Matches(ev, d.Keys.Next):
		s.Navigate(Down, 1)
		return true
	case key.Matches(ev, d.Keys.PagePrev):
		s.Navigate(Up, d.pageHeight())
		return true
	case key.Matches(ev, d.Keys.PageNext):
		s.Navigate(Down, d.pageHeight())
		return true
	}
	return false
}

func (d Dispatcher) pageHeight() int {
	h := d.PageHeight
	if d.Metrics != nil {
		if row := d.Metrics.RowHeight(); row > 0 {
			h = d.Metrics.PopupHeight() / row
		}
	}
	return max(h, 1)
}
