package session

import (
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/reg"
)

// Target is the focused editing context a session attaches to.
type Target interface {
	Focused() bool
	Text() string
	// CaretPosition is counted in runes.
	CaretPosition() int

	// AddKeyHandler delivers key events until released. A handler returns
	// true when it consumed the event.
	AddKeyHandler(fn func(KeyEvent) bool) reg.Registration
	AddFocusLostHandler(fn func()) reg.Registration
	AddTextChangedHandler(fn func()) reg.Registration
}

// Popup is what a session places into a popup slot. Hosts render it.
type Popup interface {
	ID() string
	VisibleItems() []completion.Item
	SelectedIndex() (int, bool)
}

// PopupSlot holds at most one popup.
type PopupSlot interface {
	Get() Popup
	Set(p Popup)
	Clear()
}

// StateSaver snapshots editor and popup state. The returned function
// restores the snapshot.
type StateSaver interface {
	SaveState() (restore func())
}

// PageMetrics report the popup size in host units.
type PageMetrics interface {
	PopupHeight() int
	RowHeight() int
}

// Typist replays a character into the host as if the user typed it.
type Typist interface {
	KeyTyped(r rune)
}

// StateSaverFunc adapts a function to StateSaver.
type StateSaverFunc func() func()

func (f StateSaverFunc) SaveState() func() { return f() }
