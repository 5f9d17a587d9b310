// Package memhost is an in-memory editor for driving completion sessions
// without a UI. A Document is a row of committed tokens followed by the
// token being edited.
package memhost

import (
	"strings"
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/reg"
	"github.com/bastiangx/cellcomplete/pkg/session"
)

type handlers[F any] struct {
	next int
	fns  map[int]F
}

func (h *handlers[F]) add(fn F) int {
	if h.fns == nil {
		h.fns = make(map[int]F)
	}
	h.next++
	h.fns[h.next] = fn
	return h.next
}

// snapshot returns the handlers newest first.
func (h *handlers[F]) snapshot() []F {
	out := make([]F, 0, len(h.fns))
	for id := h.next; id > 0 && len(out) < len(h.fns); id-- {
		if fn, ok := h.fns[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Document implements session.Target, session.StateSaver and
// session.Typist. Handlers run on the caller's goroutine, outside the
// document's lock.
type Document struct {
	mu        sync.Mutex
	tokens    []string
	text      []rune
	caret     int
	focused   bool
	keys      handlers[func(session.KeyEvent) bool]
	focusLost handlers[func()]
	changed   handlers[func()]
}

// NewDocument returns a focused document editing text with the caret at
// its end.
func NewDocument(text string) *Document {
	r := []rune(text)
	return &Document{text: r, caret: len(r), focused: true}
}

func (d *Document) Focused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Text is the token being edited.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.text)
}

func (d *Document) CaretPosition() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caret
}

// Tokens returns the committed tokens.
func (d *Document) Tokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...)
}

// String renders the committed tokens and the edited token, space
// separated.
func (d *Document) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	parts := append([]string(nil), d.tokens...)
	if len(d.text) > 0 {
		parts = append(parts, string(d.text))
	}
	return strings.Join(parts, " ")
}

func (d *Document) AddKeyHandler(fn func(session.KeyEvent) bool) reg.Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.keys.add(fn)
	return reg.Func(func() { d.remove(func() { delete(d.keys.fns, id) }) })
}

func (d *Document) AddFocusLostHandler(fn func()) reg.Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.focusLost.add(fn)
	return reg.Func(func() { d.remove(func() { delete(d.focusLost.fns, id) }) })
}

func (d *Document) AddTextChangedHandler(fn func()) reg.Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.changed.add(fn)
	return reg.Func(func() { d.remove(func() { delete(d.changed.fns, id) }) })
}

func (d *Document) remove(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// HandlerCount returns the number of registered handlers of all kinds.
func (d *Document) HandlerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys.fns) + len(d.focusLost.fns) + len(d.changed.fns)
}

// Press delivers ev to the key handlers, newest first, until one consumes
// it. Unconsumed characters are inserted at the caret and unconsumed
// backspaces delete before it. It reports whether a handler consumed ev.
func (d *Document) Press(ev session.KeyEvent) bool {
	d.mu.Lock()
	fns := d.keys.snapshot()
	d.mu.Unlock()

	for _, fn := range fns {
		if fn(ev) {
			return true
		}
	}

	switch ev.Key {
	case session.KeyRune:
		d.Insert(string(ev.Rune))
	case session.KeyBackspace:
		d.Backspace()
	}
	return false
}

// Type presses every character of s in turn.
func (d *Document) Type(s string) {
	for _, r := range s {
		d.Press(session.KeyEvent{Key: session.KeyRune, Rune: r})
	}
}

// KeyTyped inserts r at the caret as if typed, bypassing key handlers.
func (d *Document) KeyTyped(r rune) {
	d.Insert(string(r))
}

// Insert inserts s at the caret.
func (d *Document) Insert(s string) {
	d.mu.Lock()
	ins := []rune(s)
	text := make([]rune, 0, len(d.text)+len(ins))
	text = append(text, d.text[:d.caret]...)
	text = append(text, ins...)
	text = append(text, d.text[d.caret:]...)
	d.text = text
	d.caret += len(ins)
	d.mu.Unlock()
	d.textChanged()
}

// Backspace deletes the rune before the caret.
func (d *Document) Backspace() {
	d.mu.Lock()
	if d.caret == 0 {
		d.mu.Unlock()
		return
	}
	d.text = append(d.text[:d.caret-1:d.caret-1], d.text[d.caret:]...)
	d.caret--
	d.mu.Unlock()
	d.textChanged()
}

// SetText replaces the edited token and moves the caret, clamped to the
// text.
func (d *Document) SetText(text string, caret int) {
	d.mu.Lock()
	d.text = []rune(text)
	d.caret = min(max(caret, 0), len(d.text))
	d.mu.Unlock()
	d.textChanged()
}

// Complete commits word for the typed text before the caret. Word becomes
// a token and editing continues after it with whatever followed the
// caret.
func (d *Document) Complete(typed, word string) {
	d.mu.Lock()
	d.tokens = append(d.tokens, word)
	d.text = append([]rune(nil), d.text[d.caret:]...)
	d.caret = 0
	d.mu.Unlock()
}

// Blur removes focus and notifies focus-lost handlers.
func (d *Document) Blur() {
	d.mu.Lock()
	d.focused = false
	fns := d.focusLost.snapshot()
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Focus gives the document focus.
func (d *Document) Focus() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focused = true
}

// SaveState snapshots tokens, text and caret. The restore function puts
// them back without notifying handlers.
func (d *Document) SaveState() func() {
	d.mu.Lock()
	tokens := append([]string(nil), d.tokens...)
	text := append([]rune(nil), d.text...)
	caret := d.caret
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.tokens = tokens
		d.text = text
		d.caret = caret
	}
}

func (d *Document) textChanged() {
	d.mu.Lock()
	fns := d.changed.snapshot()
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
