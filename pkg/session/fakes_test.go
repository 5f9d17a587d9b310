package session

import (
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/async"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/events"
	"github.com/bastiangx/cellcomplete/pkg/reg"
)

type fakeTarget struct {
	mu       sync.Mutex
	focused  bool
	text     string
	caret    int
	next     int
	keys     map[int]func(KeyEvent) bool
	blurs    map[int]func()
	changes  map[int]func()
	released int
}

func newTarget(text string) *fakeTarget {
	return &fakeTarget{
		focused: true,
		text:    text,
		caret:   len([]rune(text)),
		keys:    make(map[int]func(KeyEvent) bool),
		blurs:   make(map[int]func()),
		changes: make(map[int]func()),
	}
}

func (t *fakeTarget) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

func (t *fakeTarget) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

func (t *fakeTarget) CaretPosition() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.caret
}

func addHandler[F any](t *fakeTarget, m map[int]F, fn F) reg.Registration {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	m[id] = fn
	return reg.Func(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(m, id)
		t.released++
	})
}

func (t *fakeTarget) AddKeyHandler(fn func(KeyEvent) bool) reg.Registration {
	return addHandler(t, t.keys, fn)
}

func (t *fakeTarget) AddFocusLostHandler(fn func()) reg.Registration {
	return addHandler(t, t.blurs, fn)
}

func (t *fakeTarget) AddTextChangedHandler(fn func()) reg.Registration {
	return addHandler(t, t.changes, fn)
}

func (t *fakeTarget) handlerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys) + len(t.blurs) + len(t.changes)
}

func (t *fakeTarget) releasedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

func collect[F any](t *fakeTarget, m map[int]F) []F {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]F, 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

func (t *fakeTarget) press(k Key) bool {
	for _, fn := range collect(t, t.keys) {
		if fn(KeyEvent{Key: k}) {
			return true
		}
	}
	return false
}

func (t *fakeTarget) setText(text string, caret int) {
	t.mu.Lock()
	t.text, t.caret = text, caret
	t.mu.Unlock()
	for _, fn := range collect(t, t.changes) {
		fn()
	}
}

func (t *fakeTarget) typeText(s string) {
	text := t.Text() + s
	t.setText(text, len([]rune(text)))
}

func (t *fakeTarget) blur() {
	t.mu.Lock()
	t.focused = false
	t.mu.Unlock()
	for _, fn := range collect(t, t.blurs) {
		fn()
	}
}

type fakeSlot struct {
	mu sync.Mutex
	p  Popup
}

func (s *fakeSlot) Get() Popup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

func (s *fakeSlot) Set(p Popup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

func (s *fakeSlot) Clear() { s.Set(nil) }

type otherPopup struct{}

func (otherPopup) ID() string                      { return "other" }
func (otherPopup) VisibleItems() []completion.Item { return nil }
func (otherPopup) SelectedIndex() (int, bool)      { return 0, false }

type countingSaver struct {
	mu       sync.Mutex
	saves    int
	restores int
}

func (c *countingSaver) SaveState() func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.restores++
	}
}

func (c *countingSaver) counts() (saves, restores int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves, c.restores
}

type metrics struct{ popup, row int }

func (m metrics) PopupHeight() int { return m.popup }
func (m metrics) RowHeight() int   { return m.row }

type typist struct {
	mu    sync.Mutex
	runes []rune
}

func (t *typist) KeyTyped(r rune) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runes = append(t.runes, r)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event[Event]
}

func (r *recorder) Publish(t events.Type, payload Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events.Event[Event]{Type: t, Payload: payload})
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type commitLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *commitLog) apply(word string) func(string) {
	return func(text string) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.entries = append(l.entries, word+":"+text)
	}
}

func (l *commitLog) keyword(word string) completion.Item {
	return completion.Keyword{Word: word, Apply: l.apply(word)}
}

func (l *commitLog) ident(word string) completion.Item {
	return completion.Identifier{Name: word, Apply: l.apply(word)}
}

func (l *commitLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// splitSupplier offers items right away and the rest through f.
type splitSupplier struct {
	items []completion.Item
	f     *async.Future[[]completion.Item]
}

func (s splitSupplier) Get(completion.Params) []completion.Item { return s.items }

func (s splitSupplier) GetAsync(completion.Params) *async.Future[[]completion.Item] { return s.f }

func texts(items []completion.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text())
	}
	return out
}
