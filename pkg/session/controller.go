// Package session drives interactive completion: activation against a
// focused target, asynchronous population, keyboard selection, commit and
// cancellation with restoration of prior editor state.
//
// A Controller owns at most one active Session for its target. The menu
// variant lists items for the text before the caret. The side popup
// variant occupies a popup slot and commits automatically once typing
// leaves a single unambiguous item.
package session

import (
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/events"
	"github.com/bastiangx/cellcomplete/pkg/reg"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultPageHeight = 8

// Controller activates sessions for one editing target.
type Controller struct {
	target     Target
	saver      StateSaver
	menuSlot   PopupSlot
	metrics    PageMetrics
	typist     Typist
	keys       KeyMap
	pageHeight int
	publisher  events.Publisher[Event]
	logger     *log.Logger

	mu     sync.Mutex
	eager  bool
	active *Session
}

type Option func(*Controller)

// WithStateSaver sets the snapshot taken at activation and restored on
// cancel.
func WithStateSaver(s StateSaver) Option {
	return func(c *Controller) { c.saver = s }
}

// WithMenuSlot makes menu sessions occupy slot while open.
func WithMenuSlot(slot PopupSlot) Option {
	return func(c *Controller) { c.menuSlot = slot }
}

// WithPageMetrics sizes page navigation from the popup's height.
func WithPageMetrics(m PageMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithDefaultPageHeight sets the page size used without page metrics.
func WithDefaultPageHeight(rows int) Option {
	return func(c *Controller) { c.pageHeight = rows }
}

// WithTypist receives characters replayed after a side popup splits a
// token.
func WithTypist(t Typist) Option {
	return func(c *Controller) { c.typist = t }
}

func WithKeyMap(k KeyMap) Option {
	return func(c *Controller) { c.keys = k }
}

func WithEager(eager bool) Option {
	return func(c *Controller) { c.eager = eager }
}

// WithEvents publishes lifecycle events to p.
func WithEvents(p events.Publisher[Event]) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController returns a controller for target.
func NewController(target Target, opts ...Option) *Controller {
	c := &Controller{
		target:     target,
		keys:       DefaultKeyMap(),
		pageHeight: defaultPageHeight,
		logger:     log.Default().WithPrefix("session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Eager reports whether a unique match is committed without waiting for
// longer candidates to be ruled out.
func (c *Controller) Eager() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eager
}

func (c *Controller) SetEager(eager bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eager = eager
}

// Active returns the open session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State is the active session's state, or Idle.
func (c *Controller) State() State {
	if s := c.Active(); s != nil {
		return s.State()
	}
	return Idle
}

// Activate opens a completion menu over supplier. It fails with a
// *RejectedError if a session is already open, the target is not focused
// or the menu slot holds another popup.
func (c *Controller) Activate(supplier completion.Supplier, params completion.Params) (*Session, error) {
	return c.activate(Menu, c.menuSlot, supplier, params)
}

// ActivateSidePopup opens a side transform popup in slot. It also fails
// when slot is occupied, and with ErrNoSlot when slot is nil.
func (c *Controller) ActivateSidePopup(slot PopupSlot, supplier completion.Supplier, endRightTransform bool) (*Session, error) {
	if slot == nil {
		return nil, ErrNoSlot
	}
	return c.activate(SidePopup, slot, supplier, completion.Params{EndRightTransform: endRightTransform})
}

// Trigger opens a menu when nothing is open and supplier has items right
// away. It reports whether a session was opened.
func (c *Controller) Trigger(supplier completion.Supplier, params completion.Params) (*Session, bool) {
	if c.Active() != nil {
		return nil, false
	}
	if completion.HelperFor(supplier, params).IsEmpty() {
		return nil, false
	}
	s, err := c.Activate(supplier, params)
	if err != nil {
		c.logger.Debug("trigger rejected", "err", err)
		return nil, false
	}
	return s, true
}

func (c *Controller) activate(variant Variant, slot PopupSlot, supplier completion.Supplier, params completion.Params) (*Session, error) {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, rejected(AlreadyActive)
	}
	if !c.target.Focused() {
		c.mu.Unlock()
		return nil, rejected(NotFocused)
	}
	if slot != nil && slot.Get() != nil {
		c.mu.Unlock()
		return nil, rejected(SlotOccupied)
	}

	s := &Session{
		id:       uuid.NewString(),
		variant:  variant,
		ctl:      c,
		supplier: supplier,
		slot:     slot,
		regs:     reg.NewComposite(),
		state:    Loading,
		loading:  true,
		prefix:   prefixText(c.target.Text(), c.target.CaretPosition()),
		helper:   completion.NewHelper(nil),
		selected: -1,
	}
	if c.saver != nil {
		s.restore = c.saver.SaveState()
	}
	params.Prefix = s.prefix
	s.params = params
	if variant == SidePopup {
		s.supplier = completion.Map(supplier, func(it completion.Item) completion.Item {
			return completion.Wrap{Item: it, OnComplete: s.markCompleted}
		})
	}
	c.active = s
	c.mu.Unlock()

	s.regs.Add(c.target.AddKeyHandler(s.OnKeyEvent))
	s.regs.Add(c.target.AddFocusLostHandler(func() { s.Cancel(FocusLost) }))
	s.regs.Add(c.target.AddTextChangedHandler(s.onTextChanged))
	if slot != nil {
		slot.Set(s)
		if s.Closed() && slot.Get() == Popup(s) {
			slot.Clear()
		}
	}

	items := s.supplier.Get(s.params)
	s.mu.Lock()
	s.appendItems(items)
	visible := len(s.visible)
	s.mu.Unlock()

	c.logger.Debug("activated", "session", s.id, "variant", variant, "prefix", s.params.Prefix, "visible", visible)
	c.publish(events.Activated, Event{SessionID: s.id, Variant: variant, Visible: visible})

	s.await(s.supplier.GetAsync(s.params))
	return s, nil
}

// markCompleted closes a side popup whose item was completed outside of
// the session's own commit path.
func (s *Session) markCompleted(string) {
	if s.finish(true) {
		s.teardown(false)
	}
}

func (c *Controller) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}

func (c *Controller) dispatcher() Dispatcher {
	return Dispatcher{Keys: c.keys, Metrics: c.metrics, PageHeight: c.pageHeight}
}

func (c *Controller) publish(t events.Type, ev Event) {
	if c.publisher != nil {
		c.publisher.Publish(t, ev)
	}
}
