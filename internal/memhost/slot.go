package memhost

import (
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/session"
)

// Slot is a popup slot holding at most one popup.
type Slot struct {
	mu    sync.Mutex
	popup session.Popup
}

func (s *Slot) Get() session.Popup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popup
}

func (s *Slot) Set(p session.Popup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = p
}

func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = nil
}

// Metrics are fixed popup dimensions.
type Metrics struct {
	Height int
	Row    int
}

func (m Metrics) PopupHeight() int { return m.Height }
func (m Metrics) RowHeight() int   { return m.Row }

var (
	_ session.Target      = (*Document)(nil)
	_ session.StateSaver  = (*Document)(nil)
	_ session.Typist      = (*Document)(nil)
	_ session.PopupSlot   = (*Slot)(nil)
	_ session.PageMetrics = Metrics{}
)
