package session

import (
	"github.com/bastiangx/cellcomplete/pkg/async"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/events"
)

// await delivers the result of f to the session at most once. Results that
// arrive after the session closed are dropped.
func (s *Session) await(f *async.Future[[]completion.Item]) {
	f.OnSuccess(s.onItemsArrived)
	f.OnFailure(s.onItemsFailed)
}

// appendItems extends the backing list and re-filters. Callers hold s.mu.
func (s *Session) appendItems(items []completion.Item) {
	if len(items) == 0 {
		s.refilter()
		return
	}
	all := append(s.helper.Items(), items...)
	s.helper = completion.NewHelper(all)
	s.refilter()
}

func (s *Session) onItemsArrived(items []completion.Item) {
	s.mu.Lock()
	if s.completed || s.dismissed || s.delivered {
		s.mu.Unlock()
		s.ctl.logger.Debug("ignored late items", "session", s.id, "count", len(items))
		return
	}
	s.delivered = true
	s.loading = false
	if s.state == Loading {
		s.state = Ready
	}
	s.appendItems(items)
	visible := len(s.visible)
	s.mu.Unlock()

	s.ctl.logger.Debug("items arrived", "session", s.id, "count", len(items), "visible", visible)
	s.ctl.publish(events.ItemsArrived, Event{SessionID: s.id, Variant: s.variant, Visible: visible})
}

// onItemsFailed leaves the session loading. There is no retry.
func (s *Session) onItemsFailed(err error) {
	s.mu.Lock()
	if s.completed || s.dismissed || s.delivered {
		s.mu.Unlock()
		s.ctl.logger.Debug("ignored late failure", "session", s.id, "err", err)
		return
	}
	s.delivered = true
	s.loading = true
	s.mu.Unlock()

	s.ctl.logger.Warn("async items failed", "session", s.id, "err", err)
	s.ctl.publish(events.ItemsFailed, Event{SessionID: s.id, Variant: s.variant, Err: err.Error()})
}
