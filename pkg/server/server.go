package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/cellcomplete/internal/memhost"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/config"
	"github.com/bastiangx/cellcomplete/pkg/events"
	"github.com/bastiangx/cellcomplete/pkg/session"
	"github.com/bastiangx/cellcomplete/pkg/suggest"
)

const maxPrefixLen = 60

// Server handles completion IPC against an in-memory document
type Server struct {
	doc        *memhost.Document
	slot       *memhost.Slot
	ctl        *session.Controller
	supplier   completion.Supplier
	completer  suggest.ICompleter
	broker     *events.Broker[session.Event]
	maxVisible int
	logger     *log.Logger

	mu       sync.Mutex
	pending  []string
	requests int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Session logs use it with a
// session prefix.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCompleter answers complete requests.
func WithCompleter(c suggest.ICompleter) Option {
	return func(s *Server) { s.completer = c }
}

// NewServer creates a server offering items from supplier. Committed
// items are written into the server's document.
func NewServer(supplier completion.Supplier, cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		doc:        memhost.NewDocument(""),
		slot:       &memhost.Slot{},
		broker:     events.NewBroker[session.Event](),
		maxVisible: cfg.Server.MaxVisible,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.supplier = completion.Map(supplier, func(it completion.Item) completion.Item {
		word := it.Text()
		return completion.Wrap{Item: it, OnComplete: func(typed string) { s.doc.Complete(typed, word) }}
	})

	row := max(cfg.Completion.RowHeight, 1)
	s.ctl = session.NewController(s.doc,
		session.WithStateSaver(s.doc),
		session.WithTypist(s.doc),
		session.WithKeyMap(cfg.Keys.KeyMap()),
		session.WithEager(cfg.Completion.Eager),
		session.WithDefaultPageHeight(cfg.Completion.DefaultPageHeight),
		session.WithPageMetrics(memhost.Metrics{Height: cfg.Completion.DefaultPageHeight * row, Row: row}),
		session.WithEvents(s),
		session.WithLogger(s.logger.WithPrefix("session")),
	)
	return s
}

// Events returns the broker publishing session lifecycle events.
func (s *Server) Events() *events.Broker[session.Event] { return s.broker }

// Controller returns the session controller.
func (s *Server) Controller() *session.Controller { return s.ctl }

// Publish records t for the response being built and forwards it to
// subscribers.
func (s *Server) Publish(t events.Type, ev session.Event) {
	s.mu.Lock()
	s.pending = append(s.pending, string(t))
	s.mu.Unlock()
	s.broker.Publish(t, ev)
}

// Start serves stdin and stdout until stdin is closed
func (s *Server) Start() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve decodes requests from r and writes one response per request to w.
// It returns nil once r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	s.logger.Debug("Starting Server.")
	dec := msgpack.NewDecoder(r)
	enc := msgpack.NewEncoder(w)

	if err := enc.Encode(Response{Status: "ready", State: session.Idle.String(), Selected: -1}); err != nil {
		return fmt.Errorf("writing ready frame: %w", err)
	}

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Client closed input")
				return nil
			}
			s.logger.Errorf("Decoding request: %v", err)
			_ = enc.Encode(Response{State: s.ctl.State().String(), Selected: -1, Error: "invalid request frame"})
			return fmt.Errorf("decoding request: %w", err)
		}

		if err := enc.Encode(s.Handle(req)); err != nil {
			s.logger.Errorf("Encoding response: %v", err)
			return fmt.Errorf("encoding response: %w", err)
		}
	}
}

// Handle applies req and describes the outcome.
func (s *Server) Handle(req Request) Response {
	start := time.Now()
	s.mu.Lock()
	s.requests++
	s.pending = nil
	s.mu.Unlock()

	resp := Response{ID: req.ID}
	if err := s.apply(req, &resp); err != nil {
		resp.Error = err.Error()
		s.logger.Debug("request failed", "id", req.ID, "op", req.Op, "err", err)
	}
	s.describe(&resp)
	resp.TimeTaken = time.Since(start).Microseconds()
	return resp
}

func (s *Server) apply(req Request, resp *Response) error {
	switch req.Op {
	case "activate":
		s.setIfGiven(req)
		_, err := s.ctl.Activate(s.supplier, completion.Params{Menu: true})
		return err
	case "trigger":
		s.setIfGiven(req)
		if _, ok := s.ctl.Trigger(s.supplier, completion.Params{Menu: true}); !ok {
			return errors.New("nothing to complete")
		}
		return nil
	case "side":
		s.setIfGiven(req)
		_, err := s.ctl.ActivateSidePopup(s.slot, s.supplier, req.EndRightTransform)
		return err
	case "type":
		s.doc.Type(req.Text)
		return nil
	case "set":
		caret := len([]rune(req.Text))
		if req.Caret != nil {
			caret = *req.Caret
		}
		s.doc.SetText(req.Text, caret)
		return nil
	case "key":
		ev, ok := session.ParseKey(req.Key)
		if !ok {
			return fmt.Errorf("unknown key %q", req.Key)
		}
		resp.Consumed = s.doc.Press(ev)
		return nil
	case "commit":
		active := s.ctl.Active()
		if active == nil {
			return session.ErrClosed
		}
		return active.Commit(req.Index)
	case "blur":
		s.doc.Blur()
		return nil
	case "focus":
		s.doc.Focus()
		return nil
	case "state":
		return nil
	case "complete":
		return s.complete(req, resp)
	}
	return fmt.Errorf("unknown op %q", req.Op)
}

func (s *Server) setIfGiven(req Request) {
	if req.Text == "" && req.Caret == nil {
		return
	}
	caret := len([]rune(req.Text))
	if req.Caret != nil {
		caret = *req.Caret
	}
	s.doc.SetText(req.Text, caret)
}

func (s *Server) complete(req Request, resp *Response) error {
	if s.completer == nil {
		return errors.New("completion is not available")
	}
	if req.Text == "" {
		return errors.New("missing prefix")
	}
	if len(req.Text) > maxPrefixLen {
		return fmt.Errorf("prefix exceeds maximum length of %d characters", maxPrefixLen)
	}

	limit := req.Limit
	if limit < 1 || limit > s.maxVisible {
		limit = s.maxVisible
	}

	suggestions := s.completer.Complete(req.Text, limit)
	resp.Suggestions = make([]CompletionSuggestion, len(suggestions))
	for i, sg := range suggestions {
		resp.Suggestions[i] = CompletionSuggestion{Word: sg.Word, Rank: uint16(i + 1)}
	}
	if len(suggestions) > 0 && suggestions[0].WasCorrected {
		resp.CorrectedPrefix = suggestions[0].CorrectedPrefix
	}
	return nil
}

func (s *Server) describe(resp *Response) {
	resp.State = session.Idle.String()
	resp.Selected = -1
	resp.Items = []string{}

	if active := s.ctl.Active(); active != nil {
		resp.Session = active.ID()
		resp.State = active.State().String()
		resp.Loading = active.Loading()
		for i, item := range active.VisibleItems() {
			if s.maxVisible > 0 && i >= s.maxVisible {
				break
			}
			resp.Items = append(resp.Items, item.Text())
		}
		if idx, ok := active.SelectedIndex(); ok {
			resp.Selected = idx
		}
	}

	resp.Document = s.doc.String()
	resp.Text = s.doc.Text()

	s.mu.Lock()
	resp.Events = append([]string(nil), s.pending...)
	s.mu.Unlock()
}

// Stats returns request and session statistics.
func (s *Server) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]int{
		"requests":    s.requests,
		"subscribers": s.broker.SubscriberCount(),
	}
	if s.completer != nil {
		for k, v := range s.completer.Stats() {
			stats[k] = v
		}
	}
	return stats
}
