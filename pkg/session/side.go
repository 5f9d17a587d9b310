package session

import "github.com/bastiangx/cellcomplete/pkg/completion"

// afterType runs when text was typed at the end of a side popup. A single
// match is committed with the whole text. Otherwise, when the last
// character cannot continue any item, the token before it is committed and
// the character is replayed to the host.
func (s *Session) afterType(text string) {
	h := completion.HelperFor(s.supplier, completion.Params{EndRightTransform: s.params.EndRightTransform})

	if h.HasSingleMatch(text, s.ctl.Eager()) {
		s.CommitItem(h.Matches(text)[0], text)
		return
	}

	runes := []rune(text)
	last := len(runes) - 1
	if !h.IsBoundary(text, last) {
		return
	}
	prefix := string(runes[:last])
	if err := s.CommitItem(h.Matches(prefix)[0], prefix); err != nil {
		return
	}
	if s.ctl.typist == nil {
		s.ctl.logger.Debug("no typist, dropped trailing character", "session", s.id, "char", string(runes[last]))
		return
	}
	s.ctl.typist.KeyTyped(runes[last])
}
