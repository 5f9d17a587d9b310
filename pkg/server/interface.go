/*
Package server implements msgpack IPC for completion sessions.

The server owns an in-memory document and a session controller. Clients
edit the document and drive completion through request frames on stdin;
each request is answered with one response frame on stdout describing the
session and the document after the request was applied.

# IPC

Frames are consecutive msgpack maps with no extra framing. Every request
carries an ID and an op:

	{"id": "1", "op": "set", "text": "co"}
	{"id": "2", "op": "activate"}
	{"id": "3", "op": "type", "text": "u"}
	{"id": "4", "op": "key", "key": "down"}
	{"id": "5", "op": "key", "key": "enter"}

The response echoes the session and the document:

	{"id": "2", "session": "6f1c...", "state": "ready", "loading": false,
	 "items": ["column", "count"], "sel": 0, "doc": "co", "text": "co",
	 "ev": ["activated", "items_arrived"], "t": 87}

Items delivered asynchronously show up in later responses; poll with the
state op while loading is true.

# Ops

activate opens a completion menu at the caret, trigger opens one only when
items are available right away, and side opens a side transform popup.
type presses characters, key presses a named key (esc, enter, up, down,
pgup, pgdown, tab, backspace), set replaces the edited text and caret,
commit commits a visible item by index, blur and focus move focus, and
state reports without changing anything. complete returns ranked
suggestions for a prefix without opening a session.
*/
package server

// Request is one frame from the client.
type Request struct {
	ID                string `msgpack:"id"`
	Op                string `msgpack:"op"`
	Text              string `msgpack:"text,omitempty"`
	Caret             *int   `msgpack:"caret,omitempty"`
	Key               string `msgpack:"key,omitempty"`
	Index             int    `msgpack:"index,omitempty"`
	Limit             int    `msgpack:"l,omitempty"`
	EndRightTransform bool   `msgpack:"ert,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// Response is one frame to the client.
type Response struct {
	ID       string   `msgpack:"id"`
	Status   string   `msgpack:"status,omitempty"`
	Session  string   `msgpack:"session,omitempty"`
	State    string   `msgpack:"state"`
	Loading  bool     `msgpack:"loading"`
	Items    []string `msgpack:"items"`
	Selected int      `msgpack:"sel"`
	Document string   `msgpack:"doc"`
	Text     string   `msgpack:"text"`
	Consumed bool     `msgpack:"consumed,omitempty"`
	Events   []string `msgpack:"ev,omitempty"`

	Suggestions     []CompletionSuggestion `msgpack:"s,omitempty"`
	CorrectedPrefix string                 `msgpack:"cp,omitempty"`

	TimeTaken int64  `msgpack:"t"`
	Error     string `msgpack:"error,omitempty"`
}
