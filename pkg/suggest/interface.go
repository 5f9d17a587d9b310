// Package suggest turns a vocabulary into completion items: keywords,
// identifiers ranked by frequency, recently committed words and typo
// corrections.
package suggest

// ICompleter defines the interface for word completion engines
type ICompleter interface {
	// Complete returns suggestions for a given prefix with a limit
	Complete(prefix string, limit int) []Suggestion

	// AddWord adds a word with its frequency to the completer
	AddWord(word string, frequency int)

	// Stats returns statistics about the loaded vocabulary
	Stats() map[string]int
}

// Suggestion is a ranked word offered for a prefix. When the prefix had
// no completions of its own, the suggestion completes a corrected prefix.
type Suggestion struct {
	Word            string
	Frequency       int
	WasCorrected    bool   `json:",omitempty" msgpack:",omitempty"`
	OriginalPrefix  string `json:",omitempty" msgpack:",omitempty"`
	CorrectedPrefix string `json:",omitempty" msgpack:",omitempty"`
}
