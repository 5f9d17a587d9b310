// Package completion defines completion candidates, their sources and the
// matching rules that decide which candidates are offered for a given text.
package completion

// Item is a single completion candidate. Matching semantics are owned by
// the item; the helpers in this package only aggregate the answers.
type Item interface {
	// Text is the display text.
	Text() string
	// IsMatch reports whether the item accepts text as typed so far.
	IsMatch(text string) bool
	// IsMatchPrefix reports whether prefix could still lead to this item.
	IsMatchPrefix(prefix string) bool
	// IsStrictMatchPrefix reports whether the item extends strictly beyond prefix.
	IsStrictMatchPrefix(prefix string) bool
	// IsLowPriority marks fallback candidates.
	IsLowPriority() bool
	// Complete prepares the commit of this item for text. Nothing happens
	// until the returned Action is run.
	Complete(text string) Action
}

// Action is a deferred side effect produced by Item.Complete.
type Action func()

// Noop does nothing.
var Noop Action = func() {}

// Run executes the action. A nil action is a no-op.
func (a Action) Run() {
	if a != nil {
		a()
	}
}

// Sequence returns an action running actions in order.
func Sequence(actions ...Action) Action {
	return func() {
		for _, a := range actions {
			a.Run()
		}
	}
}

// Params describe how completion was requested.
type Params struct {
	// Menu is set when completion was invoked as a menu.
	Menu bool
	// EndRightTransform is set for side popups opened at the end of a right
	// transform.
	EndRightTransform bool
	// Prefix is the text before the caret at activation. Suppliers may use
	// it to narrow what they return.
	Prefix string
}

// EmptyParams requests completion with no hints.
var EmptyParams = Params{}
