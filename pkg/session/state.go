package session

// State is the lifecycle position of a session.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Selecting
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Selecting:
		return "selecting"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Committed || s == Cancelled
}

// Variant distinguishes the completion menu from the side transform popup.
type Variant int

const (
	Menu Variant = iota
	SidePopup
)

func (v Variant) String() string {
	if v == SidePopup {
		return "side"
	}
	return "menu"
}

// CancelReason is why a session was cancelled.
type CancelReason string

const (
	Escape    CancelReason = "escape"
	FocusLost CancelReason = "focusLost"
	EmptyText CancelReason = "emptyText"
	// Detached is used when the host tears the session down itself.
	Detached CancelReason = "detached"
)

// Direction of navigation in the visible list.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// Event is the payload published on session lifecycle changes.
type Event struct {
	SessionID string
	Variant   Variant
	Visible   int
	Reason    CancelReason
	Item      string
	Text      string
	Err       string
}
