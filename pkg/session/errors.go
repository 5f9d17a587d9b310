package session

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyActive   = errors.New("completion session already active")
	ErrNotFocused      = errors.New("completion target is not focused")
	ErrSlotOccupied    = errors.New("popup slot is occupied")
	ErrNoSlot          = errors.New("side popup needs a popup slot")
	ErrNothingToCommit = errors.New("nothing selected to commit")
	ErrNotVisible      = errors.New("item is not visible")
	ErrClosed          = errors.New("completion session is closed")
)

// Reason is why an activation was rejected.
type Reason string

const (
	AlreadyActive Reason = "alreadyActive"
	NotFocused    Reason = "notFocused"
	SlotOccupied  Reason = "slotOccupied"
)

// RejectedError is returned by activation. It unwraps to the matching
// sentinel error.
type RejectedError struct {
	Reason Reason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("activation rejected: %s", e.Reason)
}

func (e *RejectedError) Unwrap() error {
	switch e.Reason {
	case AlreadyActive:
		return ErrAlreadyActive
	case NotFocused:
		return ErrNotFocused
	case SlotOccupied:
		return ErrSlotOccupied
	}
	return nil
}

func rejected(r Reason) error {
	return &RejectedError{Reason: r}
}
