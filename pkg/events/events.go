// Package events fans session lifecycle notifications out to subscribers.
package events

import "context"

// Type names a lifecycle step.
type Type string

const (
	Activated    Type = "activated"
	ItemsArrived Type = "items_arrived"
	ItemsFailed  Type = "items_failed"
	Committed    Type = "committed"
	Cancelled    Type = "cancelled"
)

type Event[T any] struct {
	Type    Type
	Payload T
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(t Type, payload T)
}
