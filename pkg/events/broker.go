package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultBufferSize = 64
	slowSubscriberTTL = 2 * time.Second
)

// Broker delivers every published event to every live subscriber. A
// subscription ends when its context is done or the broker shuts down.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]*subscription
	closed bool
}

type subscription struct {
	cancel context.CancelFunc
	// done is closed when the subscriber is removed.
	done chan struct{}
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]*subscription)}
}

// Subscribe returns a channel of events. The channel is closed when ctx is
// done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Event[T], defaultBufferSize)
	b.subs[ch] = &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		b.remove(ch)
	}()
	return ch
}

// remove must be called with the write lock held.
func (b *Broker[T]) remove(ch chan Event[T]) {
	sub, ok := b.subs[ch]
	if !ok {
		return
	}
	sub.cancel()
	close(sub.done)
	close(ch)
	delete(b.subs, ch)
}

// Publish never blocks the caller. Events for a subscriber whose buffer is
// full are retried in the background and dropped after a timeout.
func (b *Broker[T]) Publish(t Type, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		log.Debug("publish on closed broker", "type", t, "payload", fmt.Sprintf("%T", payload))
		return
	}

	ev := Event[T]{Type: t, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			go b.sendSlow(ch, ev)
		}
	}
}

// sendSlow waits without holding the lock, so unsubscribing and Shutdown
// are never held up by a slow subscriber.
func (b *Broker[T]) sendSlow(ch chan Event[T], ev Event[T]) {
	b.mu.RLock()
	sub, ok := b.subs[ch]
	b.mu.RUnlock()
	if !ok {
		return
	}

	// ch may be closed while the send below is pending.
	defer func() {
		if recover() != nil {
			log.Debug("subscriber left during send", "type", ev.Type)
		}
	}()

	timer := time.NewTimer(slowSubscriberTTL)
	defer timer.Stop()
	select {
	case ch <- ev:
	case <-sub.done:
	case <-timer.C:
		log.Warn("dropped event for slow subscriber", "type", ev.Type)
	}
}

// Shutdown closes every subscription. Later calls do nothing.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		b.remove(ch)
	}
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
