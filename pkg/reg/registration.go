// Package reg models releasable subscriptions to host events.
package reg

import "sync"

// Registration is a handle to something that must be released. Remove is
// safe to call more than once; only the first call has an effect.
type Registration interface {
	Remove()
}

type funcRegistration struct {
	once sync.Once
	fn   func()
}

// Func returns a Registration that runs fn on the first Remove.
func Func(fn func()) Registration {
	return &funcRegistration{fn: fn}
}

func (r *funcRegistration) Remove() {
	r.once.Do(func() {
		if r.fn != nil {
			r.fn()
		}
	})
}

// Empty returns a Registration with nothing to release.
func Empty() Registration {
	return Func(nil)
}

// Composite releases its children in reverse order of addition. Children
// added after the composite was removed are released immediately.
type Composite struct {
	mu       sync.Mutex
	children []Registration
	removed  bool
}

// NewComposite returns a Composite holding regs.
func NewComposite(regs ...Registration) *Composite {
	c := &Composite{}
	for _, r := range regs {
		c.Add(r)
	}
	return c
}

// Add appends r and returns the composite for chaining.
func (c *Composite) Add(r Registration) *Composite {
	if r == nil {
		return c
	}
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		r.Remove()
		return c
	}
	c.children = append(c.children, r)
	c.mu.Unlock()
	return c
}

// Remove releases every child exactly once.
func (c *Composite) Remove() {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.removed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Remove()
	}
}

// Removed reports whether Remove has been called.
func (c *Composite) Removed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed
}
