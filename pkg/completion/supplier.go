package completion

import (
	"errors"
	"sync"

	"github.com/bastiangx/cellcomplete/pkg/async"
)

// Supplier is a source of completion items. Get returns what is available
// right away; GetAsync returns what has to be produced later.
type Supplier interface {
	Get(p Params) []Item
	GetAsync(p Params) *async.Future[[]Item]
}

// SupplierFunc adapts a synchronous function. Its async part resolves
// empty.
type SupplierFunc func(p Params) []Item

func (f SupplierFunc) Get(p Params) []Item { return f(p) }

func (f SupplierFunc) GetAsync(Params) *async.Future[[]Item] {
	return async.Resolved[[]Item](nil)
}

// AsyncFunc adapts an asynchronous function. Its sync part is empty.
type AsyncFunc func(p Params) *async.Future[[]Item]

func (f AsyncFunc) Get(Params) []Item { return nil }

func (f AsyncFunc) GetAsync(p Params) *async.Future[[]Item] { return f(p) }

// Static returns a supplier that always offers items.
func Static(items ...Item) Supplier {
	return SupplierFunc(func(Params) []Item {
		out := make([]Item, len(items))
		copy(out, items)
		return out
	})
}

// Composite concatenates suppliers in order.
func Composite(suppliers ...Supplier) Supplier {
	return composite(suppliers)
}

type composite []Supplier

func (c composite) Get(p Params) []Item {
	var out []Item
	for _, s := range c {
		out = append(out, s.Get(p)...)
	}
	return out
}

// GetAsync joins the async parts in supplier order. Failed parts are
// skipped; the joined future fails only when every part fails.
func (c composite) GetAsync(p Params) *async.Future[[]Item] {
	if len(c) == 0 {
		return async.Resolved[[]Item](nil)
	}
	out := async.NewFuture[[]Item]()
	parts := make([][]Item, len(c))
	errs := make([]error, len(c))
	var (
		mu        sync.Mutex
		remaining = len(c)
		succeeded int
	)
	settle := func(i int, items []Item, err error) {
		mu.Lock()
		parts[i], errs[i] = items, err
		if err == nil {
			succeeded++
		}
		remaining--
		done := remaining == 0
		mu.Unlock()
		if !done {
			return
		}
		if succeeded == 0 {
			out.Fail(errors.Join(errs...))
			return
		}
		var joined []Item
		for _, part := range parts {
			joined = append(joined, part...)
		}
		out.Resolve(joined)
	}
	for i, s := range c {
		f := s.GetAsync(p)
		f.OnSuccess(func(items []Item) { settle(i, items, nil) })
		f.OnFailure(func(err error) { settle(i, nil, err) })
	}
	return out
}

// Map applies fn to every item s offers, synchronous or not.
func Map(s Supplier, fn func(Item) Item) Supplier {
	return mapped{s, fn}
}

type mapped struct {
	src Supplier
	fn  func(Item) Item
}

func (m mapped) Get(p Params) []Item { return mapItems(m.src.Get(p), m.fn) }

func (m mapped) GetAsync(p Params) *async.Future[[]Item] {
	return async.Map(m.src.GetAsync(p), func(items []Item) []Item { return mapItems(items, m.fn) })
}

func mapItems(items []Item, fn func(Item) Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}
