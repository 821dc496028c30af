// Package memory is an in-memory provider. It implements every contract of
// package media over plain slices, raises change events synchronously and
// exposes knobs for availability and failures, which makes it the fake used
// across the merge engine's tests and the backend of the CLI fixtures.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// Collection is a slice backed media.Collection.
type Collection[T media.Item] struct {
	core media.CoreID

	mu              sync.RWMutex
	items           []T
	addAvailable    func(index int) bool
	removeAvailable func(index int) bool
	err             error

	fetches atomic.Int64
	adds    atomic.Int64
	removes atomic.Int64

	changed events.Feed[media.ItemsChanged[T]]
	counts  events.Feed[int]
}

var _ media.Collection[media.Track] = (*Collection[media.Track])(nil)

// NewCollection returns a collection owned by core holding items.
func NewCollection[T media.Item](core media.CoreID, items ...T) *Collection[T] {
	return &Collection[T]{
		core:  core,
		items: append([]T(nil), items...),
	}
}

// Core implements media.Collection.
func (c *Collection[T]) Core() media.CoreID {
	return c.core
}

// Count implements media.Collection.
func (c *Collection[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items implements media.Collection.
func (c *Collection[T]) Items(ctx context.Context, limit, offset int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.fetches.Add(1)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	if offset < 0 || limit <= 0 || offset >= len(c.items) {
		return nil, nil
	}
	end := min(offset+limit, len(c.items))
	return append([]T(nil), c.items[offset:end]...), nil
}

// IsAddAvailable implements media.Collection.
func (c *Collection[T]) IsAddAvailable(ctx context.Context, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index > len(c.items) {
		return false, nil
	}
	if c.addAvailable == nil {
		return true, nil
	}
	return c.addAvailable(index), nil
}

// IsRemoveAvailable implements media.Collection.
func (c *Collection[T]) IsRemoveAvailable(ctx context.Context, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.items) {
		return false, nil
	}
	if c.removeAvailable == nil {
		return true, nil
	}
	return c.removeAvailable(index), nil
}

// Add implements media.Collection.
func (c *Collection[T]) Add(ctx context.Context, item T, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	if index < 0 || index > len(c.items) {
		c.mu.Unlock()
		return errors.NewValidationError("index", index, "out of range")
	}
	c.items = insertAt(c.items, index, item)
	count := len(c.items)
	c.mu.Unlock()

	c.adds.Add(1)
	c.changed.Emit(media.ItemsChanged[T]{Added: []media.Indexed[T]{{Item: item, Index: index}}})
	c.counts.Emit(count)
	return nil
}

// Remove implements media.Collection.
func (c *Collection[T]) Remove(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	if index < 0 || index >= len(c.items) {
		c.mu.Unlock()
		return errors.NewValidationError("index", index, "out of range")
	}
	item := c.items[index]
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	count := len(c.items)
	c.mu.Unlock()

	c.removes.Add(1)
	c.changed.Emit(media.ItemsChanged[T]{Removed: []media.Indexed[T]{{Item: item, Index: index}}})
	c.counts.Emit(count)
	return nil
}

// OnItemsChanged implements media.Collection.
func (c *Collection[T]) OnItemsChanged(fn func(media.ItemsChanged[T])) events.Subscription {
	return c.changed.Subscribe(fn)
}

// OnCountChanged implements media.Collection.
func (c *Collection[T]) OnCountChanged(fn func(int)) events.Subscription {
	return c.counts.Subscribe(fn)
}

// Append adds items at the end and raises a single change.
func (c *Collection[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	start := len(c.items)
	c.items = append(c.items, items...)
	count := len(c.items)
	c.mu.Unlock()

	added := make([]media.Indexed[T], len(items))
	for i, item := range items {
		added[i] = media.Indexed[T]{Item: item, Index: start + i}
	}
	c.changed.Emit(media.ItemsChanged[T]{Added: added})
	c.counts.Emit(count)
}

// Snapshot returns a copy of the current items.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// SetAddAvailable installs the availability rule for Add. Nil allows every
// in-range index.
func (c *Collection[T]) SetAddAvailable(fn func(index int) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addAvailable = fn
}

// SetRemoveAvailable installs the availability rule for Remove.
func (c *Collection[T]) SetRemoveAvailable(fn func(index int) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeAvailable = fn
}

// SetError makes Items, Add and Remove fail with err until cleared with nil.
func (c *Collection[T]) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Fetches returns how many times Items was called.
func (c *Collection[T]) Fetches() int {
	return int(c.fetches.Load())
}

// Adds returns how many successful Add calls were made.
func (c *Collection[T]) Adds() int {
	return int(c.adds.Load())
}

// Removes returns how many successful Remove calls were made.
func (c *Collection[T]) Removes() int {
	return int(c.removes.Load())
}

func insertAt[T any](items []T, index int, item T) []T {
	var zero T
	items = append(items, zero)
	copy(items[index+1:], items[index:])
	items[index] = item
	return items
}
