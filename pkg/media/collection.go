package media

import (
	"context"

	"github.com/agentstation/strix/pkg/events"
)

// Indexed pairs an item with its position in a collection.
type Indexed[T any] struct {
	Item  T
	Index int
}

// ItemsChanged reports items added to and removed from a collection. Indices
// of removed items refer to positions before the change; indices of added
// items refer to positions after it.
type ItemsChanged[T any] struct {
	Added   []Indexed[T]
	Removed []Indexed[T]
}

// Empty reports whether the change carries no items.
func (c ItemsChanged[T]) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Collection is the capability surface of one nested collection of one
// provider item, for example an album's tracks. It is pull based: Count is
// the current known size and Items pages through it.
type Collection[T Item] interface {
	// Core returns the provider that owns the collection.
	Core() CoreID

	// Count returns the current number of items.
	Count() int

	// Items returns at most limit items starting at offset.
	Items(ctx context.Context, limit, offset int) ([]T, error)

	// IsAddAvailable reports whether Add may be called at index.
	IsAddAvailable(ctx context.Context, index int) (bool, error)

	// IsRemoveAvailable reports whether Remove may be called at index.
	IsRemoveAvailable(ctx context.Context, index int) (bool, error)

	// Add inserts item at index.
	Add(ctx context.Context, item T, index int) error

	// Remove deletes the item at index.
	Remove(ctx context.Context, index int) error

	// OnItemsChanged registers fn for item level changes.
	OnItemsChanged(fn func(ItemsChanged[T])) events.Subscription

	// OnCountChanged registers fn for count changes.
	OnCountChanged(fn func(int)) events.Subscription
}
