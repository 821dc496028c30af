// Package merge folds equivalent provider items into merged entities and
// keeps a ranked, paginated view over the union of every provider's nested
// collections.
//
// A CollectionMap owns one nested collection (an album's tracks, a library's
// artists) across every source attached to its parent merged entity. Merged
// entities wrap one or more equal provider items, answer scalar reads from
// their preferred source and route writes back to the providers.
package merge

import (
	"context"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
)

// CoreID is reported by every merged entity and collection map.
const CoreID media.CoreID = "strix"

// Merged is implemented by every merged entity. T is the element type of
// the collections the entity appears in.
type Merged[T media.Item] interface {
	media.Item

	// Sources returns the provider items folded into the entity, preferred
	// source first.
	Sources() []T

	// AddSource folds another provider item in. The item must be equal to
	// the entity under the equality policy.
	AddSource(ctx context.Context, item T) error

	// RemoveSource detaches a provider item.
	RemoveSource(ctx context.Context, item T) error

	// Dispose releases the entity and its sources. It is idempotent.
	Dispose(ctx context.Context) error
}

// Dispatch maps a provider item kind to the constructor of its merged
// counterpart. Kinds missing from the table fail with
// errors.ErrNotImplemented.
type Dispatch[T media.Item, M Merged[T]] map[media.Kind]func(item T) (M, error)

// Supports reports whether kind has a merged counterpart.
func (d Dispatch[T, M]) Supports(kind media.Kind) bool {
	_, ok := d[kind]
	return ok
}

// Wrap creates the merged entity for item.
func (d Dispatch[T, M]) Wrap(item T) (M, error) {
	fn, ok := d[item.Kind()]
	if !ok {
		var zero M
		return zero, errors.NewNotImplementedError("merge", item.Kind().String())
	}
	return fn(item)
}

// asItem returns m as the collection element type. Every merged entity
// implements the media interface of the collections it is listed in.
func asItem[T media.Item, M Merged[T]](m M) T {
	return any(m).(T)
}
