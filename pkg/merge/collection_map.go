package merge

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// slotState tracks whether a sorted map position has been fetched.
type slotState int

const (
	unresolved slotState = iota
	resolved
)

// slot holds the provider item of one position once it has been fetched.
type slot[T media.Item] struct {
	state slotState
	item  T
}

// mappedData is one position of one provider collection.
type mappedData[T media.Item, M Merged[T]] struct {
	source *mappedSource[T, M]
	index  int
	pos    int
	slot   slot[T]
	owner  *mergedEntry[T, M]
}

// mappedSource is one attached provider collection.
type mappedSource[T media.Item, M Merged[T]] struct {
	collection media.Collection[T]
	subs       events.Scope
	entries    []*mappedData[T, M]
	ranked     bool
	detached   bool
	generation uint64
}

// mergedEntry groups the positions folded into one merged item. lead is the
// entry the item was created from and anchor its sorted position. Entries
// folded in later do not move the anchor, so a window keeps returning the
// same items until the sources or the ranking change.
type mergedEntry[T media.Item, M Merged[T]] struct {
	merged  M
	key     uint64
	keyed   bool
	entries []*mappedData[T, M]
	lead    *mappedData[T, M]
	anchor  int
}

// CollectionMap is the ranked, paginated, folding view of one nested
// collection across every attached provider collection. It implements
// media.Collection so merged entities can expose it directly; Page returns
// the merged entities with their concrete type.
//
// State is guarded by a per-instance mutex. Provider calls run outside of
// it and events are raised after it is released, on the calling goroutine.
type CollectionMap[T media.Item, M Merged[T]] struct {
	name     string
	config   *Config
	dispatch Dispatch[T, M]

	initMu      sync.Mutex
	initialized atomic.Bool
	scope       events.Scope

	mu           sync.Mutex
	sources      []*mappedSource[T, M]
	sorted       []*mappedData[T, M]
	merged       []*mergedEntry[T, M]
	buckets      map[uint64][]*mergedEntry[T, M]
	built        bool
	materialized int
	published    int
	disposed     bool

	disposeMu sync.Mutex

	itemsChanged events.Feed[media.ItemsChanged[T]]
	countChanged events.Feed[int]
}

var _ media.Collection[media.Track] = (*CollectionMap[media.Track, *MergedTrack])(nil)

// NewCollectionMap returns an empty map named name. The name only shows up
// in logs and errors.
func NewCollectionMap[T media.Item, M Merged[T]](name string, config *Config, dispatch Dispatch[T, M]) *CollectionMap[T, M] {
	return &CollectionMap[T, M]{
		name:     name,
		config:   config,
		dispatch: dispatch,
		buckets:  make(map[uint64][]*mergedEntry[T, M]),
	}
}

// Init subscribes to configuration changes. It fails while the core ranking
// is empty and may then be retried; once it succeeds further calls return
// nil. Concurrent callers wait for the same attempt.
func (c *CollectionMap[T, M]) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized.Load() {
		return nil
	}
	if len(c.config.Ranking()) == 0 {
		return errors.NewValidationError("ranking", nil, "core ranking cannot be empty")
	}

	c.scope.Add(c.config.OnRankingChanged(func([]media.CoreID) {
		c.reconfigure()
	}))
	c.scope.Add(c.config.OnSortModeChanged(func(SortMode) {
		c.reconfigure()
	}))
	c.initialized.Store(true)

	logging.FromContext(ctx).Debug().
		Str("collection", c.name).
		Msg("Initialized collection map")
	return nil
}

// Core implements media.Collection.
func (c *CollectionMap[T, M]) Core() media.CoreID {
	return CoreID
}

// Count returns the length of the sorted map: the summed counts of every
// ranked source. Folding is not reflected until items are materialized, so
// the value is an upper bound of the merged item count.
func (c *CollectionMap[T, M]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return 0
	}
	c.ensureBuilt(context.Background())
	return len(c.sorted)
}

// Len returns the number of merged items materialized so far.
func (c *CollectionMap[T, M]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.merged)
}

// Collections returns the attached provider collections in attach order.
func (c *CollectionMap[T, M]) Collections() []media.Collection[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]media.Collection[T], len(c.sources))
	for i, s := range c.sources {
		out[i] = s.collection
	}
	return out
}

// Page returns the merged items anchored in the sorted map window
// [offset, offset+limit). Every source touched by the window is fetched at
// most once, in rank order, starting at its first unresolved position in the
// window. An offset at or past the end yields an empty page.
func (c *CollectionMap[T, M]) Page(ctx context.Context, limit, offset int) ([]M, error) {
	if limit < 0 || offset < 0 {
		return nil, errors.NewValidationError("window", [2]int{limit, offset}, "limit and offset cannot be negative")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if mode := c.config.SortMode(); mode != SortRanked {
		return nil, errors.NewNotImplementedError("pagination", mode.String())
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, errors.ErrDisposed
	}
	c.ensureBuilt(ctx)
	n := len(c.sorted)
	if offset >= n || limit == 0 {
		c.mu.Unlock()
		return nil, nil
	}
	limit = min(limit, n-offset)
	c.materialized = max(c.materialized, offset+limit)
	plan := c.fetchPlan(offset, limit)
	c.mu.Unlock()

	p := &pending[T, M]{}
	if err := c.resolve(ctx, plan, p); err != nil {
		return nil, err
	}

	c.mu.Lock()
	var out []M
	for _, g := range c.merged {
		if g.anchor >= offset && g.anchor < offset+limit {
			out = append(out, g.merged)
		}
	}
	c.publishCount(p)
	c.mu.Unlock()

	c.flush(ctx, p)
	return out, nil
}

// Items implements media.Collection over Page.
func (c *CollectionMap[T, M]) Items(ctx context.Context, limit, offset int) ([]T, error) {
	page, err := c.Page(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(page))
	for i, m := range page {
		out[i] = asItem[T](m)
	}
	return out, nil
}

// All iterates every merged item, fetching pageSize sorted positions at a
// time. Iteration stops at the first error, which is yielded once.
func (c *CollectionMap[T, M]) All(ctx context.Context, pageSize int) iter.Seq2[M, error] {
	return func(yield func(M, error) bool) {
		if pageSize <= 0 {
			pageSize = 50
		}
		for offset := 0; offset < c.Count(); offset += pageSize {
			page, err := c.Page(ctx, pageSize, offset)
			if err != nil {
				var zero M
				yield(zero, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
		}
	}
}

// OnItemsChanged implements media.Collection. Indices are merged map
// positions.
func (c *CollectionMap[T, M]) OnItemsChanged(fn func(media.ItemsChanged[T])) events.Subscription {
	return c.itemsChanged.Subscribe(fn)
}

// OnCountChanged implements media.Collection.
func (c *CollectionMap[T, M]) OnCountChanged(fn func(int)) events.Subscription {
	return c.countChanged.Subscribe(fn)
}

// AddSource attaches a provider collection and rebuilds the view.
func (c *CollectionMap[T, M]) AddSource(ctx context.Context, collection media.Collection[T]) error {
	if isNil(collection) {
		return errors.NewValidationError("collection", nil, "cannot be nil")
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return errors.ErrDisposed
	}
	for _, s := range c.sources {
		if s.collection == collection {
			c.mu.Unlock()
			return errors.NewAlreadyExistsError(c.name+" source", collection.Core().String())
		}
	}
	s := &mappedSource[T, M]{collection: collection}
	c.sources = append(c.sources, s)
	s.subs.Add(collection.OnItemsChanged(func(change media.ItemsChanged[T]) {
		c.onItemsChanged(s, change)
	}))
	s.subs.Add(collection.OnCountChanged(func(count int) {
		c.onCountChanged(s, count)
	}))
	c.mu.Unlock()

	return c.rebuild(ctx, nil)
}

// RemoveSource detaches a provider collection and rebuilds the view. Merged
// items left without entries are removed.
func (c *CollectionMap[T, M]) RemoveSource(ctx context.Context, collection media.Collection[T]) error {
	c.mu.Lock()
	i := slices.IndexFunc(c.sources, func(s *mappedSource[T, M]) bool {
		return s.collection == collection
	})
	if i < 0 {
		c.mu.Unlock()
		core := "<nil>"
		if collection != nil {
			core = collection.Core().String()
		}
		return errors.NewNotFoundError(c.name+" source", core)
	}
	s := c.sources[i]
	c.mu.Unlock()

	return c.rebuild(ctx, func(p *pending[T, M]) {
		s.detached = true
		s.subs.Close()
		c.sources = slices.DeleteFunc(c.sources, func(o *mappedSource[T, M]) bool { return o == s })
		c.dropAll(s, p)
	})
}

// Insert adds item at the merged index. A draft implementing
// media.InitialData is offered to every targeted source that accepts an add
// at that position. Otherwise each source of the item is added once to the
// attached collection of the same core.
func (c *CollectionMap[T, M]) Insert(ctx context.Context, item T, index int) error {
	if any(item) == nil {
		return errors.NewValidationError("item", nil, "cannot be nil")
	}
	if index < 0 {
		return errors.NewValidationError("index", index, "cannot be negative")
	}

	if data, ok := any(item).(media.InitialData); ok {
		for _, t := range c.targets(index) {
			if !media.Targets(data, t.collection.Core()) {
				continue
			}
			ok, err := t.collection.IsAddAvailable(ctx, t.index)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := t.collection.Add(ctx, item, t.index); err != nil {
				return err
			}
		}
		return nil
	}

	sources := []T{item}
	if m, ok := any(item).(interface{ Sources() []T }); ok {
		sources = m.Sources()
	}

	done := make(map[media.Collection[T]]bool)
	targets := c.targets(index)
	for _, src := range sources {
		for _, t := range targets {
			if done[t.collection] || t.collection.Core() != src.Core() {
				continue
			}
			done[t.collection] = true
			if err := t.collection.Add(ctx, src, t.index); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// Add implements media.Collection.
func (c *CollectionMap[T, M]) Add(ctx context.Context, item T, index int) error {
	return c.Insert(ctx, item, index)
}

// RemoveAt removes the merged item at index from every contributing source
// that allows it. Sources that refuse are skipped.
func (c *CollectionMap[T, M]) RemoveAt(ctx context.Context, index int) error {
	entries, err := c.entriesAt(index)
	if err != nil {
		return err
	}

	// Remove from the back so earlier indices of the same source stay valid.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].index > entries[j].index })
	for _, e := range entries {
		ok, err := e.collection.IsRemoveAvailable(ctx, e.index)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := e.collection.Remove(ctx, e.index); err != nil {
			return err
		}
	}
	return nil
}

// Remove implements media.Collection.
func (c *CollectionMap[T, M]) Remove(ctx context.Context, index int) error {
	return c.RemoveAt(ctx, index)
}

// IsAddAvailable reports whether any attached source accepts an add at the
// merged index. Sources are asked in parallel.
func (c *CollectionMap[T, M]) IsAddAvailable(ctx context.Context, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}
	targets := c.targets(index)
	return anyAvailable(ctx, targets, func(ctx context.Context, t target[T]) (bool, error) {
		return t.collection.IsAddAvailable(ctx, t.index)
	})
}

// IsRemoveAvailable reports whether any source contributing to the merged
// item at index accepts its removal. Sources are asked in parallel.
func (c *CollectionMap[T, M]) IsRemoveAvailable(ctx context.Context, index int) (bool, error) {
	entries, err := c.entriesAt(index)
	if err != nil {
		return false, nil
	}
	return anyAvailable(ctx, entries, func(ctx context.Context, t target[T]) (bool, error) {
		return t.collection.IsRemoveAvailable(ctx, t.index)
	})
}

// Dispose detaches every provider subscription, disposes the merged items and
// clears both maps. A second call is a no-op.
func (c *CollectionMap[T, M]) Dispose(ctx context.Context) error {
	c.disposeMu.Lock()
	defer c.disposeMu.Unlock()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	sources, groups := c.sources, c.merged
	for _, s := range sources {
		s.detached = true
	}
	c.sources, c.sorted, c.merged = nil, nil, nil
	c.buckets = make(map[uint64][]*mergedEntry[T, M])
	c.mu.Unlock()

	c.scope.Close()
	for _, s := range sources {
		s.subs.Close()
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, g := range groups {
		p.Go(func(ctx context.Context) error {
			return g.merged.Dispose(ctx)
		})
	}
	err := p.Wait()

	c.itemsChanged.Clear()
	c.countChanged.Clear()

	logging.FromContext(ctx).Debug().
		Str("collection", c.name).
		Int("merged_items", len(groups)).
		Msg("Disposed collection map")
	return err
}

// target is a provider collection and the local index an operation on a
// merged index maps to.
type target[T media.Item] struct {
	collection media.Collection[T]
	index      int
}

// targets maps a merged index to a local index in every attached source: the
// position of the first entry of that source at or after the merged index,
// or the end of the source.
func (c *CollectionMap[T, M]) targets(index int) []target[T] {
	c.mu.Lock()
	local := make(map[*mappedSource[T, M]]int, len(c.sources))
	for i := max(index, 0); i < len(c.merged); i++ {
		for _, e := range c.merged[i].entries {
			if _, ok := local[e.source]; !ok {
				local[e.source] = e.index
			}
		}
		if len(local) == len(c.sources) {
			break
		}
	}
	sources := slices.Clone(c.sources)
	c.mu.Unlock()

	out := make([]target[T], 0, len(sources))
	for _, s := range sources {
		i, ok := local[s]
		if !ok {
			i = s.collection.Count()
		}
		out = append(out, target[T]{collection: s.collection, index: i})
	}
	return out
}

// entriesAt returns the contributing positions of the merged item at index.
func (c *CollectionMap[T, M]) entriesAt(index int) ([]target[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.merged) {
		return nil, errors.NewValidationError("index", index, "no merged item at this position")
	}
	entries := c.merged[index].entries
	out := make([]target[T], len(entries))
	for i, e := range entries {
		out[i] = target[T]{collection: e.source.collection, index: e.index}
	}
	return out, nil
}

// anyAvailable runs check for every target in parallel and reports whether
// any of them answered true. Errors only surface when no target did.
func anyAvailable[T media.Item](ctx context.Context, targets []target[T], check func(context.Context, target[T]) (bool, error)) (bool, error) {
	if len(targets) == 0 {
		return false, nil
	}
	p := pool.NewWithResults[bool]().WithContext(ctx)
	for _, t := range targets {
		p.Go(func(ctx context.Context) (bool, error) {
			return check(ctx, t)
		})
	}
	results, err := p.Wait()
	if slices.Contains(results, true) {
		return true, nil
	}
	return false, err
}
