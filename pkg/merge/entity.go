package merge

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/strix/pkg/equality"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// binding ties one nested collection map to the sources of its entity.
type binding[T media.Item] struct {
	add     func(context.Context, T) error
	remove  func(context.Context, T) error
	dispose func(context.Context) error
}

// entity is the source bookkeeping shared by every merged entity: the
// ordered source list, the preferred source subscription, the nested maps
// and disposal.
type entity[T media.Item] struct {
	id     string
	kind   media.Kind
	config *Config
	self   media.Item
	accept func(T) error

	mu        sync.RWMutex
	sources   []T
	preferred events.Subscription
	bindings  []binding[T]
	disposed  bool

	changed events.Feed[media.Change]
	scope   events.Scope

	disposeMu sync.Mutex
}

// init makes first the preferred source. accept checks the concrete shape
// of every source, first included.
func (e *entity[T]) init(self media.Item, config *Config, first T, accept func(T) error) error {
	if isNil(first) {
		return errors.NewValidationError("source", nil, "cannot be nil")
	}
	if config == nil {
		return errors.NewValidationError("config", nil, "cannot be nil")
	}
	if accept != nil {
		if err := accept(first); err != nil {
			return err
		}
	}
	e.id = uuid.NewString()
	e.kind = first.Kind()
	e.config = config
	e.self = self
	e.accept = accept
	e.sources = []T{first}
	e.subscribePreferred()
	return nil
}

// ID returns the merged entity id, stable for its lifetime.
func (e *entity[T]) ID() string { return e.id }

// Core implements media.Item.
func (e *entity[T]) Core() media.CoreID { return CoreID }

// Kind returns the kind shared by every source.
func (e *entity[T]) Kind() media.Kind { return e.kind }

// Config returns the merge configuration the entity was built with.
func (e *entity[T]) Config() *Config { return e.config }

// Sources returns the folded provider items, preferred first.
func (e *entity[T]) Sources() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.sources)
}

// SourceCores returns the core of every source, in source order.
func (e *entity[T]) SourceCores() []media.CoreID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]media.CoreID, len(e.sources))
	for i, s := range e.sources {
		out[i] = s.Core()
	}
	return out
}

// Preferred returns the source scalar fields are read from.
func (e *entity[T]) Preferred() T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sources[0]
}

// OnChanged registers fn for property changes. Changes of the preferred
// source are forwarded as raised. Item and count changes of nested
// collections are raised with the merged entity as item: PropItems carries
// the media.ItemsChanged of the collection, the count properties its new
// count.
func (e *entity[T]) OnChanged(fn func(media.Change)) events.Subscription {
	return e.changed.Subscribe(fn)
}

// AddSource folds item in. It must have the entity's kind and be equal to the
// preferred source. Sources are kept in core ranking order, so a source from
// a better ranked core becomes the preferred one.
func (e *entity[T]) AddSource(ctx context.Context, item T) error {
	return e.addSource(ctx, item, true)
}

// addSource implements AddSource. equal selects whether item must pass the
// equality check against the preferred source.
func (e *entity[T]) addSource(ctx context.Context, item T, equal bool) error {
	if isNil(item) {
		return errors.NewValidationError("source", nil, "cannot be nil")
	}
	if e.accept != nil {
		if err := e.accept(item); err != nil {
			return err
		}
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return errors.ErrDisposed
	}
	preferred := e.sources[0]
	if item.Kind() != e.kind || (equal && !equality.Equal(preferred, item)) {
		e.mu.Unlock()
		return errors.NewMergeError(e.kind.String(), nameOf(preferred), nameOf(item), nil)
	}
	for _, s := range e.sources {
		if s.Core() == item.Core() && s.ID() == item.ID() {
			e.mu.Unlock()
			return errors.NewAlreadyExistsError(e.kind.String()+" source", item.ID())
		}
	}
	i := e.insertAt(item.Core())
	e.sources = slices.Insert(e.sources, i, item)
	bindings := slices.Clone(e.bindings)
	e.mu.Unlock()

	if i == 0 {
		e.subscribePreferred()
	}

	var errs []error
	for _, b := range bindings {
		errs = append(errs, b.add(ctx, item))
	}
	return errors.Join(errs...)
}

// insertAt returns the index a source of core goes to: after every source
// ranked the same or better. Unranked cores go last. Callers hold e.mu.
func (e *entity[T]) insertAt(core media.CoreID) int {
	rank := func(id media.CoreID) int {
		if r, ok := e.config.Rank(id); ok {
			return r
		}
		return math.MaxInt
	}
	r := rank(core)
	for i, s := range e.sources {
		if rank(s.Core()) > r {
			return i
		}
	}
	return len(e.sources)
}

// RemoveSource detaches item. The last source cannot be removed; the owning
// collection drops the whole merged item instead.
func (e *entity[T]) RemoveSource(ctx context.Context, item T) error {
	if isNil(item) {
		return errors.NewValidationError("source", nil, "cannot be nil")
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return errors.ErrDisposed
	}
	i := slices.IndexFunc(e.sources, func(s T) bool {
		return s.Core() == item.Core() && s.ID() == item.ID()
	})
	if i < 0 {
		e.mu.Unlock()
		return errors.NewNotFoundError(e.kind.String()+" source", item.ID())
	}
	if len(e.sources) == 1 {
		e.mu.Unlock()
		return errors.NewValidationError("sources", item.ID(), "cannot remove the last source")
	}
	e.sources = slices.Delete(e.sources, i, i+1)
	bindings := slices.Clone(e.bindings)
	e.mu.Unlock()

	if i == 0 {
		e.subscribePreferred()
	}

	var errs []error
	for _, b := range bindings {
		errs = append(errs, b.remove(ctx, item))
	}
	return errors.Join(errs...)
}

// StartDownloadOperation is not supported on merged entities.
func (e *entity[T]) StartDownloadOperation(_ context.Context, op media.DownloadOperation) error {
	return errors.NewNotSupportedError("download operation "+string(op), e.kind.String())
}

// Disposed reports whether Dispose has run.
func (e *entity[T]) Disposed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disposed
}

// Dispose detaches every subscription, disposes the nested maps and then
// every source that holds resources, in parallel. A second call is a no-op.
func (e *entity[T]) Dispose(ctx context.Context) error {
	e.disposeMu.Lock()
	defer e.disposeMu.Unlock()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	e.disposed = true
	sources := slices.Clone(e.sources)
	preferred := e.preferred
	e.preferred = nil
	bindings := e.bindings
	e.mu.Unlock()

	if preferred != nil {
		preferred.Unsubscribe()
	}
	e.scope.Close()

	var errs []error
	for _, b := range bindings {
		errs = append(errs, b.dispose(ctx))
	}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, s := range sources {
		if d, ok := any(s).(media.Disposer); ok {
			p.Go(func(ctx context.Context) error {
				return d.Dispose(ctx)
			})
		}
	}
	errs = append(errs, p.Wait())

	e.changed.Clear()
	return errors.Join(errs...)
}

// subscribePreferred forwards the changes of the current preferred source.
func (e *entity[T]) subscribePreferred() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preferred != nil {
		e.preferred.Unsubscribe()
		e.preferred = nil
	}
	if e.disposed || len(e.sources) == 0 {
		return
	}
	if obs, ok := any(e.sources[0]).(media.Observable); ok {
		e.preferred = obs.OnChanged(func(change media.Change) {
			e.changed.Emit(change)
		})
	}
}

// emitCount raises a count change for prop with the entity as item.
func (e *entity[T]) emitCount(prop media.Property, count int) {
	e.changed.Emit(media.Change{Item: e.self, Property: prop, Value: count})
}

// bind attaches m to the entity: every current and future source contributes
// the collection returned by of, item changes are raised as PropItems, count
// changes as prop, and disposing the entity disposes m.
func bind[T media.Item, E media.Item, M Merged[E]](e *entity[T], m *CollectionMap[E, M], prop media.Property, of func(T) media.Collection[E]) *CollectionMap[E, M] {
	e.bindings = append(e.bindings, binding[T]{
		add: func(ctx context.Context, src T) error {
			if c := of(src); c != nil {
				return m.AddSource(ctx, c)
			}
			return nil
		},
		remove: func(ctx context.Context, src T) error {
			if c := of(src); c != nil {
				return m.RemoveSource(ctx, c)
			}
			return nil
		},
		dispose: m.Dispose,
	})
	e.scope.Add(m.OnItemsChanged(func(change media.ItemsChanged[E]) {
		e.changed.Emit(media.Change{Item: e.self, Property: media.PropItems, Value: change})
	}))
	e.scope.Add(m.OnCountChanged(func(n int) {
		e.emitCount(prop, n)
	}))
	ctx := context.Background()
	for _, src := range e.Sources() {
		c := of(src)
		if c == nil {
			continue
		}
		if err := m.AddSource(ctx, c); err != nil {
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("collection", m.name).
				Str("core_id", src.Core().String()).
				Msg("Failed to attach nested collection")
		}
	}
	return m
}

// route resolves target to its source from core. Merged targets are searched
// through their sources; provider targets must belong to core themselves.
func route[E media.Item](core media.CoreID, target E) (E, error) {
	var zero E
	if isNil(target) {
		return zero, errors.NewValidationError("target", nil, "cannot be nil")
	}
	candidates := []E{target}
	if m, ok := any(target).(interface{ Sources() []E }); ok {
		candidates = m.Sources()
	}
	for _, c := range candidates {
		if c.Core() == core {
			return c, nil
		}
	}
	return zero, errors.NewValidationError("target", target.ID(), fmt.Sprintf("has no source from core %s", core))
}

// fanout runs fn for every source in parallel.
func fanout[T media.Item](ctx context.Context, sources []T, fn func(context.Context, T) error) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, s := range sources {
		p.Go(func(ctx context.Context) error {
			return fn(ctx, s)
		})
	}
	return p.Wait()
}

func nameOf(item media.Item) string {
	if n, ok := item.(interface{ Name() string }); ok {
		return n.Name()
	}
	return item.ID()
}

func isNil(item any) bool {
	if item == nil {
		return true
	}
	v := reflect.ValueOf(item)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return v.IsNil()
	}
	return false
}
