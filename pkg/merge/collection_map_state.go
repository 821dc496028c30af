package merge

import (
	"context"
	"slices"
	"sort"

	"github.com/agentstation/strix/pkg/equality"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// sourceOp is a merged entity membership change applied after unlock.
type sourceOp[T media.Item, M Merged[T]] struct {
	merged M
	item   T
}

// pending collects the side effects of one state change. They run in flush,
// after the map mutex is released.
type pending[T media.Item, M Merged[T]] struct {
	attach       []sourceOp[T, M]
	detach       []sourceOp[T, M]
	dispose      []M
	change       media.ItemsChanged[T]
	count        int
	countChanged bool
}

// fetchTask is one provider page request planned under the lock.
type fetchTask[T media.Item, M Merged[T]] struct {
	source     *mappedSource[T, M]
	start      int
	count      int
	generation uint64
}

// resolution pairs a placeholder with the provider item fetched for it.
type resolution[T media.Item, M Merged[T]] struct {
	entry *mappedData[T, M]
	item  T
}

// ensureBuilt lays out the sorted map on first use. Until Init succeeds the
// layout is refreshed on every call, since ranking changes are not observed
// yet.
func (c *CollectionMap[T, M]) ensureBuilt(ctx context.Context) {
	if c.built && c.initialized.Load() {
		return
	}
	c.layout(ctx, &pending[T, M]{})
	if !c.built {
		c.published = len(c.sorted)
	}
	c.built = true
}

// layout gives ranked sources their placeholders and strips sources that
// left the ranking, then reindexes.
func (c *CollectionMap[T, M]) layout(ctx context.Context, p *pending[T, M]) {
	ranking := c.config.Ranking()
	for _, s := range c.sources {
		want := slices.Contains(ranking, s.collection.Core())
		switch {
		case want && !s.ranked:
			n := s.collection.Count()
			s.entries = make([]*mappedData[T, M], n)
			for i := range s.entries {
				s.entries[i] = &mappedData[T, M]{source: s, index: i}
			}
			s.ranked = true
			s.generation++
		case !want && s.ranked:
			c.dropAll(s, p)
			s.ranked = false
		case !want:
			logging.FromContext(ctx).Debug().
				Str("collection", c.name).
				Str("core_id", s.collection.Core().String()).
				Msg("Skipping source missing from core ranking")
		}
	}
	// Re-anchor every merged item on its best ranked entry. Callers diff the
	// merged map afterwards, so moves are reported.
	for _, g := range c.merged {
		g.lead = nil
	}
	c.reindex()
}

// rankedOrder returns the ranked sources in ranking order. Sources of the
// same core keep their attach order.
func (c *CollectionMap[T, M]) rankedOrder() []*mappedSource[T, M] {
	var out []*mappedSource[T, M]
	for _, id := range c.config.Ranking() {
		for _, s := range c.sources {
			if s.ranked && s.collection.Core() == id {
				out = append(out, s)
			}
		}
	}
	return out
}

// reindex rebuilds the sorted map from the per-source entries, refreshes
// every anchor and orders the merged map by anchor. A merged item whose lead
// entry is gone is led by its lowest positioned entry.
func (c *CollectionMap[T, M]) reindex() {
	for _, s := range c.sources {
		for i, e := range s.entries {
			e.index = i
			e.pos = -1
		}
	}

	sorted := make([]*mappedData[T, M], 0, len(c.sorted))
	for _, s := range c.rankedOrder() {
		for _, e := range s.entries {
			e.pos = len(sorted)
			sorted = append(sorted, e)
		}
	}
	c.sorted = sorted

	for _, g := range c.merged {
		if g.lead == nil || g.lead.owner != g || g.lead.pos < 0 {
			g.lead = nil
			for _, e := range g.entries {
				if e.pos >= 0 && (g.lead == nil || e.pos < g.lead.pos) {
					g.lead = e
				}
			}
		}
		g.anchor = int(^uint(0) >> 1)
		if g.lead != nil {
			g.anchor = g.lead.pos
		}
	}
	sort.SliceStable(c.merged, func(i, j int) bool {
		return c.merged[i].anchor < c.merged[j].anchor
	})
}

// fetchPlan lists, per source with unresolved positions in the window, one
// request starting at the first of them. Requests are capped at limit and
// at what the source has left.
func (c *CollectionMap[T, M]) fetchPlan(offset, limit int) []fetchTask[T, M] {
	var plan []fetchTask[T, M]
	seen := make(map[*mappedSource[T, M]]int)
	for _, e := range c.sorted[offset : offset+limit] {
		if e.slot.state == resolved {
			continue
		}
		if i, ok := seen[e.source]; ok {
			plan[i].start = min(plan[i].start, e.index)
			continue
		}
		seen[e.source] = len(plan)
		plan = append(plan, fetchTask[T, M]{
			source:     e.source,
			start:      e.index,
			generation: e.source.generation,
		})
	}
	for i := range plan {
		plan[i].count = min(limit, len(plan[i].source.entries)-plan[i].start)
	}
	return plan
}

// resolve runs plan one source at a time and commits the results only once
// every request succeeded. Results for a source that changed meanwhile are
// dropped; those positions stay unresolved.
func (c *CollectionMap[T, M]) resolve(ctx context.Context, plan []fetchTask[T, M], p *pending[T, M]) error {
	if len(plan) == 0 {
		return nil
	}
	logger := logging.FromContext(ctx)

	results := make([][]T, len(plan))
	for i, task := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, err := task.source.collection.Items(ctx, task.count, task.start)
		if err != nil {
			return err
		}
		results[i] = items
		logger.Debug().
			Str("collection", c.name).
			Str("core_id", task.source.collection.Core().String()).
			Int("offset", task.start).
			Int("limit", task.count).
			Int("fetched", len(items)).
			Msg("Fetched source page")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return errors.ErrDisposed
	}

	var batch []resolution[T, M]
	for i, task := range plan {
		s := task.source
		if s.detached || s.generation != task.generation {
			logger.Debug().
				Str("collection", c.name).
				Str("core_id", s.collection.Core().String()).
				Msg("Discarding page of a source that changed during fetch")
			continue
		}
		for j, item := range results[i] {
			k := task.start + j
			if k >= len(s.entries) {
				break
			}
			if e := s.entries[k]; e.slot.state == unresolved {
				batch = append(batch, resolution[T, M]{entry: e, item: item})
			}
		}
	}
	return c.fold(batch, p)
}

// foldGroup is a merged entry an item of a fold batch goes to: an existing
// one, or one to be created around the batch item at leader.
type foldGroup[T media.Item, M Merged[T]] struct {
	existing *mergedEntry[T, M]
	leader   int
	key      uint64
	keyed    bool
}

// fold resolves the batch and folds every item into the first merged entry
// it is equal to, or into a new one. New merged entities are only built once
// every new group's kind is known to the dispatch table, so a failing fold
// leaves the maps untouched.
func (c *CollectionMap[T, M]) fold(batch []resolution[T, M], p *pending[T, M]) error {
	if len(batch) == 0 {
		return nil
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].entry.pos < batch[j].entry.pos
	})

	var groups []*foldGroup[T, M]
	fresh := make(map[uint64][]*foldGroup[T, M])
	assign := make([]*foldGroup[T, M], len(batch))

next:
	for i, r := range batch {
		key, keyed := equality.Key(r.item)
		if keyed {
			if g := c.findEqual(key, r.item); g != nil {
				assign[i] = &foldGroup[T, M]{existing: g}
				continue
			}
			for _, g := range fresh[key] {
				if equality.Equal(batch[g.leader].item, r.item) {
					assign[i] = g
					continue next
				}
			}
		}
		if !c.dispatch.Supports(r.item.Kind()) {
			return errors.NewNotImplementedError(c.name+" merge", r.item.Kind().String())
		}
		g := &foldGroup[T, M]{leader: i, key: key, keyed: keyed}
		groups = append(groups, g)
		if keyed {
			fresh[key] = append(fresh[key], g)
		}
		assign[i] = g
	}

	created := make(map[*foldGroup[T, M]]*mergedEntry[T, M], len(groups))
	for _, g := range groups {
		m, err := c.dispatch.Wrap(batch[g.leader].item)
		if err != nil {
			for _, e := range created {
				_ = e.merged.Dispose(context.Background())
			}
			return err
		}
		created[g] = &mergedEntry[T, M]{merged: m, key: g.key, keyed: g.keyed, lead: batch[g.leader].entry}
	}

	for i, r := range batch {
		g := assign[i]
		target := g.existing
		if target == nil {
			target = created[g]
		}
		r.entry.slot = slot[T]{state: resolved, item: r.item}
		r.entry.owner = target
		target.entries = append(target.entries, r.entry)
		if g.existing != nil || g.leader != i {
			p.attach = append(p.attach, sourceOp[T, M]{merged: target.merged, item: r.item})
		}
	}
	for _, g := range groups {
		e := created[g]
		c.merged = append(c.merged, e)
		if e.keyed {
			c.buckets[e.key] = append(c.buckets[e.key], e)
		}
	}
	c.reindex()
	return nil
}

// findEqual returns the merged entry in the key's bucket equal to item.
func (c *CollectionMap[T, M]) findEqual(key uint64, item T) *mergedEntry[T, M] {
	for _, g := range c.buckets[key] {
		if len(g.entries) > 0 && equality.Equal(g.entries[0].slot.item, item) {
			return g
		}
	}
	return nil
}

// dropAll detaches every entry of s.
func (c *CollectionMap[T, M]) dropAll(s *mappedSource[T, M], p *pending[T, M]) {
	for _, e := range s.entries {
		c.dropEntry(e, p)
	}
	s.entries = nil
	s.generation++
}

// dropEntry detaches e from its merged entry. A merged entry left without
// entries is removed and its entity disposed.
func (c *CollectionMap[T, M]) dropEntry(e *mappedData[T, M], p *pending[T, M]) {
	g := e.owner
	if g == nil {
		return
	}
	e.owner = nil
	g.entries = slices.DeleteFunc(g.entries, func(o *mappedData[T, M]) bool { return o == e })
	if len(g.entries) > 0 {
		p.detach = append(p.detach, sourceOp[T, M]{merged: g.merged, item: e.slot.item})
		return
	}

	c.merged = slices.DeleteFunc(c.merged, func(o *mergedEntry[T, M]) bool { return o == g })
	if g.keyed {
		bucket := slices.DeleteFunc(c.buckets[g.key], func(o *mergedEntry[T, M]) bool { return o == g })
		if len(bucket) == 0 {
			delete(c.buckets, g.key)
		} else {
			c.buckets[g.key] = bucket
		}
	}
	p.dispose = append(p.dispose, g.merged)
}

// snapshot returns the merged map order.
func (c *CollectionMap[T, M]) snapshot() []*mergedEntry[T, M] {
	return slices.Clone(c.merged)
}

// diff records in p how the merged map changed since before. When the
// entries present on both sides kept their relative order, only entries that
// appeared or vanished are reported. Otherwise every entry whose index moved
// is reported as removed at its old index and added at its new one. Applying
// removals in descending order and then additions in ascending order turns
// the old list into the new one in both cases.
func (c *CollectionMap[T, M]) diff(before []*mergedEntry[T, M], p *pending[T, M]) {
	after := c.merged
	inAfter := make(map[*mergedEntry[T, M]]bool, len(after))
	for _, g := range after {
		inAfter[g] = true
	}
	inBefore := make(map[*mergedEntry[T, M]]bool, len(before))
	for _, g := range before {
		inBefore[g] = true
	}

	var keptBefore, keptAfter []*mergedEntry[T, M]
	for _, g := range before {
		if inAfter[g] {
			keptBefore = append(keptBefore, g)
		}
	}
	for _, g := range after {
		if inBefore[g] {
			keptAfter = append(keptAfter, g)
		}
	}

	var removed, added []media.Indexed[T]
	if slices.Equal(keptBefore, keptAfter) {
		for i, g := range before {
			if !inAfter[g] {
				removed = append(removed, media.Indexed[T]{Item: asItem[T](g.merged), Index: i})
			}
		}
		for i, g := range after {
			if !inBefore[g] {
				added = append(added, media.Indexed[T]{Item: asItem[T](g.merged), Index: i})
			}
		}
	} else {
		for i, g := range before {
			if i >= len(after) || after[i] != g {
				removed = append(removed, media.Indexed[T]{Item: asItem[T](g.merged), Index: i})
			}
		}
		for i, g := range after {
			if i >= len(before) || before[i] != g {
				added = append(added, media.Indexed[T]{Item: asItem[T](g.merged), Index: i})
			}
		}
	}
	p.change.Removed = append(p.change.Removed, removed...)
	p.change.Added = append(p.change.Added, added...)
}

// publishCount records a count change when the sorted map length differs
// from the last published value.
func (c *CollectionMap[T, M]) publishCount(p *pending[T, M]) {
	if n := len(c.sorted); n != c.published {
		c.published = n
		p.count = n
		p.countChanged = true
	}
}

// flush applies membership changes to merged entities and raises events. It
// must run without the map mutex held.
func (c *CollectionMap[T, M]) flush(ctx context.Context, p *pending[T, M]) {
	logger := logging.FromContext(ctx)
	for _, op := range p.attach {
		if err := op.merged.AddSource(ctx, op.item); err != nil {
			logger.Warn().Err(err).Str("collection", c.name).Msg("Failed to add source to merged item")
		}
	}
	for _, op := range p.detach {
		if err := op.merged.RemoveSource(ctx, op.item); err != nil {
			logger.Warn().Err(err).Str("collection", c.name).Msg("Failed to remove source from merged item")
		}
	}
	for _, m := range p.dispose {
		if err := m.Dispose(ctx); err != nil {
			logger.Warn().Err(err).Str("collection", c.name).Msg("Failed to dispose merged item")
		}
	}
	if !p.change.Empty() {
		c.itemsChanged.Emit(p.change)
	}
	if p.countChanged {
		c.countChanged.Emit(p.count)
	}
}

// onItemsChanged applies a provider change incrementally. Added items are
// already known, so they are resolved and folded right away.
func (c *CollectionMap[T, M]) onItemsChanged(s *mappedSource[T, M], change media.ItemsChanged[T]) {
	ctx := context.Background()
	p := &pending[T, M]{}

	c.mu.Lock()
	if c.disposed || s.detached || !s.ranked || !c.built {
		c.mu.Unlock()
		return
	}
	before := c.snapshot()

	removed := slices.Clone(change.Removed)
	sort.SliceStable(removed, func(i, j int) bool { return removed[i].Index > removed[j].Index })
	for _, r := range removed {
		if r.Index < 0 || r.Index >= len(s.entries) {
			continue
		}
		e := s.entries[r.Index]
		s.entries = slices.Delete(s.entries, r.Index, r.Index+1)
		c.dropEntry(e, p)
	}

	added := slices.Clone(change.Added)
	sort.SliceStable(added, func(i, j int) bool { return added[i].Index < added[j].Index })
	batch := make([]resolution[T, M], 0, len(added))
	for _, a := range added {
		i := min(max(a.Index, 0), len(s.entries))
		e := &mappedData[T, M]{source: s}
		s.entries = slices.Insert(s.entries, i, e)
		batch = append(batch, resolution[T, M]{entry: e, item: a.Item})
	}
	s.generation++
	c.reindex()

	if err := c.fold(batch, p); err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("collection", c.name).
			Msg("Leaving added items unresolved")
	}
	c.diff(before, p)
	c.publishCount(p)
	c.mu.Unlock()

	c.flush(ctx, p)
}

// onCountChanged reconciles a source whose reported count no longer matches
// its entries, growing with placeholders or trimming from the end.
func (c *CollectionMap[T, M]) onCountChanged(s *mappedSource[T, M], count int) {
	ctx := context.Background()
	p := &pending[T, M]{}

	c.mu.Lock()
	if c.disposed || s.detached || !s.ranked || !c.built || count == len(s.entries) || count < 0 {
		c.mu.Unlock()
		return
	}
	before := c.snapshot()
	if count > len(s.entries) {
		for i := len(s.entries); i < count; i++ {
			s.entries = append(s.entries, &mappedData[T, M]{source: s, index: i})
		}
	} else {
		for _, e := range s.entries[count:] {
			c.dropEntry(e, p)
		}
		s.entries = s.entries[:count]
	}
	s.generation++
	c.reindex()
	c.diff(before, p)
	c.publishCount(p)
	c.mu.Unlock()

	c.flush(ctx, p)
}

// rebuild re-lays the sorted map after the source set or the configuration
// changed. Resolved items of retained sources are kept, the previously
// materialized prefix is fetched again through the pagination path and the
// difference to the previous merged map is raised once.
func (c *CollectionMap[T, M]) rebuild(ctx context.Context, mutate func(p *pending[T, M])) error {
	p := &pending[T, M]{}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	before := c.snapshot()
	if mutate != nil {
		mutate(p)
	}
	var plan []fetchTask[T, M]
	if c.built {
		c.layout(ctx, p)
		hw := min(c.materialized, len(c.sorted))
		if hw > 0 && c.initialized.Load() && c.config.SortMode() == SortRanked {
			plan = c.fetchPlan(0, hw)
		}
	}
	c.mu.Unlock()

	err := c.resolve(ctx, plan, p)

	c.mu.Lock()
	c.diff(before, p)
	c.publishCount(p)
	sortedLen, mergedLen := len(c.sorted), len(c.merged)
	c.mu.Unlock()

	c.flush(ctx, p)

	logging.FromContext(ctx).Debug().
		Str("collection", c.name).
		Int("sorted", sortedLen).
		Int("merged", mergedLen).
		Int("added", len(p.change.Added)).
		Int("removed", len(p.change.Removed)).
		Msg("Rebuilt collection map")
	return err
}

// reconfigure rebuilds after a configuration change.
func (c *CollectionMap[T, M]) reconfigure() {
	ctx := context.Background()
	if err := c.rebuild(ctx, nil); err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("collection", c.name).
			Msg("Failed to rebuild collection map after configuration change")
	}
}
