package merge

import (
	"context"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// MergedSearch fans search queries out to every core. Searches always
// compare equal, so an aggregate holds exactly one.
type MergedSearch struct {
	entity[media.Search]

	mu          sync.Mutex
	history     *MergedGroup
	historyOnce bool
	results     *MergedGroup
}

var (
	_ media.Search         = (*MergedSearch)(nil)
	_ Merged[media.Search] = (*MergedSearch)(nil)
)

// NewMergedSearch wraps first.
func NewMergedSearch(config *Config, first media.Search) (*MergedSearch, error) {
	s := &MergedSearch{}
	if err := s.init(s, config, first, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// AutoComplete queries every source in parallel and returns the
// completions in source order without duplicates.
func (s *MergedSearch) AutoComplete(ctx context.Context, query string) ([]string, error) {
	sources := s.Sources()
	found := make([][]string, len(sources))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, src := range sources {
		p.Go(func(ctx context.Context) error {
			res, err := src.AutoComplete(ctx, query)
			if err != nil {
				return err
			}
			found[i] = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]bool)
	for _, res := range found {
		for _, q := range res {
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}
	return out, nil
}

// Results implements media.Search over MergedResults.
func (s *MergedSearch) Results(ctx context.Context, query string) (media.PlayableCollectionGroup, error) {
	g, err := s.MergedResults(ctx, query)
	if err != nil || g == nil {
		return nil, err
	}
	return g, nil
}

// MergedResults queries every source in parallel and merges the result
// groups. The previous results are disposed.
func (s *MergedSearch) MergedResults(ctx context.Context, query string) (*MergedGroup, error) {
	if s.Disposed() {
		return nil, errors.ErrDisposed
	}
	sources := s.Sources()
	groups := make([]media.PlayableCollectionGroup, len(sources))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, src := range sources {
		p.Go(func(ctx context.Context) error {
			g, err := src.Results(ctx, query)
			if err != nil {
				return err
			}
			groups[i] = g
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	merged, err := s.fold(ctx, groups)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	previous := s.results
	s.results = merged
	s.mu.Unlock()
	if previous != nil {
		if err := previous.Dispose(ctx); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Failed to dispose previous search results")
		}
	}

	logging.FromContext(ctx).Debug().
		Str("query", query).
		Int("sources", len(sources)).
		Msg("Merged search results")
	return merged, nil
}

// History merges the search history of every source on first use. It
// returns nil when no source keeps one.
func (s *MergedSearch) History() media.PlayableCollectionGroup {
	if h := s.MergedHistory(); h != nil {
		return h
	}
	return nil
}

// MergedHistory is History with the concrete type.
func (s *MergedSearch) MergedHistory() *MergedGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyOnce || s.Disposed() {
		return s.history
	}
	s.historyOnce = true
	histories := make([]media.PlayableCollectionGroup, 0)
	for _, src := range s.Sources() {
		histories = append(histories, src.History())
	}
	h, err := s.fold(context.Background(), histories)
	if err != nil {
		logging.Default().Warn().Err(err).Msg("Failed to merge search history")
		return nil
	}
	s.history = h
	return h
}

// AddSource folds another search in, along with its history once loaded.
func (s *MergedSearch) AddSource(ctx context.Context, item media.Search) error {
	if err := s.entity.AddSource(ctx, item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.historyOnce {
		return nil
	}
	h := item.History()
	if isNil(h) {
		return nil
	}
	if s.history == nil {
		history, err := NewMergedGroup(s.Config(), h)
		if err != nil {
			return err
		}
		s.history = history
		return nil
	}
	return s.history.AddSource(ctx, h)
}

// RemoveSource detaches a search, along with its history.
func (s *MergedSearch) RemoveSource(ctx context.Context, item media.Search) error {
	if err := s.entity.RemoveSource(ctx, item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := item.History()
	if s.history == nil || isNil(h) {
		return nil
	}
	return s.history.RemoveSource(ctx, h)
}

// Dispose releases the search, its history and its last results.
func (s *MergedSearch) Dispose(ctx context.Context) error {
	s.mu.Lock()
	history, results := s.history, s.results
	s.history, s.results = nil, nil
	s.historyOnce = true
	s.mu.Unlock()

	errs := []error{s.entity.Dispose(ctx)}
	if history != nil {
		errs = append(errs, history.Dispose(ctx))
	}
	if results != nil {
		errs = append(errs, results.Dispose(ctx))
	}
	return errors.Join(errs...)
}

// fold merges groups into one merged group, skipping absent ones.
func (s *MergedSearch) fold(ctx context.Context, groups []media.PlayableCollectionGroup) (*MergedGroup, error) {
	groups = slices.DeleteFunc(groups, func(g media.PlayableCollectionGroup) bool { return isNil(g) })
	if len(groups) == 0 {
		return nil, nil
	}
	merged, err := NewMergedGroup(s.Config(), groups[0])
	if err != nil {
		return nil, err
	}
	for _, g := range groups[1:] {
		if err := merged.AddSource(ctx, g); err != nil {
			return nil, errors.Join(err, merged.Dispose(ctx))
		}
	}
	return merged, nil
}
