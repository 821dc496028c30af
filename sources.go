package strix

import (
	"context"
	"fmt"

	"github.com/agentstation/utc"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/merge"
)

// AddSource folds core into the library and into every optional feature it
// offers. A feature offered for the first time is built from core alone and
// announced through OnFeatureAdded. Cores unknown to the ranking are ranked
// last; when the core is rejected that ranking entry is taken back. Adding a
// core twice fails with ErrAlreadyExists.
func (s *strix) AddSource(ctx context.Context, core media.Core) error {
	if core == nil {
		return errors.NewValidationError("core", nil, "cannot be nil")
	}
	if s.disposing.Load() {
		return errors.ErrDisposed
	}
	id := core.ID()
	ctx = logging.WithCore(logging.WithLogger(ctx, s.logger), id.String())
	logger := logging.FromContext(ctx)

	if s.initialized.Load() {
		if err := core.Init(ctx); err != nil {
			return errors.NewResourceError("init", "core", id.String(), err)
		}
	}

	s.mu.Lock()
	if s.index(id) >= 0 {
		s.mu.Unlock()
		return errors.NewAlreadyExistsError("core", id.String())
	}
	unrank, err := s.rank(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.library.AddFeatureSource(ctx, core.Library()); err != nil {
		err = errors.Join(err, unrank())
		s.mu.Unlock()
		return fmt.Errorf("merging library of %s: %w", id, err)
	}
	p := &pending{}
	if err := s.attach(ctx, core, p); err != nil {
		err = errors.Join(err, s.library.RemoveSource(ctx, core.Library()), unrank())
		s.mu.Unlock()
		return err
	}
	p.sources = &SourcesChangedEvent{Added: id, Sources: s.coreIDs(), At: utc.Now()}
	s.mu.Unlock()

	logger.Info().Int("sources", len(p.sources.Sources)).Msg("Added core")
	p.fire(s.hooks)
	return nil
}

// RemoveSource takes core out of the library and of every feature it
// offered. A feature left without sources is disposed. The last core cannot
// be removed.
func (s *strix) RemoveSource(ctx context.Context, core media.Core) error {
	if core == nil {
		return errors.NewValidationError("core", nil, "cannot be nil")
	}
	if s.disposing.Load() {
		return errors.ErrDisposed
	}
	id := core.ID()
	ctx = logging.WithCore(logging.WithLogger(ctx, s.logger), id.String())

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return errors.NewNotFoundError("core", id.String())
	}
	if len(s.cores) == 1 {
		s.mu.Unlock()
		return errors.NewValidationError("core", id.String(), "is the last core of the aggregate")
	}
	core = s.cores[i]

	p := &pending{}
	errs := []error{s.detach(ctx, core, p)}
	errs = append(errs, s.library.RemoveSource(ctx, core.Library()))
	p.sources = &SourcesChangedEvent{Removed: id, Sources: s.coreIDs(), At: utc.Now()}
	s.mu.Unlock()

	logging.FromContext(ctx).Info().Int("sources", len(p.sources.Sources)).Msg("Removed core")
	p.fire(s.hooks)
	return errors.Join(errs...)
}

// attach registers core and merges its optional features, devices and
// user. The library is merged by the caller. Callers hold s.mu.
func (s *strix) attach(ctx context.Context, core media.Core, p *pending) error {
	id := core.ID()
	var undo []func()
	rollback := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}

	for _, f := range groupFeatures {
		g := f.of(core)
		if g == nil {
			continue
		}
		merged, ok := s.groups[f.feature]
		if !ok {
			created, err := merge.NewMergedGroup(s.config, g)
			if err != nil {
				return rollback(fmt.Errorf("merging %s of %s: %w", f.feature, id, err))
			}
			s.groups[f.feature] = created
			p.features = append(p.features, FeatureAddedEvent{Feature: f.feature, Core: id, At: utc.Now()})
			undo = append(undo, func() {
				delete(s.groups, f.feature)
				_ = created.Dispose(ctx)
			})
			continue
		}
		if err := merged.AddFeatureSource(ctx, g); err != nil {
			return rollback(fmt.Errorf("merging %s of %s: %w", f.feature, id, err))
		}
		undo = append(undo, func() { _ = merged.RemoveSource(ctx, g) })
	}

	if search := core.Search(); search != nil {
		if s.search == nil {
			created, err := merge.NewMergedSearch(s.config, search)
			if err != nil {
				return rollback(fmt.Errorf("merging search of %s: %w", id, err))
			}
			s.search = created
			p.features = append(p.features, FeatureAddedEvent{Feature: FeatureSearch, Core: id, At: utc.Now()})
			undo = append(undo, func() {
				s.search = nil
				_ = created.Dispose(ctx)
			})
		} else {
			if err := s.search.AddSource(ctx, search); err != nil {
				return rollback(fmt.Errorf("merging search of %s: %w", id, err))
			}
			undo = append(undo, func() { _ = s.search.RemoveSource(ctx, search) })
		}
	}

	if user := core.User(); user != nil {
		profile, err := merge.NewMergedUserProfile(s.config, user)
		if err != nil {
			return rollback(fmt.Errorf("wrapping user of %s: %w", id, err))
		}
		s.users[id] = profile
	}

	s.cores = append(s.cores, core)
	p.devices = s.watchDevices(core)
	return nil
}

// detach reverses attach. Callers hold s.mu.
func (s *strix) detach(ctx context.Context, core media.Core, p *pending) error {
	id := core.ID()
	var errs []error

	for _, f := range groupFeatures {
		g := f.of(core)
		if g == nil {
			continue
		}
		merged, ok := s.groups[f.feature]
		if !ok {
			errs = append(errs, errors.NewValidationError(string(f.feature), id.String(), "is offered but was never merged"))
			continue
		}
		if len(merged.Sources()) == 1 {
			delete(s.groups, f.feature)
			errs = append(errs, merged.Dispose(ctx))
			continue
		}
		errs = append(errs, merged.RemoveSource(ctx, g))
	}

	if search := core.Search(); search != nil {
		switch {
		case s.search == nil:
			errs = append(errs, errors.NewValidationError(string(FeatureSearch), id.String(), "is offered but was never merged"))
		case len(s.search.Sources()) == 1:
			errs = append(errs, s.search.Dispose(ctx))
			s.search = nil
		default:
			errs = append(errs, s.search.RemoveSource(ctx, search))
		}
	}

	if profile, ok := s.users[id]; ok {
		delete(s.users, id)
		errs = append(errs, profile.Dispose(ctx))
	}

	p.devices = s.unwatchDevices(core)
	i := s.index(id)
	s.cores = append(s.cores[:i:i], s.cores[i+1:]...)
	return errors.Join(errs...)
}

// rank appends id to the ranking. The returned func undoes that, and does
// nothing when id was ranked already.
func (s *strix) rank(id media.CoreID) (func() error, error) {
	if _, ok := s.config.Rank(id); ok {
		return func() error { return nil }, nil
	}
	if err := s.config.AppendRanking(id); err != nil {
		return nil, err
	}
	return func() error { return s.config.RemoveRanking(id) }, nil
}

func (s *strix) coreIDs() []media.CoreID {
	ids := make([]media.CoreID, len(s.cores))
	for i, c := range s.cores {
		ids[i] = c.ID()
	}
	return ids
}
