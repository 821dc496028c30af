package strix

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
)

// Init initializes every core concurrently. Errors of individual cores are
// joined. Once Init succeeds, cores added later are initialized before
// they are merged. Calling Init again after success is a no-op.
func (s *strix) Init(ctx context.Context) error {
	if s.disposing.Load() {
		return errors.ErrDisposed
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized.Load() {
		return nil
	}

	ctx = logging.WithOperation(logging.WithLogger(ctx, s.logger), "init")
	logger := logging.FromContext(ctx)
	cores := s.Sources()
	p := pool.New().WithErrors().WithContext(ctx)
	for _, core := range cores {
		p.Go(func(ctx context.Context) error {
			logger.Debug().Str("core_id", core.ID().String()).Msg("Initializing core")
			if err := core.Init(ctx); err != nil {
				logger.Warn().Err(err).Str("core_id", core.ID().String()).Msg("Core failed to initialize")
				return errors.NewResourceError("init", "core", core.ID().String(), err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	s.initialized.Store(true)
	logger.Info().Int("cores", len(cores)).Msg("Initialized")
	return nil
}

// Dispose releases the merged entities, then disposes every core
// concurrently. Only the first call does any work; calls made while a
// dispose is running return immediately.
func (s *strix) Dispose(ctx context.Context) error {
	if !s.disposing.CompareAndSwap(false, true) {
		return nil
	}
	cores := s.Sources()
	errs := []error{s.release(ctx)}

	p := pool.New().WithErrors().WithContext(ctx)
	for _, core := range cores {
		p.Go(func(ctx context.Context) error {
			if err := core.Dispose(ctx); err != nil {
				return errors.NewResourceError("dispose", "core", core.ID().String(), err)
			}
			return nil
		})
	}
	errs = append(errs, p.Wait())

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Dispose finished with errors")
	} else {
		s.logger.Info().Int("cores", len(cores)).Msg("Disposed")
	}
	return err
}

// release tears down everything the aggregate built on top of its cores.
func (s *strix) release(ctx context.Context) error {
	ctx = logging.WithLogger(ctx, s.logger)

	s.mu.Lock()
	var disposers []media.Disposer
	if s.library != nil {
		disposers = append(disposers, s.library)
	}
	for _, g := range s.groups {
		disposers = append(disposers, g)
	}
	if s.search != nil {
		disposers = append(disposers, s.search)
	}
	for _, u := range s.users {
		disposers = append(disposers, u)
	}
	for id, sub := range s.watchers {
		sub.Unsubscribe()
		for _, d := range s.devices[id] {
			d.close()
		}
	}
	clear(s.groups)
	clear(s.users)
	clear(s.watchers)
	clear(s.devices)
	s.search = nil
	s.mu.Unlock()

	p := pool.New().WithErrors().WithContext(ctx)
	for _, d := range disposers {
		p.Go(func(ctx context.Context) error {
			return d.Dispose(ctx)
		})
	}
	return p.Wait()
}
