// Package app provides the application context and dependency management
// for the strix CLI. It centralizes configuration, logging and the lazily
// built aggregate.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/strix"
	"github.com/agentstation/strix/internal/appcontext"
	"github.com/agentstation/strix/internal/config"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
)

// App represents the strix application with all its dependencies.
type App struct {
	version string

	config *config.Config
	flags  flags
	logger *zerolog.Logger
	out    io.Writer

	// Aggregate (lazy-initialized, singleton)
	mu    sync.Mutex
	strix strix.Strix
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance. Configuration is loaded from the
// environment and the default config file locations; an explicit --config
// flag reloads it before the command runs.
func New(version string, opts ...Option) (*App, error) {
	app := &App{version: version}

	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Strix returns the aggregate over the fixture cores, building and
// initializing it on first use.
func (a *App) Strix(ctx context.Context) (strix.Strix, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.strix != nil {
		return a.strix, nil
	}

	ctx = logging.WithLogger(ctx, a.logger)
	cores, err := memory.LoadFixture(ctx, a.config.Fixtures)
	if err != nil {
		return nil, err
	}
	mergeConfig, err := a.config.MergeConfig()
	if err != nil {
		return nil, err
	}

	sources := make([]media.Core, len(cores))
	for i, c := range cores {
		sources[i] = c
	}
	s, err := strix.New(ctx, sources, strix.WithConfig(mergeConfig), strix.WithLogger(*a.logger))
	if err != nil {
		return nil, errors.WrapResource("create", "strix", a.config.Fixtures, err)
	}
	if err := s.Init(ctx); err != nil {
		_ = s.Dispose(ctx)
		return nil, err
	}

	a.logger.Debug().
		Str("fixtures", a.config.Fixtures).
		Int("cores", len(sources)).
		Msg("Built aggregate")
	a.strix = s
	return s, nil
}

// Shutdown disposes the aggregate if it was built.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	s := a.strix
	a.strix = nil
	a.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Dispose(ctx)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		if cfg == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStrix sets a prebuilt aggregate (useful for testing).
func WithStrix(s strix.Strix) Option {
	return func(a *App) error {
		a.strix = s
		return nil
	}
}

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
