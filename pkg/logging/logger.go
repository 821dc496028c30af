// Package logging provides the zerolog loggers used across strix.
//
// Loggers travel in contexts: the root aggregate stores its logger with
// WithLogger, adds the core being worked on with WithCore, and the merge
// engine reads it back with FromContext. Code running without a logger in
// its context falls back to Default.
//
//	ctx = logging.WithCore(logging.WithLogger(ctx, &logger), "spotify")
//	logging.FromContext(ctx).Debug().Int("offset", 40).Msg("Fetching tracks")
package logging

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	logger := NewLoggerFromConfig(ConfigFromEnv())
	defaultLogger.Store(&logger)
}

// Default returns the process wide logger. It is configured from the
// STRIX_LOG_* environment variables until SetDefault or Configure replace it.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process wide logger, zerolog's global logger
// included.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

// Configure builds a logger from cfg and makes it the default.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}
