package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/strix"
)

// Mock provides a mock implementation of Interface for testing.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	StrixFunc        func(ctx context.Context) (strix.Strix, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

var _ Interface = (*Mock)(nil)

// Strix returns an aggregate using the mock function or nil.
func (m *Mock) Strix(ctx context.Context) (strix.Strix, error) {
	if m.StrixFunc != nil {
		return m.StrixFunc(ctx)
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}
