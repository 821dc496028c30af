// Package appcontext provides the application context interface shared by
// every strix command.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/strix"
)

// Interface defines what commands need from the application. The App in
// cmd/strix/app implements it; tests use Mock.
type Interface interface {
	// Strix returns the aggregate over the configured cores, building and
	// initializing it on first use.
	Strix(ctx context.Context) (strix.Strix, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string
}
