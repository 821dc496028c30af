package strix

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/merge"
)

// Option is a function that configures a Strix instance
type Option func(*options) error

// options holds the values collected from Option functions
type options struct {
	config *merge.Config
	logger *zerolog.Logger
}

// WithConfig shares config with the aggregate. Without it the aggregate
// starts from a ranked configuration ordered like the cores passed to New.
func WithConfig(config *merge.Config) Option {
	return func(o *options) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
		o.config = config
		return nil
	}
}

// WithLogger sets the logger used for aggregate level events
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = &logger
		return nil
	}
}

// applyOptions applies opts over the defaults
func applyOptions(opts ...Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.config == nil {
		config, err := merge.NewConfig()
		if err != nil {
			return nil, err
		}
		o.config = config
	}
	return o, nil
}
