package worker

import (
	"github.com/okian/choozi/pkg/logger"
)

type options struct {
	name   string
	logger logger.Logger
}

// Option applies a configuration option to a Runner.
type Option func(*options)

// WithName sets the runner name used for logging and metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
