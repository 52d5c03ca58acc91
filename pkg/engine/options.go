package engine

import (
	"log/slog"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Option configures a Driver.
type Option func(*Driver)

// Hooks are optional callbacks fired by the driver.
type Hooks struct {
	// OnStep runs after a snapshot was published and released.
	OnStep func(domain.Snapshot)
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxSteps stops the run after n steps. Zero means no limit.
func WithMaxSteps(n uint64) Option {
	return func(d *Driver) {
		d.maxSteps = n
	}
}

// WithInputTimeout bounds every input request. Zero waits until the relay finishes.
func WithInputTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.inputTimeout = timeout
	}
}

// WithHooks configures driver callbacks.
func WithHooks(h Hooks) Option {
	return func(d *Driver) {
		d.hooks = h
	}
}
