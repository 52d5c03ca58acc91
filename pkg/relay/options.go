package relay

import (
	"log/slog"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Option defines a functional option for configuring the Relay.
type Option func(*Relay)

// WithLogger sets the structured logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHooks registers observability hooks. Calling it more than once merges
// the hooks in registration order.
func WithHooks(hooks domain.RelayHooks) Option {
	return func(r *Relay) {
		r.hooks = r.hooks.Merge(hooks)
	}
}
