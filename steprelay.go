package steprelay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/engine"
	"github.com/aretw0/steprelay/pkg/observer"
	"github.com/aretw0/steprelay/pkg/ports"
	"github.com/aretw0/steprelay/pkg/relay"
)

// Debugger is one debugging session: a relay plus the producer goroutine
// driving a machine through it.
type Debugger struct {
	relay  *relay.Relay
	logger *slog.Logger

	relayOpts  []relay.Option
	driverOpts []engine.Option

	done chan struct{}
	err  error
}

// Option defines a functional option for configuring the Debugger.
type Option func(*Debugger)

// WithLogger sets the structured logger shared by the relay and the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Debugger) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHooks registers relay hooks (metrics, logs).
func WithHooks(hooks domain.RelayHooks) Option {
	return func(d *Debugger) {
		d.relayOpts = append(d.relayOpts, relay.WithHooks(hooks))
	}
}

// WithMaxSteps stops the producer after n steps.
func WithMaxSteps(n uint64) Option {
	return func(d *Debugger) {
		d.driverOpts = append(d.driverOpts, engine.WithMaxSteps(n))
	}
}

// WithInputTimeout bounds each input request of the producer.
func WithInputTimeout(timeout time.Duration) Option {
	return func(d *Debugger) {
		d.driverOpts = append(d.driverOpts, engine.WithInputTimeout(timeout))
	}
}

// Attach creates a relay for m and starts driving m in a new goroutine. The
// producer blocks on its first snapshot until an observer takes it.
// Cancelling ctx finishes the relay.
func Attach(ctx context.Context, m engine.Machine, opts ...Option) *Debugger {
	d := &Debugger{
		logger: logging.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.relay = relay.New(append([]relay.Option{relay.WithLogger(d.logger)}, d.relayOpts...)...)
	driver := engine.NewDriver(m, d.relay, append([]engine.Option{engine.WithLogger(d.logger)}, d.driverOpts...)...)

	go func() {
		defer close(d.done)
		d.err = driver.Run(ctx)
	}()
	return d
}

// Source returns the observer view of the relay.
func (d *Debugger) Source() ports.StepSource {
	return d.relay
}

// Relay returns the relay itself, for callers that need its stats.
func (d *Debugger) Relay() *relay.Relay {
	return d.relay
}

// Done is closed once the producer returned.
func (d *Debugger) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until the producer returned and reports its error.
func (d *Debugger) Wait() error {
	<-d.done
	return d.err
}

// Stop finishes the relay and waits for the producer.
func (d *Debugger) Stop() error {
	d.relay.SignalFinished()
	return d.Wait()
}

// Observe runs an interactive observer session on handler until the program
// finished or the user left, then waits for the producer. It returns the
// observed history together with the failures of either side.
func (d *Debugger) Observe(ctx context.Context, handler observer.Handler, opts ...observer.SessionOption) (*observer.Timeline, error) {
	opts = append([]observer.SessionOption{observer.WithSessionLogger(d.logger)}, opts...)
	s := observer.NewSession(d.relay, handler, opts...)
	serr := s.Run(ctx)
	perr := d.Stop()
	if errors.Is(perr, context.Canceled) && errors.Is(serr, context.Canceled) {
		return s.Timeline(), serr
	}
	return s.Timeline(), errors.Join(serr, perr)
}
