package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
)

// ErrProducerFailure wraps a panic recovered from the machine.
var ErrProducerFailure = errors.New("producer failure")

// Driver runs a Machine and publishes its progress to a StepSink.
type Driver struct {
	machine Machine
	sink    ports.StepSink

	logger       *slog.Logger
	maxSteps     uint64
	inputTimeout time.Duration
	hooks        Hooks
}

// NewDriver creates a driver for m that publishes to sink.
func NewDriver(m Machine, sink ports.StepSink, opts ...Option) *Driver {
	d := &Driver{
		machine: m,
		sink:    sink,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run publishes the initial snapshot, then steps the machine and publishes a
// snapshot after every step until the program ends, the observer finishes the
// relay, ctx is cancelled or the step limit is reached.
//
// The relay is signalled finished on every return path. A machine error is
// reported on the error channel and returned; a panic is recovered, reported
// the same way and returned wrapped in ErrProducerFailure. A relay that
// finished while the machine waited for input ends the run without error, and
// a cancellation during a step returns ctx.Err() without reporting it.
func (d *Driver) Run(ctx context.Context) (err error) {
	sink := d.sink
	defer sink.SignalFinished()
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("%v", rec)
			d.logger.Error("driver: machine panicked", "panic", msg)
			sink.EmitError(msg)
			err = fmt.Errorf("%w: %s", ErrProducerFailure, msg)
		}
	}()

	// PublishStep only unblocks on consume or finish.
	stop := context.AfterFunc(ctx, sink.SignalFinished)
	defer stop()

	io := &sinkIO{sink: sink, timeout: d.inputTimeout}

	var step uint64
	d.publish(step)

	for {
		if err := ctx.Err(); err != nil {
			d.logger.Debug("driver: cancelled", "step", step, "err", err)
			return err
		}
		if sink.IsFinished() {
			d.logger.Debug("driver: relay finished by observer", "step", step)
			return nil
		}
		if d.maxSteps > 0 && step >= d.maxSteps {
			d.logger.Warn("driver: step limit reached", "limit", d.maxSteps)
			sink.EmitError(fmt.Sprintf("step limit reached (%d)", d.maxSteps))
			return nil
		}

		done, stepErr := d.machine.Step(ctx, io)
		if stepErr != nil {
			// Cancellation also finishes the relay, so check it first.
			if ctxErr := ctx.Err(); ctxErr != nil {
				d.logger.Debug("driver: cancelled during step", "step", step+1, "err", ctxErr)
				return ctxErr
			}
			if errors.Is(stepErr, domain.ErrFinished) {
				d.logger.Debug("driver: relay finished while awaiting input", "step", step)
				return nil
			}
			d.logger.Error("driver: step failed", "step", step+1, "error", stepErr)
			sink.EmitError(stepErr.Error())
			return fmt.Errorf("step %d: %w", step+1, stepErr)
		}

		step++
		d.publish(step)

		if done {
			d.logger.Debug("driver: program ended", "steps", step)
			return nil
		}
	}
}

func (d *Driver) publish(step uint64) {
	snap := domain.Capture(step, d.machine.Tokens())
	d.sink.PublishStep(snap)
	if d.hooks.OnStep != nil {
		d.hooks.OnStep(snap)
	}
}

// sinkIO adapts a StepSink to the IO a machine steps with.
type sinkIO struct {
	sink    ports.StepSink
	timeout time.Duration
}

func (s *sinkIO) Output(text string) { s.sink.EmitOutput(text) }

func (s *sinkIO) Error(msg string) { s.sink.EmitError(msg) }

func (s *sinkIO) Input(ctx context.Context) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.sink.RequestInputContext(ctx)
}
