package ports

import (
	"context"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Lifecycle is the terminal "finished" flag shared by both sides.
type Lifecycle interface {
	// SignalFinished moves the relay to its terminal state. It is idempotent
	// and releases every blocked call on either side.
	SignalFinished()

	// IsFinished reports whether SignalFinished was called.
	IsFinished() bool

	// Done is closed once the relay is finished.
	Done() <-chan struct{}
}

// StepSink is the producer view of the relay, held by the execution engine.
type StepSink interface {
	Lifecycle

	// PublishStep hands a snapshot to the observer and blocks until it was
	// consumed or the relay finished.
	PublishStep(s domain.Snapshot)

	// EmitOutput enqueues a produced text chunk. It never blocks.
	EmitOutput(text string)

	// EmitError enqueues an error notification. It never blocks.
	EmitError(msg string)

	// RequestInput blocks until the observer supplies a value. ok is false
	// when the relay finished first.
	RequestInput() (text string, ok bool)

	// RequestInputContext is RequestInput bounded by ctx. It returns
	// domain.ErrFinished when the relay finished first.
	RequestInputContext(ctx context.Context) (string, error)
}

// StepSource is the observer view of the relay.
type StepSource interface {
	Lifecycle

	// TakeStep consumes the pending snapshot. With wait set it blocks until a
	// snapshot is available or the relay finished; ok is false when nothing
	// was available.
	TakeStep(wait bool) (s domain.Snapshot, ok bool)

	// TakeStepContext is a blocking TakeStep bounded by ctx. It returns
	// domain.ErrFinished when the relay finished with an empty mailbox.
	TakeStepContext(ctx context.Context) (domain.Snapshot, error)

	// AwaitStep is TakeStepContext that also returns
	// domain.ErrInputRequested while the producer waits for input nobody
	// supplied yet.
	AwaitStep(ctx context.Context) (domain.Snapshot, error)

	// DrainOutput dequeues the next output chunk without blocking.
	DrainOutput() (string, bool)

	// DrainError dequeues the next error notification without blocking.
	DrainError() (string, bool)

	// SupplyInput answers a pending (or the next) input request.
	SupplyInput(text string)

	// AwaitingInput reports whether the producer is blocked in RequestInput
	// with no answer queued. It drops as soon as SupplyInput queued one.
	AwaitingInput() bool

	// InputState returns AwaitingInput and a channel closed on its next change.
	InputState() (awaiting bool, changed <-chan struct{})
}
