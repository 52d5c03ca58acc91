package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
)

var (
	_ ports.StepSink   = (*Relay)(nil)
	_ ports.StepSource = (*Relay)(nil)
)

// Relay is the coordination point between one producer and one observer.
// The zero value is not usable; create relays with New.
type Relay struct {
	logger *slog.Logger
	hooks  domain.RelayHooks

	// mailbox holds at most one unconsumed snapshot. Receiving from it is the
	// atomic take-and-clear.
	mailbox chan domain.Snapshot
	// taken carries the observer's acknowledgement back to the blocked producer.
	taken chan struct{}

	outputs *Queue[string]
	errors  *Queue[string]
	inputs  *Queue[string]

	// mu orders stores into the mailbox against finish, and guards the
	// input request state below.
	mu sync.Mutex
	// awaiting is true while the producer waits in RequestInput and no
	// answer is queued. inputChanged is closed and replaced on every change.
	awaiting     bool
	inputChanged chan struct{}

	finished atomic.Bool
	done     chan struct{}
	once     sync.Once

	published atomic.Uint64
	consumed  atomic.Uint64
	emitted   atomic.Uint64
	failed    atomic.Uint64
	supplied  atomic.Uint64
}

// Stats is a point-in-time view of the relay counters.
type Stats struct {
	Published     uint64 `json:"published"`
	Taken         uint64 `json:"taken"`
	Outputs       uint64 `json:"outputs"`
	Errors        uint64 `json:"errors"`
	Inputs        uint64 `json:"inputs"`
	PendingOutput int    `json:"pending_output"`
	PendingErrors int    `json:"pending_errors"`
	Holding       bool   `json:"holding"`
	AwaitingInput bool   `json:"awaiting_input"`
	Finished      bool   `json:"finished"`
}

// New creates a relay in the running state with an empty mailbox.
func New(opts ...Option) *Relay {
	r := &Relay{
		logger:  logging.NewNop(),
		mailbox: make(chan domain.Snapshot, 1),
		taken:   make(chan struct{}, 1),
		outputs: NewQueue[string](),
		errors:  NewQueue[string](),
		inputs:  NewQueue[string](),
		done:    make(chan struct{}),

		inputChanged: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PublishStep stores s in the mailbox and blocks until the observer consumed
// it or the relay finished. After the relay finished it returns immediately
// without storing anything.
//
// Only the producer goroutine may call PublishStep.
func (r *Relay) PublishStep(s domain.Snapshot) {
	start := time.Now()
	if !r.store(s) {
		return
	}
	r.published.Add(1)

	select {
	case <-r.taken:
	case <-r.done:
	}

	if r.hooks.OnPublish != nil {
		r.hooks.OnPublish(s, time.Since(start))
	}
}

// store puts s in the mailbox unless the relay finished. Holding mu makes the
// store and SignalFinished mutually exclusive.
func (r *Relay) store(s domain.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished.Load() {
		return false
	}
	// The mailbox is empty here: the previous call only returned after its
	// snapshot was taken, or after finish.
	select {
	case r.mailbox <- s:
		return true
	default:
		r.logger.Warn("relay: mailbox occupied, snapshot dropped", "step", s.Step)
		return false
	}
}

// TakeStep consumes the pending snapshot.
//
// Without wait it never blocks and returns false when the mailbox is empty.
// With wait it blocks until a snapshot is published or the relay finished; a
// snapshot stored before the finish is still delivered.
//
// Only the observer goroutine may call TakeStep.
func (r *Relay) TakeStep(wait bool) (domain.Snapshot, bool) {
	if s, ok := r.tryTake(); ok || !wait {
		return s, ok
	}

	select {
	case s := <-r.mailbox:
		r.ack(s)
		return s, true
	case <-r.done:
		return r.tryTake()
	}
}

// TakeStepContext is a blocking TakeStep that also honours ctx.
// It returns domain.ErrFinished when the relay finished with an empty mailbox.
func (r *Relay) TakeStepContext(ctx context.Context) (domain.Snapshot, error) {
	if s, ok := r.tryTake(); ok {
		return s, nil
	}

	select {
	case s := <-r.mailbox:
		r.ack(s)
		return s, nil
	case <-r.done:
		if s, ok := r.tryTake(); ok {
			return s, nil
		}
		return domain.Snapshot{}, domain.ErrFinished
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

// AwaitStep is TakeStepContext that also returns domain.ErrInputRequested
// as soon as the producer waits for input nobody supplied yet. No step can
// arrive before that input, so observers use it to prompt instead of block.
func (r *Relay) AwaitStep(ctx context.Context) (domain.Snapshot, error) {
	for {
		if s, ok := r.tryTake(); ok {
			return s, nil
		}
		awaiting, changed := r.InputState()
		if awaiting {
			return domain.Snapshot{}, domain.ErrInputRequested
		}

		select {
		case s := <-r.mailbox:
			r.ack(s)
			return s, nil
		case <-r.done:
			if s, ok := r.tryTake(); ok {
				return s, nil
			}
			return domain.Snapshot{}, domain.ErrFinished
		case <-changed:
		case <-ctx.Done():
			return domain.Snapshot{}, ctx.Err()
		}
	}
}

func (r *Relay) tryTake() (domain.Snapshot, bool) {
	select {
	case s := <-r.mailbox:
		r.ack(s)
		return s, true
	default:
		return domain.Snapshot{}, false
	}
}

// ack releases the producer blocked on the snapshot that was just taken.
func (r *Relay) ack(s domain.Snapshot) {
	r.consumed.Add(1)
	if r.hooks.OnTake != nil {
		r.hooks.OnTake(s)
	}
	select {
	case r.taken <- struct{}{}:
	default:
		// At most one snapshot is in flight, so at most one ack is pending.
	}
}

// EmitOutput enqueues a produced text chunk. It never blocks.
func (r *Relay) EmitOutput(text string) {
	r.outputs.Push(text)
	r.emitted.Add(1)
	if r.hooks.OnOutput != nil {
		r.hooks.OnOutput(text)
	}
}

// DrainOutput dequeues the next output chunk, or returns false if none is pending.
func (r *Relay) DrainOutput() (string, bool) {
	return r.outputs.Pop()
}

// EmitError enqueues an error notification. It never blocks.
func (r *Relay) EmitError(msg string) {
	r.errors.Push(msg)
	r.failed.Add(1)
	if r.hooks.OnError != nil {
		r.hooks.OnError(msg)
	}
}

// DrainError dequeues the next error notification, or returns false if none is pending.
func (r *Relay) DrainError() (string, bool) {
	return r.errors.Pop()
}

// RequestInput blocks until the observer supplies a value and returns it.
// It has no timeout; ok is false only when the relay finished first.
// Use RequestInputContext to bound the wait.
func (r *Relay) RequestInput() (string, bool) {
	text, err := r.RequestInputContext(context.Background())
	return text, err == nil
}

// RequestInputContext is RequestInput bounded by ctx. It returns
// domain.ErrFinished when the relay finished first, or ctx.Err().
func (r *Relay) RequestInputContext(ctx context.Context) (string, error) {
	if r.IsFinished() {
		return "", domain.ErrFinished
	}

	r.mu.Lock()
	if r.inputs.Len() == 0 {
		r.setAwaiting(true)
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.setAwaiting(false)
		r.mu.Unlock()
	}()

	if r.hooks.OnInputRequest != nil {
		r.hooks.OnInputRequest()
	}
	r.logger.Debug("relay: awaiting input")

	text, err := r.inputs.Wait(ctx, r.done)
	if err != nil {
		if errors.Is(err, errStopped) {
			return "", domain.ErrFinished
		}
		return "", err
	}
	return text, nil
}

// SupplyInput enqueues text for the producer and wakes a pending RequestInput.
// The awaiting signal drops as soon as the value is queued, before the
// producer wakes up.
func (r *Relay) SupplyInput(text string) {
	r.mu.Lock()
	r.inputs.Push(text)
	r.setAwaiting(false)
	r.mu.Unlock()
	r.supplied.Add(1)
	if r.hooks.OnInputSupplied != nil {
		r.hooks.OnInputSupplied(text)
	}
}

// setAwaiting updates the input request state. Callers hold mu.
func (r *Relay) setAwaiting(v bool) {
	if r.awaiting == v {
		return
	}
	r.awaiting = v
	close(r.inputChanged)
	r.inputChanged = make(chan struct{})
}

// AwaitingInput reports whether the producer is blocked in RequestInput with
// no answer queued.
func (r *Relay) AwaitingInput() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.awaiting
}

// InputState returns AwaitingInput together with a channel that is closed on
// the next change of it.
func (r *Relay) InputState() (bool, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.awaiting, r.inputChanged
}

// SignalFinished moves the relay to its terminal state and releases every
// blocked PublishStep, TakeStep and RequestInput. Calls after the first are no-ops.
func (r *Relay) SignalFinished() {
	r.once.Do(func() {
		r.mu.Lock()
		r.finished.Store(true)
		close(r.done)
		r.mu.Unlock()
		r.logger.Debug("relay: finished",
			"published", r.published.Load(),
			"taken", r.consumed.Load(),
		)
		if r.hooks.OnFinish != nil {
			r.hooks.OnFinish()
		}
	})
}

// IsFinished reports whether SignalFinished was called.
func (r *Relay) IsFinished() bool {
	return r.finished.Load()
}

// Done returns a channel that is closed once the relay is finished.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Stats returns the current relay counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Published:     r.published.Load(),
		Taken:         r.consumed.Load(),
		Outputs:       r.emitted.Load(),
		Errors:        r.failed.Load(),
		Inputs:        r.supplied.Load(),
		PendingOutput: r.outputs.Len(),
		PendingErrors: r.errors.Len(),
		Holding:       len(r.mailbox) > 0,
		AwaitingInput: r.AwaitingInput(),
		Finished:      r.IsFinished(),
	}
}
