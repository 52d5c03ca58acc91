package domain

import "time"

// RelayHooks defines optional callbacks for relay observability.
// Hooks run synchronously on the calling goroutine and must not block.
type RelayHooks struct {
	// OnPublish runs after a snapshot was consumed (or the relay finished),
	// with the time the producer spent blocked.
	OnPublish func(s Snapshot, waited time.Duration)
	// OnTake runs when the observer consumed a snapshot.
	OnTake func(s Snapshot)
	// OnOutput runs when the producer enqueued an output chunk.
	OnOutput func(text string)
	// OnError runs when the producer enqueued an error notification.
	OnError func(msg string)
	// OnInputRequest runs when the producer starts waiting for input.
	OnInputRequest func()
	// OnInputSupplied runs when the observer enqueued an input value.
	OnInputSupplied func(text string)
	// OnFinish runs once, when the relay enters its terminal state.
	OnFinish func()
}

// Merge returns hooks that call h first and then other, for every callback
// either of them defines.
func (h RelayHooks) Merge(other RelayHooks) RelayHooks {
	return RelayHooks{
		OnPublish: func(s Snapshot, d time.Duration) {
			if h.OnPublish != nil {
				h.OnPublish(s, d)
			}
			if other.OnPublish != nil {
				other.OnPublish(s, d)
			}
		},
		OnTake: func(s Snapshot) {
			if h.OnTake != nil {
				h.OnTake(s)
			}
			if other.OnTake != nil {
				other.OnTake(s)
			}
		},
		OnOutput: func(text string) {
			if h.OnOutput != nil {
				h.OnOutput(text)
			}
			if other.OnOutput != nil {
				other.OnOutput(text)
			}
		},
		OnError: func(msg string) {
			if h.OnError != nil {
				h.OnError(msg)
			}
			if other.OnError != nil {
				other.OnError(msg)
			}
		},
		OnInputRequest: func() {
			if h.OnInputRequest != nil {
				h.OnInputRequest()
			}
			if other.OnInputRequest != nil {
				other.OnInputRequest()
			}
		},
		OnInputSupplied: func(text string) {
			if h.OnInputSupplied != nil {
				h.OnInputSupplied(text)
			}
			if other.OnInputSupplied != nil {
				other.OnInputSupplied(text)
			}
		},
		OnFinish: func() {
			if h.OnFinish != nil {
				h.OnFinish()
			}
			if other.OnFinish != nil {
				other.OnFinish()
			}
		},
	}
}
