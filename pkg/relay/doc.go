/*
Package relay implements the execution relay: the only object shared between
the interpreter goroutine (the producer of steps) and the observer goroutine
(the consumer of steps).

The relay composes:

  - a single-slot step mailbox with backpressure: PublishStep stores one
    snapshot and blocks until the observer took it, so the interpreter never
    runs more than one step ahead of the observer;
  - unbounded FIFO queues for output chunks, error notifications and input
    values;
  - a terminal finished flag that releases every blocked call on both sides.

All waits are channel receives; nothing spins. SignalFinished may be called
from either side, any number of times.

# Usage

	r := relay.New(relay.WithLogger(logger))

	go func() {
		defer r.SignalFinished()
		for step := uint64(0); step < 3; step++ {
			r.PublishStep(domain.Capture(step, machine.Tokens()))
		}
	}()

	for {
		snap, ok := r.TakeStep(true)
		if !ok {
			break // finished
		}
		render(snap)
	}
*/
package relay
