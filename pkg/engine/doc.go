// Package engine drives an interpreter from the producer side of a relay.
//
// A Machine advances one step at a time. The Driver publishes a snapshot of the
// machine's live tokens after every step, which blocks until the observer has
// consumed it, and always signals the relay finished when the run ends,
// including when the machine fails or panics.
//
//	r := relay.New()
//	d := engine.NewDriver(machine, r, engine.WithMaxSteps(10_000))
//	go d.Run(ctx)
package engine
