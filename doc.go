/*
Package steprelay couples a step-by-step program interpreter with a visual
debugger that observes it.

The interpreter (the producer) and the debugger (the observer) run in separate
goroutines and share one relay. After every step the producer publishes a
snapshot of its execution tokens and blocks until the observer consumed it, so
the observer never misses a step and the producer never runs ahead. Produced
output and error notifications travel through non-blocking FIFOs, input flows
back from the observer on request, and either side may finish the session at
any time.

# Packages

  - pkg/relay: the relay itself (mailbox, queues, lifecycle flag).
  - pkg/engine: the producer-side driver around any Machine.
  - pkg/observer: the observer-side timeline, command loop and terminal/JSON handlers.
  - pkg/adapters/http: a remote observer over HTTP, SSE and WebSocket.
  - pkg/observability: Prometheus metrics and structured logs through relay hooks.

# Usage

Attach a machine and observe it:

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/steprelay"
		"github.com/aretw0/steprelay/pkg/engine/grid"
		"github.com/aretw0/steprelay/pkg/observer"
	)

	func main() {
		m, err := grid.Load("hello.grid")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		dbg := steprelay.Attach(ctx, m)

		h := observer.NewTextHandler(os.Stdin, os.Stdout)
		if _, err := dbg.Observe(ctx, h); err != nil {
			log.Fatal(err)
		}
	}
*/
package steprelay
