/*
Package observer is the consuming side of a relay.

A Timeline keeps every snapshot it took so the user can move back and forth
through the execution, and attaches drained output to the step it appeared
at. A Session runs the interactive loop: it renders the current frame through
a Handler (text or JSON), reads a command and applies it.

Commands:

	<enter>, n, next   step forward (n <count> steps several)
	f, ff [count]      step forward five times count
	b, back            step back
	r, rewind          go back to before the first step
	a, auto            toggle auto-advance
	i, input <text>    answer a pending input request
	q, quit            stop the program
*/
package observer
