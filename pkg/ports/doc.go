/*
Package ports defines the interfaces that separate the execution relay from
its collaborators.

The relay is shared by exactly one producer and one observer. Instead of
handing both sides the full relay, each side receives the narrow view it is
allowed to use, so a component cannot accidentally act as the other role.

# Key Interfaces

  - StepSink: the producer view (publish steps, emit output and errors, request input).
  - StepSource: the observer view (take steps, drain output and errors, supply input).
  - TraceStore: persistence for recorded observer sessions.
*/
package ports
