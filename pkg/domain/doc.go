/*
Package domain contains the core data model shared by the execution relay,
the producer driver and every observer.

It is kept free of I/O and synchronization so that snapshots can be copied,
serialized and compared without touching the relay.

# Key Entities

  - TokenView: an immutable copy of one live execution unit (position, identity,
    value, state label and optional wait age).
  - Snapshot: every live token captured at a single global step boundary.
  - Trace: a recorded sequence of snapshots plus the output and errors the
    observer collected, used for replay and persistence.
  - RelayHooks: optional callbacks for observing relay traffic.
*/
package domain
