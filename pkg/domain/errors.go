package domain

import "errors"

// ErrFinished is returned by context-aware relay calls when the relay reached
// its terminal state while the caller was waiting.
var ErrFinished = errors.New("relay finished")

// ErrInputRequested is returned by AwaitStep when the producer waits for an
// input that was not supplied yet.
var ErrInputRequested = errors.New("producer is waiting for input")

// ErrTraceNotFound is returned when a trace ID cannot be found in the store.
var ErrTraceNotFound = errors.New("trace not found")
