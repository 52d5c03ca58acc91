package observer

import (
	"context"

	"github.com/aretw0/steprelay/pkg/domain"
)

// replaySource is a StepSource for a recorded trace: finished from the start
// and always empty.
type replaySource struct{}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func (replaySource) SignalFinished()       {}
func (replaySource) IsFinished() bool      { return true }
func (replaySource) Done() <-chan struct{} { return closed }

func (replaySource) TakeStep(bool) (domain.Snapshot, bool) { return domain.Snapshot{}, false }

func (replaySource) TakeStepContext(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, domain.ErrFinished
}

func (replaySource) AwaitStep(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, domain.ErrFinished
}

// The input state of a recording never changes.
func (replaySource) InputState() (bool, <-chan struct{}) { return false, nil }

func (replaySource) DrainOutput() (string, bool) { return "", false }
func (replaySource) DrainError() (string, bool)  { return "", false }
func (replaySource) SupplyInput(string)          {}
func (replaySource) AwaitingInput() bool         { return false }
