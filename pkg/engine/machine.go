package engine

import (
	"context"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Machine is an interpreter that can be advanced one step at a time.
type Machine interface {
	// Tokens returns views of the live tokens. The driver copies them before
	// publishing, so the machine may keep mutating its own state.
	Tokens() []domain.TokenView
	// Step advances the machine by one tick. It reports done when the program
	// ended normally.
	Step(ctx context.Context, io IO) (done bool, err error)
}

// IO is the side-channel surface a Machine uses while stepping.
type IO interface {
	Output(text string)
	Error(msg string)
	// Input blocks until the observer supplies a value. It returns
	// domain.ErrFinished if the relay finished first.
	Input(ctx context.Context) (string, error)
}
