package observer

import (
	"context"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Frame is everything a handler needs to draw one state of the session.
type Frame struct {
	// Cursor is the displayed step index, -1 before the first step.
	Cursor int `json:"cursor"`
	// Total is the number of steps in history.
	Total    int              `json:"total"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	// Message is the latest output at or before the cursor.
	Message string `json:"message,omitempty"`
	// Errors holds the errors drained since the previous frame.
	Errors        []string `json:"errors,omitempty"`
	AwaitingInput bool     `json:"awaiting_input"`
	Finished      bool     `json:"finished"`
	Auto          bool     `json:"auto"`
}

// Handler is the presentation strategy of a session.
// This allows switching between text (terminal) and JSON (structured) modes.
type Handler interface {
	// Render presents a frame.
	Render(ctx context.Context, f Frame) error

	// Prompt reads one command line from the user.
	// It returns io.EOF when the input stream ended.
	Prompt(ctx context.Context) (string, error)

	// Notice presents a meta-message (e.g. a rejected command).
	Notice(ctx context.Context, msg string) error
}
