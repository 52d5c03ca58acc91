package observer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
)

// ErrAwaitingInput is returned by Forward when the producer is blocked on an
// input request and no further step can arrive until input is supplied.
var ErrAwaitingInput = errors.New("program is waiting for input")

// Timeline is the observer's history of taken snapshots.
// It is not safe for concurrent use; it belongs to the observer goroutine.
type Timeline struct {
	source  ports.StepSource
	steps   []domain.Snapshot
	cursor  int
	outputs []domain.OutputMark
	errors  []string
}

// NewTimeline creates an empty timeline over source. The cursor starts before
// the first step.
func NewTimeline(source ports.StepSource) *Timeline {
	return &Timeline{source: source, cursor: -1}
}

// Forward moves the cursor n steps ahead. Steps already in history are
// replayed; past the end, new snapshots are taken from the relay, waiting for
// the producer when necessary. It returns how many steps the cursor moved,
// which is less than n when the relay finished, when the producer waits for
// input (ErrAwaitingInput) or when ctx is done.
func (t *Timeline) Forward(ctx context.Context, n int) (int, error) {
	moved := 0
	for moved < n {
		if t.cursor+1 >= len(t.steps) {
			more, err := t.pull(ctx)
			if err != nil {
				return moved, err
			}
			if !more {
				return moved, nil
			}
		}
		t.cursor++
		moved++
	}
	return moved, nil
}

// pull appends the next snapshot from the relay, blocking until the producer
// publishes one. It reports false once the relay finished and nothing is left
// to take, and fails with ErrAwaitingInput while the producer waits for input.
func (t *Timeline) pull(ctx context.Context) (bool, error) {
	s, err := t.source.AwaitStep(ctx)
	switch {
	case err == nil:
		t.steps = append(t.steps, s)
		return true, nil
	case errors.Is(err, domain.ErrFinished):
		return false, nil
	case errors.Is(err, domain.ErrInputRequested):
		return false, ErrAwaitingInput
	}
	return false, err
}

// Back moves the cursor up to n steps back, stopping before the first step,
// and returns how far it moved.
func (t *Timeline) Back(n int) int {
	moved := 0
	for moved < n && t.cursor > -1 {
		t.cursor--
		moved++
	}
	return moved
}

// Rewind moves the cursor back before the first step.
func (t *Timeline) Rewind() {
	t.cursor = -1
}

// Cursor returns the index of the displayed step, or -1 before the first one.
func (t *Timeline) Cursor() int {
	return t.cursor
}

// Len returns the number of snapshots in history.
func (t *Timeline) Len() int {
	return len(t.steps)
}

// AtEnd reports whether the cursor shows the newest snapshot in history.
func (t *Timeline) AtEnd() bool {
	return t.cursor == len(t.steps)-1
}

// Current returns the snapshot under the cursor.
func (t *Timeline) Current() (domain.Snapshot, bool) {
	if t.cursor < 0 || t.cursor >= len(t.steps) {
		return domain.Snapshot{}, false
	}
	return t.steps[t.cursor], true
}

// Exhausted reports whether the relay finished and the cursor shows the
// last snapshot that will ever exist. A snapshot still held by the relay is
// moved into history first.
func (t *Timeline) Exhausted() bool {
	if !t.source.IsFinished() || !t.AtEnd() {
		return false
	}
	if s, ok := t.source.TakeStep(false); ok {
		t.steps = append(t.steps, s)
		return false
	}
	return true
}

// Collect drains the pending output and errors from the relay. Output is
// attached to the newest step in history. It returns the errors drained by
// this call.
func (t *Timeline) Collect() []string {
	for {
		text, ok := t.source.DrainOutput()
		if !ok {
			break
		}
		t.outputs = append(t.outputs, domain.OutputMark{Step: len(t.steps) - 1, Text: text})
	}

	var fresh []string
	for {
		msg, ok := t.source.DrainError()
		if !ok {
			break
		}
		fresh = append(fresh, msg)
	}
	t.errors = append(t.errors, fresh...)
	return fresh
}

// MessageAt returns the most recent output at or before step i. Chunks that
// were attached to the same step are joined with newlines.
func (t *Timeline) MessageAt(i int) string {
	last := -1
	for j := len(t.outputs) - 1; j >= 0; j-- {
		if t.outputs[j].Step <= i {
			last = j
			break
		}
	}
	if last < 0 {
		return ""
	}

	step := t.outputs[last].Step
	first := last
	for first > 0 && t.outputs[first-1].Step == step {
		first--
	}
	parts := make([]string, 0, last-first+1)
	for _, m := range t.outputs[first : last+1] {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

// Message returns the message for the step under the cursor.
func (t *Timeline) Message() string {
	return t.MessageAt(t.cursor)
}

// Errors returns every error drained so far, oldest first.
func (t *Timeline) Errors() []string {
	return append([]string(nil), t.errors...)
}

// Trace packages the history as a domain.Trace.
func (t *Timeline) Trace(id, program string) *domain.Trace {
	tr := &domain.Trace{
		ID:        id,
		Program:   program,
		CreatedAt: time.Now().UTC(),
		Steps:     t.steps,
		Outputs:   t.outputs,
		Errors:    t.errors,
	}
	return tr.Clone()
}

// FromTrace builds a read-only timeline over a recorded trace. Its source is
// already finished, so Forward only replays history.
func FromTrace(tr *domain.Trace) *Timeline {
	c := tr.Clone()
	t := NewTimeline(replaySource{})
	t.steps = c.Steps
	t.outputs = c.Outputs
	t.errors = c.Errors
	return t
}
