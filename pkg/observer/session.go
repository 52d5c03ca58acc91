package observer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
)

// ErrNotAwaitingInput rejects an input command while the producer is not
// blocked on an input request.
var ErrNotAwaitingInput = errors.New("program is not waiting for input")

// DefaultAutoDelay is the pause between steps in auto mode.
const DefaultAutoDelay = 200 * time.Millisecond

var errQuit = errors.New("quit")

// Session is the observer loop: render, read a command, apply it.
type Session struct {
	source   ports.StepSource
	handler  Handler
	timeline *Timeline
	logger   *slog.Logger
	auto     bool
	delay    time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger configures the structured logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuto starts the session in auto-advance mode.
func WithAuto(auto bool) SessionOption {
	return func(s *Session) {
		s.auto = auto
	}
}

// WithAutoDelay sets the pause between auto-advanced steps.
func WithAutoDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.delay = d
	}
}

// NewSession creates a session observing source through handler.
func NewSession(source ports.StepSource, handler Handler, opts ...SessionOption) *Session {
	s := &Session{
		source:   source,
		handler:  handler,
		timeline: NewTimeline(source),
		logger:   logging.NewNop(),
		delay:    DefaultAutoDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReplaySession creates a session that browses a recorded trace.
func NewReplaySession(tr *domain.Trace, handler Handler, opts ...SessionOption) *Session {
	s := NewSession(replaySource{}, handler, opts...)
	s.timeline = FromTrace(tr)
	return s
}

// Timeline returns the session history.
func (s *Session) Timeline() *Timeline {
	return s.timeline
}

// Run drives the session until the program finished and the last step is on
// screen, the user quits, the input ends or ctx is done. Quitting, end of
// input and cancellation all finish the relay so the producer stops too.
func (s *Session) Run(ctx context.Context) error {
	for {
		done := s.timeline.Exhausted()
		if err := s.handler.Render(ctx, s.frame()); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if done {
			s.logger.Debug("session: program finished", "steps", s.timeline.Len())
			return s.handler.Notice(ctx, "program finished")
		}

		cmd, err := s.next(ctx)
		if err != nil {
			s.source.SignalFinished()
			if errors.Is(err, io.EOF) {
				s.logger.Debug("session: input closed")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("prompt failed: %w", err)
		}

		if err := s.apply(ctx, cmd); err != nil {
			switch {
			case errors.Is(err, errQuit):
				return nil
			case ctx.Err() != nil:
				s.source.SignalFinished()
				return ctx.Err()
			}
			if nerr := s.handler.Notice(ctx, err.Error()); nerr != nil {
				return nerr
			}
		}
	}
}

// next returns the next command, either auto-generated or read from the user.
func (s *Session) next(ctx context.Context) (Command, error) {
	if s.auto && !s.source.AwaitingInput() {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case <-timer.C:
		}
		return Command{Action: ActStep, Count: 1}, nil
	}

	for {
		line, err := s.handler.Prompt(ctx)
		if err != nil {
			return Command{}, err
		}
		cmd, err := ParseCommand(line)
		if err == nil {
			return cmd, nil
		}
		if nerr := s.handler.Notice(ctx, err.Error()); nerr != nil {
			return Command{}, nerr
		}
	}
}

func (s *Session) apply(ctx context.Context, cmd Command) error {
	s.logger.Debug("session: command", "action", cmd.Action, "count", cmd.Count)

	switch cmd.Action {
	case ActStep:
		_, err := s.timeline.Forward(ctx, cmd.Count)
		if errors.Is(err, ErrAwaitingInput) {
			return fmt.Errorf("%w: type i <value>", err)
		}
		return err
	case ActBack:
		s.timeline.Back(cmd.Count)
	case ActRewind:
		s.timeline.Rewind()
	case ActAuto:
		s.auto = !s.auto
	case ActInput:
		if !s.source.AwaitingInput() {
			return ErrNotAwaitingInput
		}
		clean, err := SanitizeInput(cmd.Text)
		if err != nil {
			return err
		}
		s.source.SupplyInput(clean)
	case ActQuit:
		s.source.SignalFinished()
		return errQuit
	}
	return nil
}

func (s *Session) frame() Frame {
	tl := s.timeline
	f := Frame{
		Cursor:        tl.Cursor(),
		Total:         tl.Len(),
		Errors:        tl.Collect(),
		Message:       tl.Message(),
		Finished:      s.source.IsFinished(),
		AwaitingInput: tl.AtEnd() && s.source.AwaitingInput(),
		Auto:          s.auto,
	}
	if snap, ok := tl.Current(); ok {
		f.Snapshot = &snap
	}
	return f
}
