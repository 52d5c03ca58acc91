package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/steprelay/internal/config"
	"github.com/aretw0/steprelay/pkg/engine/grid"
	"github.com/aretw0/steprelay/pkg/observer"
)

// ReplayOptions contains the configuration of the replay command.
type ReplayOptions struct {
	TraceID string
	Config  config.Config
	In      io.Reader
	Out     io.Writer
}

// Replay browses a recorded trace with the same commands as a live session.
func Replay(ctx context.Context, opts ReplayOptions) error {
	cfg := opts.Config
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tr, err := observer.NewRecorder(store, logger).Open(ctx, opts.TraceID)
	if err != nil {
		return err
	}

	// The program may have moved since recording; replay without the board then.
	var lines []string
	if m, err := grid.Load(tr.Program); err == nil {
		lines = m.Lines()
	}

	printBanner(out, cfg.Observer.Format)

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	s := observer.NewReplaySession(tr, newHandler(cfg.Observer.Format, in, out, lines), sessionOptions(cfg.Observer, logger)...)
	return handleExecutionError(s.Run(sigCtx))
}
