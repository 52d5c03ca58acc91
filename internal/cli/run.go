package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/steprelay"
	"github.com/aretw0/steprelay/internal/config"
	"github.com/aretw0/steprelay/pkg/engine/grid"
	"github.com/aretw0/steprelay/pkg/observability"
	"github.com/aretw0/steprelay/pkg/observer"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	Program string
	Config  config.Config

	// In and Out default to the process stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// Run loads a grid program, drives it through a relay and observes it
// interactively. With recording enabled the observed history is saved as a
// trace when the session ends.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	quiet := cfg.Observer.Format == "json"

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	m, err := grid.Load(opts.Program)
	if err != nil {
		return err
	}

	printBanner(out, cfg.Observer.Format)

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	dbg := steprelay.Attach(sigCtx, m,
		steprelay.WithLogger(logger),
		steprelay.WithHooks(observability.LogHooks(logger)),
		steprelay.WithMaxSteps(cfg.Engine.MaxSteps),
		steprelay.WithInputTimeout(cfg.Engine.InputTimeout),
	)

	handler := newHandler(cfg.Observer.Format, in, out, m.Lines())
	tl, runErr := dbg.Observe(sigCtx, handler, sessionOptions(cfg.Observer, logger)...)

	if cfg.Observer.Record && tl.Len() > 0 {
		// The session context may already be cancelled.
		id, err := record(context.WithoutCancel(ctx), cfg, tl, opts.Program)
		if err != nil {
			runErr = errors.Join(runErr, err)
		} else if !quiet {
			printSystemMessage(out, "Trace recorded: %s", id)
		}
	}

	logCompletion(out, runErr, sigCtx.Signal(), quiet)
	return handleExecutionError(runErr)
}

func record(ctx context.Context, cfg config.Config, tl *observer.Timeline, program string) (string, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return "", err
	}
	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return "", err
	}
	defer closeStore()

	id, err := observer.NewRecorder(store, logger).Record(ctx, tl, program)
	if err != nil {
		return "", fmt.Errorf("recording failed: %w", err)
	}
	return id, nil
}
