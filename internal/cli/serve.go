package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/steprelay"
	"github.com/aretw0/steprelay/internal/config"
	httpadapter "github.com/aretw0/steprelay/pkg/adapters/http"
	"github.com/aretw0/steprelay/pkg/engine/grid"
	"github.com/aretw0/steprelay/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration of the serve command.
type ServeOptions struct {
	Program string
	Config  config.Config

	// Listener overrides Config.Server.Addr when set.
	Listener net.Listener
}

// Serve drives a grid program and exposes the observer side of its relay over
// HTTP until ctx is cancelled or a signal arrives.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	m, err := grid.Load(opts.Program)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg)

	dbg := steprelay.Attach(sigCtx, m,
		steprelay.WithLogger(logger),
		steprelay.WithHooks(metrics.Hooks()),
		steprelay.WithHooks(observability.LogHooks(logger)),
		steprelay.WithMaxSteps(cfg.Engine.MaxSteps),
		steprelay.WithInputTimeout(cfg.Engine.InputTimeout),
	)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpadapter.NewHandler(dbg.Relay(),
			httpadapter.WithLogger(logger),
			httpadapter.WithVersion(steprelay.Version),
			httpadapter.WithGatherer(reg),
			httpadapter.WithStepTimeout(cfg.Server.StepTimeout),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if opts.Listener != nil {
			logger.Info("observer server listening", "addr", opts.Listener.Addr().String(), "program", opts.Program)
			serverErrors <- srv.Serve(opts.Listener)
			return
		}
		logger.Info("observer server listening", "addr", srv.Addr, "program", opts.Program)
		serverErrors <- srv.ListenAndServe()
	}()

	go func() {
		<-dbg.Done()
		logger.Info("program finished; server keeps serving until shutdown")
	}()

	var serveErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info("shutting down", "signal", sigCtx.Signal())
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			_ = srv.Close()
		}
	}

	perr := dbg.Stop()
	return handleExecutionError(errors.Join(serveErr, perr))
}
