package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/steprelay/internal/config"
)

// ListTraces writes the ids of every recorded trace to w, one per line.
func ListTraces(ctx context.Context, cfg config.Config, w io.Writer) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// DeleteTrace removes one recorded trace.
func DeleteTrace(ctx context.Context, cfg config.Config, id string) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trace %s: %w", id, err)
	}
	logger.Info("trace deleted", "trace_id", id)
	return nil
}
