package observer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
	"github.com/google/uuid"
)

// Recorder persists observer timelines as traces.
type Recorder struct {
	store  ports.TraceStore
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to store. A nil logger disables logging.
func NewRecorder(store ports.TraceStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{store: store, logger: logger}
}

// Record saves tl under a new id and returns the id.
func (r *Recorder) Record(ctx context.Context, tl *Timeline, program string) (string, error) {
	id := uuid.NewString()
	tr := tl.Trace(id, program)
	if err := r.store.Save(ctx, id, tr); err != nil {
		return "", fmt.Errorf("failed to save trace %s: %w", id, err)
	}
	r.logger.Info("trace recorded", "trace_id", id, "steps", len(tr.Steps), "program", program)
	return id, nil
}

// Open loads a recorded trace.
func (r *Recorder) Open(ctx context.Context, id string) (*domain.Trace, error) {
	tr, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace %s: %w", id, err)
	}
	return tr, nil
}
