package ports

import (
	"context"

	"github.com/aretw0/steprelay/pkg/domain"
)

// TraceStore defines the interface for persisting recorded observer sessions.
type TraceStore interface {
	// Save persists the trace under the given ID, replacing any previous one.
	Save(ctx context.Context, id string, trace *domain.Trace) error

	// Load retrieves the trace for a given ID.
	// Returns domain.ErrTraceNotFound if the trace does not exist.
	Load(ctx context.Context, id string) (*domain.Trace, error)

	// Delete removes the trace. Deleting a missing trace is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of the stored traces.
	List(ctx context.Context) ([]string, error)
}
