package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTraceStoreContract runs a suite of tests to verify that a TraceStore
// implementation adheres to the defined interface contract.
func RunTraceStoreContract(t *testing.T, store TraceStore) {
	ctx := context.Background()
	traceID := "contract-trace-" + time.Now().Format("20060102150405")

	newTrace := func(id string) *domain.Trace {
		return &domain.Trace{
			ID:        id,
			Program:   "contract.dots",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			Steps: []domain.Snapshot{
				domain.Capture(0, []domain.TokenView{{ID: 1, Value: 0, State: "moving"}}),
				domain.Capture(1, []domain.TokenView{
					{Pos: domain.Position{Col: 1}, ID: 1, Value: 3, State: "waiting", WaitAge: domain.Age(2)},
				}),
			},
			Outputs: []domain.OutputMark{{Step: 1, Text: "3\n"}},
			Errors:  []string{"boom"},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		trace := newTrace(traceID)

		err := store.Save(ctx, traceID, trace)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, traceID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, traceID, loaded.ID)
		assert.Equal(t, "contract.dots", loaded.Program)
		require.Len(t, loaded.Steps, 2)
		assert.Equal(t, uint64(1), loaded.Steps[1].Step)
		require.Len(t, loaded.Steps[1].Tokens, 1)
		tok := loaded.Steps[1].Tokens[0]
		assert.Equal(t, uint64(1), tok.ID)
		assert.Equal(t, "waiting", tok.State)
		require.NotNil(t, tok.WaitAge)
		assert.Equal(t, 2, *tok.WaitAge)
		// JSON persistence turns numbers into float64; only check presence.
		assert.NotNil(t, tok.Value)
		assert.Equal(t, []domain.OutputMark{{Step: 1, Text: "3\n"}}, loaded.Outputs)
		assert.Equal(t, []string{"boom"}, loaded.Errors)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+traceID)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, traceID, newTrace(traceID))
		require.NoError(t, err)

		err = store.Delete(ctx, traceID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, traceID)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound, "Load after Delete should return ErrTraceNotFound")

		assert.NoError(t, store.Delete(ctx, traceID), "Delete should be idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := traceID + "-1"
		id2 := traceID + "-2"
		require.NoError(t, store.Save(ctx, id1, newTrace(id1)))
		require.NoError(t, store.Save(ctx, id2, newTrace(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
