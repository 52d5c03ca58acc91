package observer

import (
	"context"
	"testing"

	"github.com/aretw0/steprelay/pkg/adapters/memory"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordAndOpen(t *testing.T) {
	r := relay.New()
	produce(r, 3)
	tl := NewTimeline(r)
	forward(t, tl, 3)
	r.EmitOutput("done")
	r.EmitError("late")
	tl.Collect()

	ctx := context.Background()
	rec := NewRecorder(memory.NewStore(), nil)

	id, err := rec.Record(ctx, tl, "demo.grid")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	tr, err := rec.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, tr.ID)
	assert.Equal(t, "demo.grid", tr.Program)
	assert.Len(t, tr.Steps, 3)
	assert.Equal(t, []domain.OutputMark{{Step: 2, Text: "done"}}, tr.Outputs)
	assert.Equal(t, []string{"late"}, tr.Errors)

	replay := FromTrace(tr)
	moved, err := replay.Forward(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)
	assert.Equal(t, "done", replay.Message())
}

func TestRecorder_OpenMissing(t *testing.T) {
	rec := NewRecorder(memory.NewStore(), nil)
	_, err := rec.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrTraceNotFound)
}
