package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_WaitWakesOnPush(t *testing.T) {
	q := NewQueue[string]()
	stop := make(chan struct{})

	time.AfterFunc(20*time.Millisecond, func() { q.Push("late") })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := q.Wait(ctx, stop)
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestQueue_WaitStopped(t *testing.T) {
	q := NewQueue[string]()
	stop := make(chan struct{})
	close(stop)

	_, err := q.Wait(context.Background(), stop)
	assert.ErrorIs(t, err, errStopped)

	// Items queued before the stop are still handed out.
	q.Push("kept")
	v, err := q.Wait(context.Background(), stop)
	require.NoError(t, err)
	assert.Equal(t, "kept", v)
}

func TestQueue_StaleWakeup(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	v, ok := q.Pop() // leaves a wake-up token behind
	require.True(t, ok)
	assert.Equal(t, 1, v)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := q.Wait(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a stale wake-up must not return a zero value")
}
