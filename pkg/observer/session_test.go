package observer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/engine"
	"github.com/aretw0/steprelay/pkg/engine/grid"
	"github.com/aretw0/steprelay/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHandler records every frame and notice and answers prompts with
// answer(lastFrame). After limit prompts it reports end of input.
type scriptedHandler struct {
	frames  []Frame
	notices []string
	answer  func(Frame) string
	prompts int
	limit   int
}

func (h *scriptedHandler) Render(ctx context.Context, f Frame) error {
	h.frames = append(h.frames, f)
	return nil
}

func (h *scriptedHandler) Prompt(ctx context.Context) (string, error) {
	if h.prompts >= h.limit {
		return "", io.EOF
	}
	h.prompts++
	return h.answer(h.frames[len(h.frames)-1]), nil
}

func (h *scriptedHandler) Notice(ctx context.Context, msg string) error {
	h.notices = append(h.notices, msg)
	return nil
}

func always(line string) func(Frame) string {
	return func(Frame) string { return line }
}

func runSession(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	select {
	case err := <-errc:
		return err
	case <-time.After(6 * time.Second):
		t.Fatal("session hung")
		return nil
	}
}

func TestSession_RunsGridProgram(t *testing.T) {
	m, err := grid.Parse(".?+$")
	require.NoError(t, err)

	r := relay.New()
	driverErr := make(chan error, 1)
	go func() { driverErr <- engine.NewDriver(m, r).Run(context.Background()) }()

	supplied := false
	h := &scriptedHandler{
		limit: 50,
		answer: func(f Frame) string {
			if f.AwaitingInput && !supplied {
				supplied = true
				return "i 7"
			}
			return "n"
		},
	}
	s := NewSession(r, h)

	require.NoError(t, runSession(t, s))
	require.NoError(t, <-driverErr)

	assert.True(t, supplied, "the program asked for input")
	assert.Equal(t, 5, s.Timeline().Len())
	require.NotEmpty(t, h.notices)
	assert.Equal(t, "program finished", h.notices[len(h.notices)-1])

	last := h.frames[len(h.frames)-1]
	assert.True(t, last.Finished)
	assert.Equal(t, 4, last.Cursor)
	assert.Equal(t, "8", last.Message)
}

func TestSession_SecondInputRejected(t *testing.T) {
	r := relay.New()
	got := make(chan string, 1)
	go func() {
		defer r.SignalFinished()
		r.PublishStep(domain.Capture(0, nil))
		text, _ := r.RequestInput()
		got <- text
		r.PublishStep(domain.Capture(1, nil))
	}()

	// Step onto the request, answer it twice, then step on.
	lines := []string{"n", "n", "i 1", "i 2", "n", "q"}
	h := &scriptedHandler{limit: len(lines)}
	h.answer = func(Frame) string { return lines[h.prompts-1] }

	require.NoError(t, runSession(t, NewSession(r, h)))

	assert.Equal(t, "1", <-got)
	assert.Contains(t, h.notices, ErrNotAwaitingInput.Error(), "the second answer is refused")
	assert.Equal(t, uint64(1), r.Stats().Inputs)
}

func TestSession_QuitFinishesRelay(t *testing.T) {
	r := relay.New()
	produce(r, 100)
	h := &scriptedHandler{limit: 10, answer: always("q")}

	require.NoError(t, runSession(t, NewSession(r, h)))
	assert.True(t, r.IsFinished())
	assert.Equal(t, 1, h.prompts)
}

func TestSession_EndOfInputFinishesRelay(t *testing.T) {
	r := relay.New()
	produce(r, 100)
	h := &scriptedHandler{limit: 2, answer: always("n")}

	s := NewSession(r, h)
	require.NoError(t, runSession(t, s))
	assert.True(t, r.IsFinished())
	assert.Equal(t, 2, s.Timeline().Len())
}

func TestSession_Notices(t *testing.T) {
	r := relay.New()
	produce(r, 100)
	lines := []string{"i 3", "bogus", "n 0", "q"}
	h := &scriptedHandler{limit: len(lines)}
	h.answer = func(Frame) string { return lines[h.prompts-1] }

	require.NoError(t, runSession(t, NewSession(r, h)))
	require.Len(t, h.notices, 3)
	assert.Equal(t, ErrNotAwaitingInput.Error(), h.notices[0])
	assert.Contains(t, h.notices[1], ErrUnknownCommand.Error())
	assert.Contains(t, h.notices[2], "invalid step count")
}

func TestSession_BackAndRewind(t *testing.T) {
	r := relay.New()
	produce(r, 100)
	lines := []string{"n 3", "b", "r", "q"}
	h := &scriptedHandler{limit: len(lines)}
	h.answer = func(Frame) string { return lines[h.prompts-1] }

	require.NoError(t, runSession(t, NewSession(r, h)))

	var cursors []int
	for _, f := range h.frames {
		cursors = append(cursors, f.Cursor)
	}
	assert.Equal(t, []int{-1, 2, 1, -1}, cursors)
}

func TestSession_Auto(t *testing.T) {
	r := relay.New()
	produce(r, 4)
	h := &scriptedHandler{limit: 0, answer: always("n")}

	s := NewSession(r, h, WithAuto(true), WithAutoDelay(time.Millisecond))
	require.NoError(t, runSession(t, s))

	assert.Equal(t, 0, h.prompts, "auto mode does not prompt")
	assert.Equal(t, 4, s.Timeline().Len())
	for _, f := range h.frames {
		assert.True(t, f.Auto)
	}
}

func TestSession_ContextCancel(t *testing.T) {
	r := relay.New()
	produce(r, 100)
	h := &blockingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewSession(r, h).Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("session ignored cancellation")
	}
	assert.True(t, r.IsFinished())
}

type blockingHandler struct{}

func (blockingHandler) Render(ctx context.Context, f Frame) error { return nil }
func (blockingHandler) Notice(ctx context.Context, msg string) error {
	return nil
}
func (blockingHandler) Prompt(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestReplaySession(t *testing.T) {
	tr := &domain.Trace{
		ID: "t1",
		Steps: []domain.Snapshot{
			domain.Capture(0, nil),
			domain.Capture(1, []domain.TokenView{{ID: 1, Value: 2}}),
			domain.Capture(2, nil),
		},
		Outputs: []domain.OutputMark{{Step: 1, Text: "2"}},
	}
	h := &scriptedHandler{limit: 10, answer: always("n")}

	s := NewReplaySession(tr, h)
	require.NoError(t, runSession(t, s))

	assert.Equal(t, 3, h.prompts)
	last := h.frames[len(h.frames)-1]
	assert.Equal(t, 2, last.Cursor)
	assert.Equal(t, "2", last.Message)
	assert.True(t, last.Finished)
	assert.Equal(t, "program finished", h.notices[len(h.notices)-1])
}
