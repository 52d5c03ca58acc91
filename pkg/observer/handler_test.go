package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() Frame {
	snap := domain.Capture(3, []domain.TokenView{
		{ID: 2, Pos: domain.Position{Col: 4, Row: 1}, Value: 7, State: "waiting", WaitAge: domain.Age(2)},
		{ID: 1, Pos: domain.Position{Col: 1, Row: 0}, Value: 5, State: "moving"},
	})
	return Frame{
		Cursor:        3,
		Total:         4,
		Snapshot:      &snap,
		Message:       "42",
		Errors:        []string{"division by zero"},
		AwaitingInput: true,
		Finished:      true,
	}
}

func TestTextHandler_Render(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerProfile(termenv.Ascii))

	require.NoError(t, h.Render(context.Background(), sampleFrame()))

	text := out.String()
	assert.Contains(t, text, "-- step 3 (4/4) [finished] --")
	assert.Contains(t, text, "#5 @1 ~moving (1,0)")
	assert.Contains(t, text, "#7 @2 ~waiting W2 (4,1)")
	assert.Less(t, strings.Index(text, "@1"), strings.Index(text, "@2"), "tokens sorted by id")
	assert.Contains(t, text, "out: 42")
	assert.Contains(t, text, "error: division by zero")
	assert.Contains(t, text, "waiting for input")
}

func TestTextHandler_RenderBeforeFirstStep(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerProfile(termenv.Ascii))

	require.NoError(t, h.Render(context.Background(), Frame{Cursor: -1, Auto: true}))
	assert.Contains(t, out.String(), "-- before first step [auto] --")
}

func TestTextHandler_Prompt(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("n\r\nbad\x00line\n" + strings.Repeat("x", DefaultMaxInputSize+1) + "\nlast")
	h := NewTextHandler(in, &out, WithTextHandlerProfile(termenv.Ascii))
	ctx := context.Background()

	line, err := h.Prompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "n", line)

	line, err = h.Prompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "badline", line)

	// The oversized line is rejected and the prompt retries.
	line, err = h.Prompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", line)
	assert.Contains(t, out.String(), "Please try again")

	_, err = h.Prompt(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_PromptCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	h := NewTextHandler(pr, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Prompt(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJSONHandler(t *testing.T) {
	var out bytes.Buffer
	h := NewJSONHandler(strings.NewReader("\"i 5\"\nb\n"), &out)
	ctx := context.Background()

	require.NoError(t, h.Render(ctx, sampleFrame()))
	require.NoError(t, h.Notice(ctx, "hello"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var frame map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &frame))
	assert.Equal(t, "frame", frame["type"])
	assert.Equal(t, float64(3), frame["cursor"])
	assert.Equal(t, true, frame["awaiting_input"])
	snap := frame["snapshot"].(map[string]any)
	assert.Len(t, snap["tokens"], 2)

	assert.JSONEq(t, `{"type":"notice","message":"hello"}`, lines[1])

	line, err := h.Prompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "i 5", line)

	line, err = h.Prompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", line)

	_, err = h.Prompt(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_RenderBoard(t *testing.T) {
	var out bytes.Buffer
	var seen uint64
	board := func(s domain.Snapshot) string {
		seen = s.Step
		return "  | board\n"
	}
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerProfile(termenv.Ascii), WithBoard(board))

	require.NoError(t, h.Render(context.Background(), sampleFrame()))

	text := out.String()
	assert.Equal(t, uint64(3), seen)
	assert.Less(t, strings.Index(text, "board"), strings.Index(text, "@1"), "board drawn before the token list")

	out.Reset()
	require.NoError(t, h.Render(context.Background(), Frame{Cursor: -1}))
	assert.NotContains(t, out.String(), "board")
}
