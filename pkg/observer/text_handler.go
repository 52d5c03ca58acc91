package observer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler renders frames as coloured terminal text and reads commands
// line by line.
type TextHandler struct {
	Writer io.Writer

	in    *lineReader
	out   *termenv.Output
	board func(domain.Snapshot) string
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerProfile forces a colour profile instead of detecting it
// from the writer.
func WithTextHandlerProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.out = termenv.NewOutput(h.Writer, termenv.WithProfile(p))
	}
}

// WithBoard draws each snapshot with render below the frame header.
func WithBoard(render func(domain.Snapshot) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.board = render
	}
}

// NewTextHandler creates a handler for terminal IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		in:     newLineReader(r),
		out:    termenv.NewOutput(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Render(ctx context.Context, f Frame) error {
	fmt.Fprintln(h.Writer, h.out.String(header(f)).Bold())

	if f.Snapshot != nil && h.board != nil {
		fmt.Fprint(h.Writer, h.board(*f.Snapshot))
	}

	if f.Snapshot != nil {
		tokens := append([]domain.TokenView(nil), f.Snapshot.Tokens...)
		sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })
		for _, t := range tokens {
			label := h.out.String(t.Label()).Foreground(h.stateColor(t))
			fmt.Fprintf(h.Writer, "  %s %s\n", label, t.Pos)
		}
		if len(tokens) == 0 {
			fmt.Fprintln(h.Writer, h.out.String("  (no tokens)").Faint())
		}
	}

	if f.Message != "" {
		fmt.Fprintf(h.Writer, "  out: %s\n", f.Message)
	}
	for _, e := range f.Errors {
		fmt.Fprintln(h.Writer, h.out.String("  error: "+e).Foreground(h.out.Color("1")))
	}
	if f.AwaitingInput {
		fmt.Fprintln(h.Writer, h.out.String("  waiting for input: i <value>").Foreground(h.out.Color("3")))
	}
	return nil
}

func header(f Frame) string {
	s := "-- before first step"
	if f.Snapshot != nil {
		s = fmt.Sprintf("-- step %d (%d/%d)", f.Snapshot.Step, f.Cursor+1, f.Total)
	}
	if f.Auto {
		s += " [auto]"
	}
	if f.Finished {
		s += " [finished]"
	}
	return s + " --"
}

func (h *TextHandler) stateColor(t domain.TokenView) termenv.Color {
	switch {
	case t.Waiting():
		return h.out.Color("6")
	case t.State == "reading":
		return h.out.Color("3")
	}
	return h.out.Color("2")
}

func (h *TextHandler) Prompt(ctx context.Context) (string, error) {
	for {
		// Only show the prompt if ctx is not yet done.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		line, err := h.in.next(ctx)
		if err != nil {
			return "", err
		}

		clean, err := SanitizeInput(line)
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

func (h *TextHandler) Notice(ctx context.Context, msg string) error {
	fmt.Fprintln(h.Writer, h.out.String("[steprelay] "+msg).Faint())
	return nil
}
