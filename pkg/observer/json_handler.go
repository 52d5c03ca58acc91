package observer

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONHandler implements Handler for JSON-Lines communication: one object
// per frame or notice on the writer, one command per line on the reader.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	in *lineReader
}

type frameMessage struct {
	Type string `json:"type"`
	Frame
}

type noticeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
		in:      newLineReader(r),
	}
}

func (h *JSONHandler) Render(ctx context.Context, f Frame) error {
	return h.Encoder.Encode(frameMessage{Type: "frame", Frame: f})
}

func (h *JSONHandler) Notice(ctx context.Context, msg string) error {
	return h.Encoder.Encode(noticeMessage{Type: "notice", Message: msg})
}

// Prompt accepts either a JSON string ("i 5") or a raw line (i 5).
func (h *JSONHandler) Prompt(ctx context.Context) (string, error) {
	for {
		line, err := h.in.next(ctx)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)

		var val string
		if err := json.Unmarshal([]byte(line), &val); err != nil {
			val = line
		}

		clean, err := SanitizeInput(val)
		if err != nil {
			if nerr := h.Notice(ctx, err.Error()); nerr != nil {
				return "", nerr
			}
			continue
		}
		return clean, nil
	}
}
