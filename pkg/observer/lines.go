package observer

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

type lineResult struct {
	text string
	err  error
}

// lineReader reads lines on a pump goroutine so that waiting for the next
// line can be abandoned when a context is done.
type lineReader struct {
	reader *bufio.Reader
	lines  chan lineResult
	once   sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

func (l *lineReader) start() {
	l.once.Do(func() {
		l.lines = make(chan lineResult)
		go l.pump()
	})
}

func (l *lineReader) pump() {
	for {
		text, err := l.reader.ReadString('\n')

		// A final line without a newline still counts.
		if text != "" {
			l.lines <- lineResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(l.lines)
				return
			}
			l.lines <- lineResult{err: err}
			// Back off so a persistent read failure does not spin.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// next returns the next line without its line terminator.
func (l *lineReader) next(ctx context.Context) (string, error) {
	l.start()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}
