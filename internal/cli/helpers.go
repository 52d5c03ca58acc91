package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/steprelay"
	"github.com/aretw0/steprelay/internal/config"
	"github.com/aretw0/steprelay/internal/logging"
	"github.com/aretw0/steprelay/internal/presentation/board"
	"github.com/aretw0/steprelay/internal/presentation/tui"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/observer"
	"golang.org/x/term"
)

// newLogger builds the application logger. Logs go to stderr so they never
// mix with the observer's frames on stdout.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.LogFormat), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printBanner(w io.Writer, format string) {
	if format == "text" && isTerminal(w) {
		tui.PrintBanner(w, steprelay.Version)
	}
}

// newHandler builds the observer handler for format. Text handlers draw the
// program grid when lines is not empty.
func newHandler(format string, in io.Reader, out io.Writer, lines []string) observer.Handler {
	if format == "json" {
		return observer.NewJSONHandler(in, out)
	}
	var opts []observer.TextHandlerOption
	if len(lines) > 0 {
		opts = append(opts, observer.WithBoard(func(s domain.Snapshot) string {
			return board.GenerateBoard(lines, &board.Overlay{Tokens: s.Tokens})
		}))
	}
	return observer.NewTextHandler(in, out, opts...)
}

func sessionOptions(cfg config.ObserverConfig, logger *slog.Logger) []observer.SessionOption {
	return []observer.SessionOption{
		observer.WithSessionLogger(logger),
		observer.WithAuto(cfg.Auto),
		observer.WithAutoDelay(cfg.AutoDelay),
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

func logCompletion(w io.Writer, err error, sig os.Signal, quiet bool) {
	if quiet {
		return
	}
	switch {
	case err == nil:
		printSystemMessage(w, "Session ended.")
	case sig == os.Interrupt:
		fmt.Fprintf(w, "[CTRL+C]\n")
		printSystemMessage(w, "Interrupted.")
	case sig != nil:
		fmt.Fprintf(w, "\n")
		printSystemMessage(w, "Terminated.")
	case isInterrupted(err):
		printSystemMessage(w, "Interrupted.")
	}
}
