package observer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FastForward is the number of steps taken by the "f" command; "f N"
// takes N times as many.
const FastForward = 5

// Action is what a command asks the session to do.
type Action int

const (
	ActStep Action = iota
	ActBack
	ActRewind
	ActAuto
	ActInput
	ActQuit
)

func (a Action) String() string {
	switch a {
	case ActStep:
		return "step"
	case ActBack:
		return "back"
	case ActRewind:
		return "rewind"
	case ActAuto:
		return "auto"
	case ActInput:
		return "input"
	case ActQuit:
		return "quit"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Command is a parsed observer command.
type Command struct {
	Action Action
	Count  int
	Text   string
}

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand parses one line of user input.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "", "n", "next":
		n, err := count(rest)
		return Command{Action: ActStep, Count: n}, err
	case "f", "ff":
		// "f 3" jumps three times FastForward steps.
		n, err := count(rest)
		return Command{Action: ActStep, Count: n * FastForward}, err
	case "b", "back":
		n, err := count(rest)
		return Command{Action: ActBack, Count: n}, err
	case "r", "rewind":
		return Command{Action: ActRewind}, noArgs(name, rest)
	case "a", "auto":
		return Command{Action: ActAuto}, noArgs(name, rest)
	case "i", "input":
		// The untrimmed remainder is the value.
		_, raw, _ := strings.Cut(line, " ")
		return Command{Action: ActInput, Text: raw}, nil
	case "q", "quit", "exit":
		return Command{Action: ActQuit}, noArgs(name, rest)
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func noArgs(name, arg string) error {
	if arg != "" {
		return fmt.Errorf("%s takes no argument, got %q", name, arg)
	}
	return nil
}

func count(arg string) (int, error) {
	if arg == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step count %q", arg)
	}
	return n, nil
}
