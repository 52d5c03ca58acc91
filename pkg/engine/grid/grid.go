// Package grid is a small two-dimensional automaton used to drive a relay.
//
// A program is an ASCII grid. Every '.' spawns a token moving right. On each
// step every live token moves one cell and then executes the cell it landed on:
//
//	> < ^ v   change direction
//	0-9       set the value
//	+ -       increment or decrement the value
//	$         output the value
//	?         read an integer from input on the next step
//	*         join: the first token waits, the second merges into it
//	%         fork a new token moving down with the same value
//	&         end the program
//	!         report an error and kill the token
//
// A token that leaves the grid or lands on a blank dies. The program also ends
// when no tokens are left. Token ids are never reused.
package grid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/engine"
)

// Token states.
const (
	StateMoving  = "moving"
	StateReading = "reading"
	StateWaiting = "waiting"
)

// ErrNoStart is returned for programs without a '.' cell.
var ErrNoStart = errors.New("grid: program has no start cell")

var (
	right = domain.Position{Col: 1}
	left  = domain.Position{Col: -1}
	up    = domain.Position{Row: -1}
	down  = domain.Position{Row: 1}
)

type token struct {
	id    uint64
	pos   domain.Position
	dir   domain.Position
	value int
	state string
	age   int
	dead  bool
}

// Machine is a running grid program. It implements engine.Machine.
type Machine struct {
	cells  [][]rune
	tokens []*token
	nextID uint64
	ended  bool
}

var _ engine.Machine = (*Machine)(nil)

// Parse builds a machine from program source.
func Parse(src string) (*Machine, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")

	m := &Machine{cells: make([][]rune, len(lines))}
	for row, line := range lines {
		m.cells[row] = []rune(line)
		for col, c := range m.cells[row] {
			if c == '.' {
				m.spawn(domain.Position{Col: col, Row: row}, right, 0)
			}
		}
	}
	if len(m.tokens) == 0 {
		return nil, ErrNoStart
	}
	return m, nil
}

// Load reads and parses a program file.
func Load(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program %s: %w", path, err)
	}
	m, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse program %s: %w", path, err)
	}
	return m, nil
}

func (m *Machine) spawn(pos, dir domain.Position, value int) *token {
	m.nextID++
	t := &token{id: m.nextID, pos: pos, dir: dir, value: value, state: StateMoving}
	m.tokens = append(m.tokens, t)
	return t
}

func (m *Machine) cell(p domain.Position) rune {
	if p.Row < 0 || p.Row >= len(m.cells) || p.Col < 0 || p.Col >= len(m.cells[p.Row]) {
		return ' '
	}
	return m.cells[p.Row][p.Col]
}

// Lines returns the program source, one string per row.
func (m *Machine) Lines() []string {
	lines := make([]string, len(m.cells))
	for i, row := range m.cells {
		lines[i] = string(row)
	}
	return lines
}

// Tokens implements engine.Machine.
func (m *Machine) Tokens() []domain.TokenView {
	views := make([]domain.TokenView, 0, len(m.tokens))
	for _, t := range m.tokens {
		v := domain.TokenView{Pos: t.pos, ID: t.id, Value: t.value, State: t.state}
		if t.state == StateWaiting {
			v.WaitAge = domain.Age(t.age)
		}
		views = append(views, v)
	}
	return views
}

// Step implements engine.Machine.
func (m *Machine) Step(ctx context.Context, io engine.IO) (bool, error) {
	if m.ended {
		return true, nil
	}

	// Tokens forked during this step only move from the next one.
	live := len(m.tokens)
	for i := 0; i < live; i++ {
		t := m.tokens[i]
		if t.dead {
			continue
		}
		if err := m.advance(ctx, t, io); err != nil {
			return false, err
		}
	}
	m.reap()

	return m.ended || len(m.tokens) == 0, nil
}

func (m *Machine) advance(ctx context.Context, t *token, io engine.IO) error {
	switch t.state {
	case StateWaiting:
		t.age++
		return nil
	case StateReading:
		text, err := io.Input(ctx)
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(text))
		if convErr != nil {
			io.Error(fmt.Sprintf("token %d: invalid number %q", t.id, text))
		}
		t.value = n
		t.state = StateMoving
	}

	t.pos = t.pos.Add(t.dir)
	c := m.cell(t.pos)

	if c >= '0' && c <= '9' {
		t.value = int(c - '0')
		return nil
	}

	switch c {
	case ' ':
		t.dead = true
	case '>':
		t.dir = right
	case '<':
		t.dir = left
	case '^':
		t.dir = up
	case 'v':
		t.dir = down
	case '+':
		t.value++
	case '-':
		t.value--
	case '$':
		io.Output(strconv.Itoa(t.value))
	case '?':
		t.state = StateReading
	case '*':
		m.join(t)
	case '%':
		m.spawn(t.pos, down, t.value)
	case '&':
		m.ended = true
	case '!':
		io.Error(fmt.Sprintf("token %d hit an error cell at %s", t.id, t.pos))
		t.dead = true
	}
	return nil
}

// join parks t on its cell, or merges it into a token already waiting there.
func (m *Machine) join(t *token) {
	for _, w := range m.tokens {
		if w != t && !w.dead && w.state == StateWaiting && w.pos == t.pos {
			w.value += t.value
			w.state = StateMoving
			w.age = 0
			t.dead = true
			return
		}
	}
	t.state = StateWaiting
	t.age = 0
}

func (m *Machine) reap() {
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if !t.dead {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(m.tokens); i++ {
		m.tokens[i] = nil
	}
	m.tokens = kept
}
