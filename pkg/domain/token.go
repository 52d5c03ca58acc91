package domain

import "fmt"

// Position is a 2D integer coordinate on the program grid.
type Position struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Add returns p shifted by d.
func (p Position) Add(d Position) Position {
	return Position{Col: p.Col + d.Col, Row: p.Row + d.Row}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

// TokenView is a read-only copy of one execution unit at a step boundary.
type TokenView struct {
	Pos Position `json:"pos"`

	// ID is assigned when the token is created and never reused.
	ID uint64 `json:"id"`

	// Value is the token payload. The relay treats it as opaque; producers
	// should only store immutable values (numbers, strings) here.
	Value any `json:"value"`

	// State is the name of the token's current automaton state.
	State string `json:"state"`

	// WaitAge counts the ticks spent in a waiting state.
	// It is nil for tokens that are not waiting.
	WaitAge *int `json:"wait_age,omitempty"`
}

// Waiting reports whether the token is in a waiting sub-state.
func (t TokenView) Waiting() bool {
	return t.WaitAge != nil
}

// Clone returns a copy of t that shares no memory with it.
func (t TokenView) Clone() TokenView {
	c := t
	if t.WaitAge != nil {
		age := *t.WaitAge
		c.WaitAge = &age
	}
	return c
}

// Label formats the token the way the debugger tooltip shows it:
// "#value @id ~state", followed by " Wn" while the token is waiting.
func (t TokenView) Label() string {
	s := fmt.Sprintf("#%v @%d ~%s", t.Value, t.ID, t.State)
	if t.WaitAge != nil {
		s += fmt.Sprintf(" W%d", *t.WaitAge)
	}
	return s
}

// Age is a helper for building a WaitAge pointer.
func Age(n int) *int {
	return &n
}
