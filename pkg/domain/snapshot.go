package domain

// Snapshot is every live token captured at one global step boundary.
// Once published it must never be mutated by the producer.
type Snapshot struct {
	// Step is the index of the step boundary, starting at 0 for the initial
	// state before any step ran.
	Step   uint64      `json:"step"`
	Tokens []TokenView `json:"tokens"`
}

// Capture builds a snapshot from live token views, cloning each one so the
// result does not alias the caller's slice or any of its pointers.
func Capture(step uint64, live []TokenView) Snapshot {
	tokens := make([]TokenView, len(live))
	for i, t := range live {
		tokens[i] = t.Clone()
	}
	return Snapshot{Step: step, Tokens: tokens}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Capture(s.Step, s.Tokens)
}

// At returns the tokens located at pos, in capture order.
func (s Snapshot) At(pos Position) []TokenView {
	var out []TokenView
	for _, t := range s.Tokens {
		if t.Pos == pos {
			out = append(out, t)
		}
	}
	return out
}

// Token returns the token with the given identity, if it is live in s.
func (s Snapshot) Token(id uint64) (TokenView, bool) {
	for _, t := range s.Tokens {
		if t.ID == id {
			return t, true
		}
	}
	return TokenView{}, false
}
