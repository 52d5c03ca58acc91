package domain

import "time"

// OutputMark is an output chunk tagged with the newest step in the observer's
// history at the time the chunk was drained.
type OutputMark struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// Trace is a recorded observer session: every snapshot taken from the relay
// plus the output and errors collected alongside them.
type Trace struct {
	ID        string       `json:"id"`
	Program   string       `json:"program,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Steps     []Snapshot   `json:"steps"`
	Outputs   []OutputMark `json:"outputs,omitempty"`
	Errors    []string     `json:"errors,omitempty"`

	// Sealed holds the encrypted payload of an envelope trace. Envelopes
	// carry no steps, output or errors of their own.
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the trace.
func (t *Trace) Clone() *Trace {
	c := *t
	c.Steps = make([]Snapshot, len(t.Steps))
	for i, s := range t.Steps {
		c.Steps[i] = s.Clone()
	}
	c.Outputs = append([]OutputMark(nil), t.Outputs...)
	c.Errors = append([]string(nil), t.Errors...)
	return &c
}
