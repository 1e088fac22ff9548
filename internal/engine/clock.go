package engine

import "github.com/roach88/pulsesim/internal/circuit"

// Clock is the logical clock that stamps pulses with (press, seq).
//
// press counts triggers from 1; seq counts pulses within the current
// trigger from 1 and restarts on every press. The pair identifies a pulse
// within a run and never depends on wall time.
//
// A Clock belongs to one Simulator and is not safe for concurrent use.
type Clock struct {
	press int64
	seq   int64
}

// NewClock returns a clock before its first press.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose next press is start+1, for a graph
// handed over mid-run.
func NewClockAt(start int64) *Clock {
	return &Clock{press: start}
}

// StartPress begins the next trigger and returns its number.
func (c *Clock) StartPress() int64 {
	c.press++
	c.seq = 0
	return c.press
}

// Stamp assigns p the current press and the next seq.
func (c *Clock) Stamp(p *circuit.Pulse) {
	c.seq++
	p.Press = c.press
	p.Seq = c.seq
}

// Press returns the number of the current (last started) trigger.
func (c *Clock) Press() int64 { return c.press }

// Seq returns the seq of the last stamped pulse.
func (c *Clock) Seq() int64 { return c.seq }

// Reset puts the clock back before the first press.
func (c *Clock) Reset() {
	c.press, c.seq = 0, 0
}
