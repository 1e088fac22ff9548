package engine

import (
	"context"
	"fmt"

	"github.com/roach88/pulsesim/internal/circuit"
)

// DefaultPresses is the number of triggers the pulse-count query runs.
const DefaultPresses = 1000

// Counts tallies pulses by level.
type Counts struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// Add returns the element-wise sum.
func (c Counts) Add(o Counts) Counts {
	return Counts{Low: c.Low + o.Low, High: c.High + o.High}
}

// Total returns Low + High.
func (c Counts) Total() int64 { return c.Low + c.High }

// Product returns Low * High, the answer to the pulse-count query.
func (c Counts) Product() int64 { return c.Low * c.High }

// CountLevels tallies the pulses of one trace.
func CountLevels(t Trace) Counts {
	var c Counts
	for _, p := range t {
		if p.Level == circuit.High {
			c.High++
		} else {
			c.Low++
		}
	}
	return c
}

// PressFunc is called after every trigger with its number and trace.
// Returning an error stops the run.
type PressFunc func(press int64, trace Trace) error

// RunTriggers presses n times and returns the accumulated counts. Module
// state persists and evolves between presses.
func RunTriggers(ctx context.Context, s *Simulator, n int) (Counts, error) {
	return RunTriggersFunc(ctx, s, n, nil)
}

// RunTriggersFunc is RunTriggers with a per-press callback, used to record
// traces as they are produced. fn may be nil.
func RunTriggersFunc(ctx context.Context, s *Simulator, n int, fn PressFunc) (Counts, error) {
	var total Counts
	if n < 0 {
		return total, fmt.Errorf("negative press count %d", n)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		trace, err := s.Press()
		if err != nil {
			return total, fmt.Errorf("press %d: %w", s.Presses(), err)
		}
		total = total.Add(CountLevels(trace))

		if fn != nil {
			if err := fn(s.Presses(), trace); err != nil {
				return total, fmt.Errorf("press %d callback: %w", s.Presses(), err)
			}
		}
	}

	s.logger.Debug("triggers complete",
		"presses", n,
		"low", total.Low,
		"high", total.High,
	)
	return total, nil
}
