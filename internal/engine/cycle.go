package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/pulsesim/internal/circuit"
)

// DefaultMaxPresses bounds how long DetectHorizon looks for periods.
const DefaultMaxPresses = 100_000

// Topology is the validated shape of the sub-circuit feeding a sink.
//
//	broadcaster ─▶ branch(s1) ─▶ s1 ─┐
//	broadcaster ─▶ branch(s2) ─▶ s2 ─┼─▶ gate ─▶ sink
//	broadcaster ─▶ branch(sk) ─▶ sk ─┘
type Topology struct {
	Sink string `json:"sink"`
	Gate string `json:"gate"`

	// Inputs are the gate's memory keys, sorted.
	Inputs []string `json:"inputs"`

	// Branches maps each input to the sorted ids of the modules that can
	// reach it without passing through the broadcaster or the gate,
	// including the input itself.
	Branches map[string][]string `json:"branches"`
}

// ValidateTopology checks that the horizon technique is sound for sink.
//
// The shape must be:
//   - sink is referenced but not defined
//   - exactly one module feeds sink, and it is a Conjunction (the gate)
//   - the gate has at least one input and feeds only sinks
//   - every gate input is fed, directly or not, by the broadcaster
//   - the branches of different inputs share no module
//
// Violations return an UNSUPPORTED_TOPOLOGY RuntimeError.
func ValidateTopology(g *circuit.Graph, sink string) (*Topology, error) {
	if sink == "" {
		return nil, NewTopologyError(sink, "no sink given")
	}
	if _, defined := g.Module(sink); defined {
		return nil, NewTopologyError(sink, "%q is a defined module, not a sink", sink)
	}
	if !g.IsSink(sink) {
		return nil, NewTopologyError(sink, "%q is not referenced by any module", sink)
	}

	feeders := g.Inputs(sink)
	if len(feeders) != 1 {
		return nil, NewTopologyError(sink, "%d modules feed the sink %v, want exactly one conjunction", len(feeders), feeders)
	}
	m, _ := g.Module(feeders[0])
	gate, ok := m.(*circuit.Conjunction)
	if !ok {
		return nil, NewTopologyError(sink, "sink is fed by %s %q, want a conjunction", m.Kind(), m.ID())
	}
	for _, out := range gate.Outputs() {
		if !g.IsSink(out) {
			return nil, NewTopologyError(sink, "gate %q feeds back into module %q", gate.ID(), out)
		}
	}

	inputs := gate.Inputs()
	if len(inputs) == 0 {
		return nil, NewTopologyError(sink, "gate %q has no inputs", gate.ID())
	}

	broadcaster := g.Broadcaster()
	topo := &Topology{
		Sink:     sink,
		Gate:     gate.ID(),
		Inputs:   inputs,
		Branches: make(map[string][]string, len(inputs)),
	}
	owner := make(map[string]string)

	for _, in := range inputs {
		if in == broadcaster {
			return nil, NewTopologyError(sink, "gate %q is fed directly by the broadcaster", gate.ID())
		}

		branch := g.Ancestors(in, broadcaster, gate.ID())
		branch[in] = true

		driven := false
		ids := make([]string, 0, len(branch))
		for id := range branch {
			ids = append(ids, id)
			for _, src := range g.Inputs(id) {
				if src == broadcaster {
					driven = true
				}
			}
		}
		sort.Strings(ids)
		if !driven {
			return nil, NewTopologyError(sink, "input %q is not driven by the broadcaster", in)
		}

		for _, id := range ids {
			if other, taken := owner[id]; taken {
				return nil, NewTopologyError(sink, "module %q is shared by the branches of %q and %q", id, other, in)
			}
			owner[id] = in
		}
		topo.Branches[in] = ids
	}

	return topo, nil
}

// Period is the first press on which a gate input sent High to the gate.
// DetectHorizon only reports it once the input has fired again on twice
// that press.
type Period struct {
	Source string `json:"source"`
	Press  int64  `json:"press"`
}

// Horizon is the answer to a long-horizon query.
type Horizon struct {
	Sink string `json:"sink"`
	Gate string `json:"gate"`

	// Periods are ordered like Topology.Inputs.
	Periods []Period `json:"periods"`

	// Presses is how many triggers were simulated to confirm every period.
	Presses int64 `json:"presses"`

	// Value is the lcm of every period: the first press on which the sink
	// receives Low.
	Value int64 `json:"value"`
}

type horizonConfig struct {
	maxPresses int64
	maxPulses  int
	logger     *slog.Logger
}

// HorizonOption configures DetectHorizon.
type HorizonOption func(*horizonConfig)

// WithMaxPresses sets the press cap. Values <= 0 select DefaultMaxPresses.
func WithMaxPresses(n int64) HorizonOption {
	return func(c *horizonConfig) {
		if n > 0 {
			c.maxPresses = n
		}
	}
}

// WithHorizonMaxPulses sets the per-trigger pulse quota used while searching.
func WithHorizonMaxPulses(n int) HorizonOption {
	return func(c *horizonConfig) { c.maxPulses = n }
}

// WithHorizonLogger sets the logger. Defaults to slog.Default().
func WithHorizonLogger(l *slog.Logger) HorizonOption {
	return func(c *horizonConfig) { c.logger = l }
}

// DetectHorizon returns the first press on which sink receives a Low pulse.
//
// The topology is validated first. Presses then run one at a time on a
// clone of g reset to its initial state, so g itself is never touched.
// For each gate input s_i the first press c_i on which s_i sends High to the
// gate is recorded, and the next High from s_i must land on press 2*c_i.
// Once every period is confirmed the answer is lcm(c_1, ..., c_k).
//
// An input whose High recurs early, or not on 2*c_i, breaks the periodic
// counter assumption the lcm relies on, and the query fails with
// UNSUPPORTED_TOPOLOGY.
func DetectHorizon(ctx context.Context, g *circuit.Graph, sink string, opts ...HorizonOption) (*Horizon, error) {
	cfg := horizonConfig{
		maxPresses: DefaultMaxPresses,
		maxPulses:  DefaultMaxPulses,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	topo, err := ValidateTopology(g, sink)
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(topo.Inputs))
	for _, in := range topo.Inputs {
		watched[in] = true
	}
	first := make(map[string]int64, len(topo.Inputs))
	confirmed := make(map[string]bool, len(topo.Inputs))
	var offset error

	observer := ObserverFunc(func(p circuit.Pulse) {
		if p.To != topo.Gate || p.Level != circuit.High || !watched[p.From] {
			return
		}
		c, seen := first[p.From]
		switch {
		case !seen:
			first[p.From] = p.Press
			cfg.logger.Debug("gate input fired",
				"gate", topo.Gate,
				"source", p.From,
				"press", p.Press,
			)
		case confirmed[p.From] || p.Press == c:
		case p.Press == 2*c:
			confirmed[p.From] = true
			cfg.logger.Info("gate input period found",
				"gate", topo.Gate,
				"source", p.From,
				"press", c,
				"found", len(confirmed),
				"want", len(topo.Inputs),
			)
		case offset == nil:
			offset = NewTopologyError(sink, "input %q first fires on press %d but recurs on press %d", p.From, c, p.Press)
		}
	})

	study := g.Clone()
	study.Reset()
	sim := New(study,
		WithObserver(observer),
		WithMaxPulses(cfg.maxPulses),
		WithLogger(cfg.logger),
	)

	for len(confirmed) < len(topo.Inputs) {
		if sim.Presses() >= cfg.maxPresses {
			return nil, NewNoConvergenceError(sink, cfg.maxPresses, missingInputs(topo.Inputs, confirmed))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := sim.Press(); err != nil {
			return nil, fmt.Errorf("horizon for %s: %w", sink, err)
		}
		if offset != nil {
			return nil, offset
		}
		for _, in := range topo.Inputs {
			c, seen := first[in]
			if seen && !confirmed[in] && sim.Presses() >= 2*c {
				return nil, NewTopologyError(sink, "input %q first fires on press %d but not again on press %d", in, c, 2*c)
			}
		}
	}

	h := &Horizon{
		Sink:    sink,
		Gate:    topo.Gate,
		Periods: make([]Period, len(topo.Inputs)),
		Presses: sim.Presses(),
	}
	values := make([]int64, len(topo.Inputs))
	for i, in := range topo.Inputs {
		h.Periods[i] = Period{Source: in, Press: first[in]}
		values[i] = first[in]
	}

	h.Value, err = lcm(values...)
	if errors.Is(err, errOverflow) {
		return nil, NewOverflowError(sink, values)
	}
	if err != nil {
		return nil, fmt.Errorf("horizon for %s: %w", sink, err)
	}

	cfg.logger.Info("horizon computed",
		"sink", sink,
		"gate", topo.Gate,
		"presses", h.Presses,
		"value", h.Value,
	)
	return h, nil
}

func missingInputs(inputs []string, confirmed map[string]bool) []string {
	var missing []string
	for _, in := range inputs {
		if !confirmed[in] {
			missing = append(missing, in)
		}
	}
	return missing
}
