package circuit

import (
	"sort"
)

// Graph is the module graph plus the mutable state of every module.
//
// INVARIANTS:
//   - exactly one Broadcaster
//   - module ids are unique and non-empty
//   - every Conjunction remembers exactly one entry per distinct in-edge
//   - ids returned by queries are sorted so iteration is deterministic
type Graph struct {
	modules     map[string]Module
	order       []string            // sorted module ids
	inputs      map[string][]string // reverse edges for modules and sinks, sorted
	sinks       []string            // sorted
	broadcaster string
	started     bool
}

// Build constructs a graph from definitions and initializes conjunction
// memory. The returned graph is ready for its first trigger.
func Build(defs []Definition) (*Graph, error) {
	g := &Graph{
		modules: make(map[string]Module, len(defs)),
		inputs:  make(map[string][]string),
	}

	for _, d := range defs {
		if d.ID == "" {
			return nil, NewMalformedError("", d.Line, "module id is empty")
		}
		if _, dup := g.modules[d.ID]; dup {
			return nil, NewMalformedError(d.ID, d.Line, "module defined more than once")
		}
		for _, out := range d.Outputs {
			if out == "" {
				return nil, NewMalformedError(d.ID, d.Line, "empty destination id")
			}
		}
		m, err := NewModule(d)
		if err != nil {
			return nil, err
		}
		if d.Kind == KindBroadcaster {
			if g.broadcaster != "" {
				return nil, NewMalformedError(d.ID, d.Line, "second broadcaster (already have %q)", g.broadcaster)
			}
			g.broadcaster = d.ID
		}
		g.modules[d.ID] = m
		g.order = append(g.order, d.ID)
	}
	if g.broadcaster == "" {
		return nil, NewMalformedError("", 0, "no broadcaster defined")
	}
	sort.Strings(g.order)

	// Reverse-edge scan. Sources are visited in sorted order so each
	// inputs slice comes out sorted.
	sinks := make(map[string]bool)
	for _, id := range g.order {
		for _, out := range g.modules[id].Outputs() {
			ins := g.inputs[out]
			if len(ins) > 0 && ins[len(ins)-1] == id {
				continue
			}
			g.inputs[out] = append(ins, id)
			if _, defined := g.modules[out]; !defined {
				sinks[out] = true
			}
		}
	}
	for id := range sinks {
		g.sinks = append(g.sinks, id)
	}
	sort.Strings(g.sinks)

	if err := g.InitializeConjunctionMemory(); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildFromMap builds a graph from definitions keyed by module id. A
// definition with an empty ID takes its map key.
func BuildFromMap(defs map[string]Definition) (*Graph, error) {
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]Definition, 0, len(defs))
	for _, k := range keys {
		d := defs[k]
		if d.ID == "" {
			d.ID = k
		}
		if d.ID != k {
			return nil, NewMalformedError(k, d.Line, "definition id %q does not match key", d.ID)
		}
		list = append(list, d)
	}
	return Build(list)
}

// InitializeConjunctionMemory inserts a Low entry into every Conjunction for
// each of its in-edges.
//
// Running it again before any trigger changes nothing. Once a trigger has
// run it returns ErrSimulationStarted and leaves memory as it is; Reset is
// the way to return to the initial state.
func (g *Graph) InitializeConjunctionMemory() error {
	if g.started {
		return ErrSimulationStarted
	}
	for _, id := range g.order {
		for _, out := range g.modules[id].Outputs() {
			if c, ok := g.modules[out].(*Conjunction); ok {
				c.remember(id)
			}
		}
	}
	return nil
}

// MarkStarted records that a trigger has begun. Called by the engine.
func (g *Graph) MarkStarted() { g.started = true }

// Started reports whether a trigger has run since Build or the last Reset.
func (g *Graph) Started() bool { return g.started }

// Reset returns every module to its initial state: FlipFlops off and all
// Conjunction memory Low.
func (g *Graph) Reset() {
	for _, id := range g.order {
		g.modules[id].reset()
	}
	g.started = false
}

// Clone returns an independent deep copy of the graph and its current state.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		modules:     make(map[string]Module, len(g.modules)),
		order:       g.order,
		inputs:      g.inputs,
		sinks:       g.sinks,
		broadcaster: g.broadcaster,
		started:     g.started,
	}
	// order, inputs and sinks are never mutated after Build and can be shared.
	for id, m := range g.modules {
		c.modules[id] = m.clone()
	}
	return c
}

// Broadcaster returns the id of the entry-point module.
func (g *Graph) Broadcaster() string { return g.broadcaster }

// Module resolves id. ok is false for sinks and unknown ids.
func (g *Graph) Module(id string) (Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Modules returns every defined module sorted by id.
func (g *Graph) Modules() []Module {
	out := make([]Module, len(g.order))
	for i, id := range g.order {
		out[i] = g.modules[id]
	}
	return out
}

// Len returns the number of defined modules.
func (g *Graph) Len() int { return len(g.order) }

// IsSink reports whether id is referenced as a destination but never defined.
func (g *Graph) IsSink(id string) bool {
	if _, defined := g.modules[id]; defined {
		return false
	}
	_, referenced := g.inputs[id]
	return referenced
}

// Sinks returns all sink ids, sorted.
func (g *Graph) Sinks() []string {
	return append([]string(nil), g.sinks...)
}

// Inputs returns the ids with an edge into id, sorted.
func (g *Graph) Inputs(id string) []string {
	return append([]string(nil), g.inputs[id]...)
}

// Ancestors returns every module from which id can be reached by following
// edges forwards, excluding the ids in stop. Stop ids are not expanded, so
// the walk never passes through them. id itself is included only if it sits
// on a cycle.
func (g *Graph) Ancestors(id string, stop ...string) map[string]bool {
	blocked := make(map[string]bool, len(stop))
	for _, s := range stop {
		blocked[s] = true
	}

	seen := make(map[string]bool)
	queue := append([]string(nil), g.inputs[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if blocked[cur] || seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, g.inputs[cur]...)
	}
	return seen
}

// Definitions returns the stateless definitions the graph was built from,
// sorted by id.
func (g *Graph) Definitions() []Definition {
	out := make([]Definition, len(g.order))
	for i, id := range g.order {
		m := g.modules[id]
		out[i] = Definition{
			ID:      id,
			Kind:    m.Kind(),
			Outputs: append([]string(nil), m.Outputs()...),
		}
	}
	return out
}
