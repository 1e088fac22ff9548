package circuit

import (
	"fmt"
	"sort"
)

// Kind is the type tag of a module.
type Kind int

const (
	// KindUnknown is never valid in a Definition.
	KindUnknown Kind = iota
	KindBroadcaster
	KindFlipFlop
	KindConjunction
)

// String returns the lower-case kind name used by the CUE netlist format.
func (k Kind) String() string {
	switch k {
	case KindBroadcaster:
		return "broadcaster"
	case KindFlipFlop:
		return "flipflop"
	case KindConjunction:
		return "conjunction"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name to a Kind. Unknown names return KindUnknown.
func ParseKind(s string) Kind {
	switch s {
	case "broadcaster":
		return KindBroadcaster
	case "flipflop":
		return KindFlipFlop
	case "conjunction":
		return KindConjunction
	default:
		return KindUnknown
	}
}

// Definition is the parsed, stateless description of one module.
type Definition struct {
	ID      string
	Kind    Kind
	Outputs []string

	// Line is the source line the definition came from, 0 if unknown.
	Line int
}

// Module is a node of the graph that reacts to pulses.
//
// Receive applies the pulse to the module's state and reports the level to
// emit on every output. ok is false when the module stays silent.
type Module interface {
	ID() string
	Kind() Kind
	Outputs() []string
	Receive(p Pulse) (level Level, ok bool)

	reset()
	clone() Module
}

type base struct {
	id      string
	outputs []string
}

func (b *base) ID() string        { return b.id }
func (b *base) Outputs() []string { return b.outputs }

// Broadcaster forwards every pulse unchanged.
type Broadcaster struct {
	base
}

// Kind implements Module.
func (m *Broadcaster) Kind() Kind { return KindBroadcaster }

// Receive implements Module.
func (m *Broadcaster) Receive(p Pulse) (Level, bool) {
	return p.Level, true
}

func (m *Broadcaster) reset() {}

func (m *Broadcaster) clone() Module {
	c := *m
	return &c
}

// FlipFlop toggles on Low pulses and ignores High ones.
type FlipFlop struct {
	base
	on bool
}

// Kind implements Module.
func (m *FlipFlop) Kind() Kind { return KindFlipFlop }

// On reports the current state.
func (m *FlipFlop) On() bool { return m.on }

// Receive implements Module.
func (m *FlipFlop) Receive(p Pulse) (Level, bool) {
	if p.Level == High {
		return Low, false
	}
	m.on = !m.on
	if m.on {
		return High, true
	}
	return Low, true
}

func (m *FlipFlop) reset() { m.on = false }

func (m *FlipFlop) clone() Module {
	c := *m
	return &c
}

// Conjunction emits Low once every input it remembers is High.
type Conjunction struct {
	base
	memory map[string]Level
	inputs []string // sorted memory keys
}

// Kind implements Module.
func (m *Conjunction) Kind() Kind { return KindConjunction }

// Inputs returns the ids of every module with an edge into m, sorted.
func (m *Conjunction) Inputs() []string {
	out := make([]string, len(m.inputs))
	copy(out, m.inputs)
	return out
}

// memorySnapshot returns a copy of the remembered input levels.
func (m *Conjunction) memorySnapshot() map[string]Level {
	out := make(map[string]Level, len(m.memory))
	for k, v := range m.memory {
		out[k] = v
	}
	return out
}

// Remembered returns the last level received from input. ok is false when
// input has no edge into m.
func (m *Conjunction) Remembered(input string) (level Level, ok bool) {
	level, ok = m.memory[input]
	return level, ok
}

// Receive implements Module.
//
// Memory keys are fixed at construction; a pulse from a source that is not a
// known input leaves the memory unchanged.
func (m *Conjunction) Receive(p Pulse) (Level, bool) {
	if _, ok := m.memory[p.From]; ok {
		m.memory[p.From] = p.Level
	}
	for _, l := range m.memory {
		if l != High {
			return High, true
		}
	}
	return Low, true
}

// NewConjunction returns a gate remembering Low for each of inputs.
func NewConjunction(id string, inputs, outputs []string) *Conjunction {
	m := &Conjunction{
		base:   base{id: id, outputs: append([]string(nil), outputs...)},
		memory: make(map[string]Level, len(inputs)),
	}
	for _, in := range inputs {
		m.remember(in)
	}
	return m
}

// remember registers input with a Low memory entry. Existing entries keep
// their level.
func (m *Conjunction) remember(input string) {
	if _, ok := m.memory[input]; ok {
		return
	}
	m.memory[input] = Low
	i := sort.SearchStrings(m.inputs, input)
	m.inputs = append(m.inputs, "")
	copy(m.inputs[i+1:], m.inputs[i:])
	m.inputs[i] = input
}

func (m *Conjunction) reset() {
	for k := range m.memory {
		m.memory[k] = Low
	}
}

func (m *Conjunction) clone() Module {
	c := &Conjunction{
		base:   m.base,
		memory: make(map[string]Level, len(m.memory)),
		inputs: make([]string, len(m.inputs)),
	}
	for k, v := range m.memory {
		c.memory[k] = v
	}
	copy(c.inputs, m.inputs)
	return c
}

// NewModule instantiates the stateful module for d in its initial state.
func NewModule(d Definition) (Module, error) {
	outputs := make([]string, len(d.Outputs))
	copy(outputs, d.Outputs)
	b := base{id: d.ID, outputs: outputs}

	switch d.Kind {
	case KindBroadcaster:
		return &Broadcaster{base: b}, nil
	case KindFlipFlop:
		return &FlipFlop{base: b}, nil
	case KindConjunction:
		return &Conjunction{base: b, memory: make(map[string]Level)}, nil
	default:
		return nil, &DefinitionError{
			Code:     ErrCodeMalformedDefinition,
			ModuleID: d.ID,
			Line:     d.Line,
			Message:  fmt.Sprintf("unknown module kind %s", d.Kind),
		}
	}
}
