package engine

import (
	"log/slog"

	"github.com/roach88/pulsesim/internal/circuit"
)

// Trace is the ordered list of pulses processed by one trigger, including
// the initial button pulse and pulses absorbed by sinks.
type Trace []circuit.Pulse

// Observer is notified of every pulse as it is processed, in trace order.
type Observer interface {
	Observe(p circuit.Pulse)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(p circuit.Pulse)

// Observe implements Observer.
func (f ObserverFunc) Observe(p circuit.Pulse) { f(p) }

// Simulator is the single-writer trigger loop over one graph.
//
// CRITICAL: a Simulator exclusively owns its graph. Nothing else may mutate
// module state while the simulator is in use; study runs that need an
// independent copy use circuit.Graph.Clone.
//
// INVARIANTS:
//   - Press drains the queue completely before returning
//   - observers are called in registration order for every pulse
//   - press numbers are 1, 2, 3, ... with no gaps
type Simulator struct {
	graph     *circuit.Graph
	clock     *Clock
	queue     *pulseQueue
	quota     *QuotaEnforcer
	observers []Observer
	logger    *slog.Logger
}

// Option allows configuration of simulator parameters.
type Option func(*Simulator)

// WithMaxPulses sets the per-trigger pulse quota.
//
// Default: DefaultMaxPulses.
// Use WithMaxPulses(10) for testing quota enforcement.
func WithMaxPulses(maxPulses int) Option {
	return func(s *Simulator) {
		s.quota = NewQuotaEnforcer(maxPulses)
	}
}

// WithObserver registers an observer for every processed pulse.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		s.observers = append(s.observers, o)
	}
}

// WithClock continues press numbering from an existing clock.
func WithClock(c *Clock) Option {
	return func(s *Simulator) {
		s.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// New creates a Simulator that takes ownership of g.
func New(g *circuit.Graph, opts ...Option) *Simulator {
	s := &Simulator{
		graph:  g,
		clock:  NewClock(),
		queue:  newPulseQueue(),
		quota:  NewQuotaEnforcer(DefaultMaxPulses),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Graph returns the owned graph. Callers may inspect it but must not
// mutate it between presses.
func (s *Simulator) Graph() *circuit.Graph {
	return s.graph
}

// Presses returns the number of triggers run so far.
func (s *Simulator) Presses() int64 {
	return s.clock.Press()
}

// Reset returns the graph to its initial state and restarts press numbering.
func (s *Simulator) Reset() {
	s.graph.Reset()
	s.clock.Reset()
	s.queue.Clear()
}

// Press runs one trigger to quiescence and returns its trace.
//
// On QUOTA_EXCEEDED the trace processed so far is returned alongside the
// error and the remaining pulses are dropped; module state reflects the
// partial trigger.
func (s *Simulator) Press() (Trace, error) {
	s.graph.MarkStarted()
	press := s.clock.StartPress()
	s.quota.Reset()
	s.queue.Clear()

	s.queue.Enqueue(circuit.Pulse{
		From:  circuit.ButtonID,
		To:    s.graph.Broadcaster(),
		Level: circuit.Low,
	})

	var trace Trace
	for {
		p, ok := s.queue.TryDequeue()
		if !ok {
			break
		}
		if err := s.quota.Check(press); err != nil {
			s.queue.Clear()
			s.logger.Error("pulse quota exceeded",
				"press", press,
				"pulses", s.quota.Current(),
				"limit", s.quota.MaxPulses(),
			)
			return trace, err
		}

		s.clock.Stamp(&p)
		trace = append(trace, p)
		for _, o := range s.observers {
			o.Observe(p)
		}

		s.dispatch(p)
	}

	s.logger.Debug("press drained",
		"press", press,
		"pulses", s.clock.Seq(),
		"quota_left", s.quota.Remaining(),
	)
	return trace, nil
}

// dispatch delivers p to its destination and enqueues the emissions.
// Sinks absorb the pulse.
func (s *Simulator) dispatch(p circuit.Pulse) {
	m, ok := s.graph.Module(p.To)
	if !ok {
		return
	}

	level, emit := m.Receive(p)
	if !emit {
		return
	}
	for _, out := range m.Outputs() {
		s.queue.Enqueue(circuit.Pulse{
			From:  m.ID(),
			To:    out,
			Level: level,
		})
	}
}
