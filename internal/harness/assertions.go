package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/ir"
	"github.com/roach88/pulsesim/internal/store"
)

// AssertionContext carries what assertions may inspect beyond the result.
type AssertionContext struct {
	Ctx context.Context

	// Graph is the circuit in its state after the presses. Nil when the
	// circuit failed to build.
	Graph *circuit.Graph

	// Initial is an untouched copy of the circuit taken before the presses.
	Initial *circuit.Graph

	Store  *store.Store
	RunID  string
	Logger *slog.Logger
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Rendered trace for context, if relevant
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, edge := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, edge)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates every assertion against result and returns
// the failure messages. Assertions that need a completed run are skipped,
// with a message, when the run stopped early; error assertions still run.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCounts:
			err = assertCounts(result.Totals, a, "counts")
		case AssertProduct:
			err = assertProduct(result, a)
		case AssertPressCounts:
			err = assertPressCounts(result, a)
		case AssertTraceContains:
			err = assertTraceContains(result, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result, a)
		case AssertFinalState:
			err = assertFinalState(actx.Graph, a)
		case AssertHorizon:
			err = assertHorizon(actx, a)
		case AssertError:
			err = assertError(result, a)
		case AssertDeterministic:
			err = assertDeterministic(result, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertCounts(got engine.Counts, a Assertion, typ string) error {
	if got.Low == a.Low && got.High == a.High {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("low=%d high=%d", a.Low, a.High),
		Actual:   fmt.Sprintf("low=%d high=%d", got.Low, got.High),
	}
}

func assertProduct(result *Result, a Assertion) error {
	if got := result.Totals.Product(); got != a.Value {
		return &AssertionError{
			Type:     AssertProduct,
			Expected: fmt.Sprintf("%d", a.Value),
			Actual:   fmt.Sprintf("%d (low=%d high=%d)", got, result.Totals.Low, result.Totals.High),
		}
	}
	return nil
}

func assertPressCounts(result *Result, a Assertion) error {
	if a.Press > int64(len(result.PressCounts)) {
		return fmt.Errorf("press %d did not complete (%d presses ran)", a.Press, len(result.PressCounts))
	}
	return assertCounts(result.PressCounts[a.Press-1], a, AssertPressCounts)
}

func renderedTrace(result *Result, press int64) ([]string, error) {
	tr := result.Trace(press)
	if tr == nil {
		return nil, fmt.Errorf("trace of press %d was not kept", press)
	}
	out := make([]string, len(tr))
	for i, p := range tr {
		out[i] = p.String()
	}
	return out, nil
}

// assertTraceContains checks that the press delivered the edge at least once.
func assertTraceContains(result *Result, a Assertion) error {
	edges, err := renderedTrace(result, a.Press)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if e == a.Edge {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%q in press %d", a.Edge, a.Press),
		Actual:   "not found in trace",
		Trace:    edges,
	}
}

// assertTraceOrder checks that the edges appear in order. Intervening
// pulses are allowed; a repeated edge must match a later occurrence.
func assertTraceOrder(result *Result, a Assertion) error {
	edges, err := renderedTrace(result, a.Press)
	if err != nil {
		return err
	}
	next := 0
	for _, e := range edges {
		if next < len(a.Edges) && e == a.Edges[next] {
			next++
		}
	}
	if next == len(a.Edges) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("%v in order in press %d", a.Edges, a.Press),
		Actual:   fmt.Sprintf("matched %d of %d, stuck at %q", next, len(a.Edges), a.Edges[next]),
		Trace:    edges,
	}
}

func assertFinalState(g *circuit.Graph, a Assertion) error {
	if g == nil {
		return fmt.Errorf("no circuit to inspect")
	}
	m, ok := g.Module(a.Module)
	if !ok {
		return fmt.Errorf("module %q is not defined", a.Module)
	}

	if a.On != nil {
		ff, ok := m.(*circuit.FlipFlop)
		if !ok {
			return fmt.Errorf("module %q is a %s, on applies to flip-flops", a.Module, m.Kind())
		}
		if ff.On() != *a.On {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s on=%t", a.Module, *a.On),
				Actual:   fmt.Sprintf("%s on=%t", a.Module, ff.On()),
			}
		}
	}

	if len(a.Memory) > 0 {
		c, ok := m.(*circuit.Conjunction)
		if !ok {
			return fmt.Errorf("module %q is a %s, memory applies to conjunctions", a.Module, m.Kind())
		}
		inputs := make([]string, 0, len(a.Memory))
		for in := range a.Memory {
			inputs = append(inputs, in)
		}
		sort.Strings(inputs)
		for _, in := range inputs {
			want, err := circuit.ParseLevel(a.Memory[in])
			if err != nil {
				return fmt.Errorf("memory[%s]: %w", in, err)
			}
			got, known := c.Remembered(in)
			if !known {
				return fmt.Errorf("%q is not an input of %q", in, a.Module)
			}
			if got != want {
				return &AssertionError{
					Type:     AssertFinalState,
					Expected: fmt.Sprintf("%s[%s]=%s", a.Module, in, want),
					Actual:   fmt.Sprintf("%s[%s]=%s", a.Module, in, got),
				}
			}
		}
	}
	return nil
}

// assertHorizon runs the horizon detector on the initial circuit. With a
// code it expects the detector to fail with that code; otherwise it checks
// the value and any listed periods.
func assertHorizon(actx *AssertionContext, a Assertion) error {
	if actx.Initial == nil {
		return fmt.Errorf("no circuit to inspect")
	}
	h, err := engine.DetectHorizon(actx.Ctx, actx.Initial, a.Sink,
		engine.WithMaxPresses(a.MaxPresses),
		engine.WithHorizonLogger(actx.Logger),
	)

	if a.Code != "" {
		if got := ErrorCode(err); got != a.Code {
			return &AssertionError{
				Type:     AssertHorizon,
				Expected: fmt.Sprintf("error %s", a.Code),
				Actual:   fmt.Sprintf("%v", err),
			}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("horizon for %s: %w", a.Sink, err)
	}

	if h.Value != a.Value {
		return &AssertionError{
			Type:     AssertHorizon,
			Expected: fmt.Sprintf("%d", a.Value),
			Actual:   fmt.Sprintf("%d (periods %v)", h.Value, h.Periods),
		}
	}
	found := make(map[string]int64, len(h.Periods))
	for _, p := range h.Periods {
		found[p.Source] = p.Press
	}
	for src, want := range a.Periods {
		if got, ok := found[src]; !ok || got != want {
			return &AssertionError{
				Type:     AssertHorizon,
				Expected: fmt.Sprintf("period of %s = %d", src, want),
				Actual:   fmt.Sprintf("periods %v", h.Periods),
			}
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	if result.ErrCode == a.Code {
		return nil
	}
	actual := "no error"
	if result.Err != nil {
		actual = result.Err.Error()
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("error %s", a.Code),
		Actual:   actual,
	}
}

// assertDeterministic replays the presses on a fresh copy of the circuit
// and compares each trace digest with the one recorded in the store.
func assertDeterministic(result *Result, actx *AssertionContext) error {
	if actx.Initial == nil {
		return fmt.Errorf("no circuit to inspect")
	}
	recorded, err := actx.Store.ReadPresses(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}

	replay := engine.New(actx.Initial.Clone(), engine.WithLogger(actx.Logger))
	for _, rec := range recorded {
		trace, err := replay.Press()
		if err != nil {
			return fmt.Errorf("replay press %d: %w", rec.Press, err)
		}
		digest, err := ir.TraceDigest(trace)
		if err != nil {
			return err
		}
		if digest != rec.Digest {
			return &AssertionError{
				Type:     AssertDeterministic,
				Expected: fmt.Sprintf("press %d digest %s", rec.Press, rec.Digest),
				Actual:   digest,
			}
		}
	}
	if int64(len(recorded)) != result.Presses {
		return fmt.Errorf("%d presses recorded, %d ran", len(recorded), result.Presses)
	}
	return nil
}
