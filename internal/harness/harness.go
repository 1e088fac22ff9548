package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/ir"
	"github.com/roach88/pulsesim/internal/netlist"
	"github.com/roach88/pulsesim/internal/store"
)

// harnessRunID is the fixed run id every scenario records under.
const harnessRunID = "harness-run"

// Harness holds what one scenario execution needs after the presses:
// the graph in its final state, the pristine definitions and the store.
type Harness struct {
	scenario *Scenario
	graph    *circuit.Graph
	initial  *circuit.Graph
	store    *store.Store
	runID    string
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation and uses
// a fixed run id, so results are reproducible.
//
// Execution flow:
//  1. Build the circuit
//  2. Run the presses, recording each into the store
//  3. Evaluate assertions against the result
//
// A build or simulation failure is not returned as an error: it is stored
// in Result.Err for the error assertion, and fails the result when no such
// assertion exists. The returned error is for harness failures only.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		store:    st,
		runID:    engine.NewFixedGenerator(harnessRunID).Generate(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	result.RunID = h.runID

	if err := h.simulate(ctx, result); err != nil {
		return nil, err
	}

	if result.Err != nil && !scenario.expectsError() {
		result.AddError(fmt.Sprintf("scenario stopped: %v", result.Err))
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Graph:   h.graph,
		Initial: h.initial,
		Store:   st,
		RunID:   h.runID,
		Logger:  h.logger,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) simulate(ctx context.Context, result *Result) error {
	g, err := h.load()
	if err != nil {
		h.fail(result, err)
		return nil
	}
	h.graph = g
	h.initial = g.Clone()

	defs := g.Definitions()
	if _, err := h.store.BeginRun(ctx, store.Run{
		ID:        h.runID,
		Kind:      store.RunKindCount,
		Source:    h.scenario.Name,
		GraphHash: ir.MustGraphHash(defs),
	}); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	sim := engine.New(g,
		engine.WithMaxPulses(h.scenario.MaxPulses),
		engine.WithLogger(h.logger),
	)
	kept := h.scenario.keptPresses()

	var storeErr error
	totals, err := engine.RunTriggersFunc(ctx, sim, h.scenario.Presses, func(press int64, trace engine.Trace) error {
		result.PressCounts = append(result.PressCounts, engine.CountLevels(trace))
		if press <= kept {
			result.Traces = append(result.Traces, trace)
		}
		if err := h.store.WritePress(ctx, h.runID, press, trace, press <= kept); err != nil {
			storeErr = err
			return err
		}
		return nil
	})
	if storeErr != nil {
		return fmt.Errorf("record press: %w", storeErr)
	}

	result.Totals = totals
	result.Presses = int64(len(result.PressCounts))
	if err != nil {
		h.fail(result, err)
		return nil
	}

	if err := h.store.FinishRun(ctx, h.runID, result.Presses, totals.Low, totals.High, totals.Product()); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (h *Harness) load() (*circuit.Graph, error) {
	if h.scenario.CircuitFile != "" {
		return netlist.Load(h.scenario.CircuitFile)
	}
	return netlist.LoadString(h.scenario.Circuit)
}

func (h *Harness) fail(result *Result, err error) {
	result.Err = err
	result.ErrCode = ErrorCode(err)
}

// ErrorCode returns the code carried by err, or "" if it has none.
func ErrorCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	var de *circuit.DefinitionError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	return ""
}
