package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/ir"
	"github.com/roach88/pulsesim/internal/store"
)

// HorizonOptions holds flags for the horizon command.
type HorizonOptions struct {
	*RootOptions
	Sink       string
	MaxPresses int64
	MaxPulses  int
	DBPath     string
}

// HorizonResult is the outcome of a horizon query.
type HorizonResult struct {
	Source    string          `json:"source"`
	GraphHash string          `json:"graph_hash"`
	Sink      string          `json:"sink"`
	Gate      string          `json:"gate"`
	Periods   []engine.Period `json:"periods"`
	Simulated int64           `json:"simulated"`
	Value     int64           `json:"value"`
	RunID     string          `json:"run_id,omitempty"`
}

// NewHorizonCommand creates the horizon command.
func NewHorizonCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HorizonOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "horizon <circuit>",
		Short: "Find the first press on which a sink receives a low pulse",
		Long: `Find the fewest button presses after which the sink receives a low pulse.

The sink must be fed by a single conjunction whose inputs are driven by
independent branches of the broadcaster. The first press on which each
input sends high is found by simulation, and the answer is their least
common multiple.

Exit codes:
  0 - Horizon found
  1 - Unsupported topology, no convergence, quota or overflow
  2 - Command error (unreadable circuit, database error)

Examples:
  pulsesim horizon circuit.txt
  pulsesim horizon circuit.txt --sink rx --max-presses 20000
  pulsesim horizon circuit.txt --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHorizon(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sink, "sink", "", "sink to query (default from config, rx)")
	cmd.Flags().Int64Var(&opts.MaxPresses, "max-presses", 0, "give up after this many presses (default from config)")
	cmd.Flags().IntVar(&opts.MaxPulses, "max-pulses", 0, "pulse quota per press (default from config)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the result in this SQLite database")

	return cmd
}

func runHorizon(opts *HorizonOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("sink") {
		cfg.Horizon.Sink = opts.Sink
	}
	if flags.Changed("max-presses") {
		cfg.Horizon.MaxPresses = opts.MaxPresses
	}
	if flags.Changed("max-pulses") {
		cfg.Simulation.MaxPulses = opts.MaxPulses
	}
	if flags.Changed("db") {
		cfg.Store.Path = opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	g, err := loadCircuit(formatter, path)
	if err != nil {
		return err
	}
	graphHash, err := ir.GraphHash(g.Definitions())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash circuit", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signalContext(parent, logger)
	defer cancel()

	h, err := engine.DetectHorizon(ctx, g, cfg.Horizon.Sink,
		engine.WithMaxPresses(cfg.Horizon.MaxPresses),
		engine.WithHorizonMaxPulses(cfg.Simulation.MaxPulses),
		engine.WithHorizonLogger(logger),
	)
	if err != nil {
		return failRun(formatter, err)
	}

	result := HorizonResult{
		Source:    path,
		GraphHash: graphHash,
		Sink:      h.Sink,
		Gate:      h.Gate,
		Periods:   h.Periods,
		Simulated: h.Presses,
		Value:     h.Value,
	}

	if cfg.Store.Path != "" {
		runID, err := recordHorizon(ctx, formatter, cfg.Store.Path, opts.runIDs(), path, graphHash, h)
		if err != nil {
			return err
		}
		result.RunID = runID
		logger.Debug("recorded horizon", "run_id", runID, "db", cfg.Store.Path)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputHorizonText(cmd, result)
}

// recordHorizon stores h as a complete horizon run with its periods.
func recordHorizon(ctx context.Context, f *OutputFormatter, dbPath string, ids engine.RunIDGenerator, source, graphHash string, h *engine.Horizon) (string, error) {
	st, err := openStore(f, dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.BeginRun(ctx, store.Run{
		ID:        ids.Generate(),
		Kind:      store.RunKindHorizon,
		Source:    source,
		GraphHash: graphHash,
		Sink:      h.Sink,
	})
	if err != nil {
		return "", failRun(f, err)
	}

	periods := make([]store.Period, len(h.Periods))
	for i, p := range h.Periods {
		periods[i] = store.Period{Source: p.Source, Press: p.Press}
	}
	if err := st.WritePeriods(ctx, run.ID, periods); err != nil {
		return "", failRun(f, err)
	}
	if err := st.FinishRun(ctx, run.ID, h.Presses, 0, 0, h.Value); err != nil {
		return "", failRun(f, err)
	}
	return run.ID, nil
}

func outputHorizonText(cmd *cobra.Command, r HorizonResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Sink %s (gate %s) first receives low on press %d\n", r.Sink, r.Gate, r.Value)
	for _, p := range r.Periods {
		fmt.Fprintf(w, "  %s: %d\n", p.Source, p.Press)
	}
	fmt.Fprintf(w, "Simulated %d presses\n", r.Simulated)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	return nil
}
