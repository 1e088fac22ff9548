package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/ir"
	"github.com/roach88/pulsesim/internal/store"
)

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	Presses   int
	MaxPulses int
	DBPath    string
	Record    bool
}

// CountResult is the outcome of a count run.
type CountResult struct {
	Source    string `json:"source"`
	GraphHash string `json:"graph_hash"`
	Presses   int64  `json:"presses"`
	Low       int64  `json:"low"`
	High      int64  `json:"high"`
	Product   int64  `json:"product"`
	RunID     string `json:"run_id,omitempty"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count <circuit>",
		Short: "Count low and high pulses over many button presses",
		Long: `Press the button repeatedly and count every pulse sent.

Module state persists between presses. Prints the low and high totals and
their product.

With --db the run is recorded: one summary row per press, and with
--record the full pulse trace of every press.

Examples:
  pulsesim count circuit.txt
  pulsesim count circuit.cue --presses 4
  pulsesim count circuit.txt --db runs.db --record`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Presses, "presses", "n", 0, "button presses (default from config, 1000)")
	cmd.Flags().IntVar(&opts.MaxPulses, "max-pulses", 0, "pulse quota per press (default from config)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "store full pulse traces (requires a database)")

	return cmd
}

func runCount(opts *CountOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("presses") {
		cfg.Simulation.Presses = opts.Presses
	}
	if flags.Changed("max-pulses") {
		cfg.Simulation.MaxPulses = opts.MaxPulses
	}
	if flags.Changed("db") {
		cfg.Store.Path = opts.DBPath
	}
	if flags.Changed("record") {
		cfg.Store.Record = opts.Record
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

	result := CountResult{Source: path, GraphHash: graphHash}

	var onPress engine.PressFunc
	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = openStore(formatter, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.BeginRun(ctx, store.Run{
			ID:        opts.runIDs().Generate(),
			Kind:      store.RunKindCount,
			Source:    path,
			GraphHash: graphHash,
		})
		if err != nil {
			return failRun(formatter, err)
		}
		result.RunID = run.ID
		logger.Debug("recording run", "run_id", run.ID, "seq", run.Seq, "db", cfg.Store.Path)

		onPress = func(press int64, trace engine.Trace) error {
			return st.WritePress(ctx, run.ID, press, trace, cfg.Store.Record)
		}
	}

	sim := engine.New(g,
		engine.WithMaxPulses(cfg.Simulation.MaxPulses),
		engine.WithLogger(logger),
	)
	totals, err := engine.RunTriggersFunc(ctx, sim, cfg.Simulation.Presses, onPress)
	if err != nil {
		logger.Warn("count stopped", "presses", sim.Presses(), "error", err)
		return failRun(formatter, err)
	}

	result.Presses = sim.Presses()
	result.Low = totals.Low
	result.High = totals.High
	result.Product = totals.Product()

	if st != nil {
		if err := st.FinishRun(ctx, result.RunID, result.Presses, result.Low, result.High, result.Product); err != nil {
			return failRun(formatter, err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputCountText(cmd, result)
}

func outputCountText(cmd *cobra.Command, r CountResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Presses: %d\n", r.Presses)
	fmt.Fprintf(w, "Low:     %d\n", r.Low)
	fmt.Fprintf(w, "High:    %d\n", r.High)
	fmt.Fprintf(w, "Product: %d\n", r.Product)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run:     %s\n", r.RunID)
	}
	return nil
}
