package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/store"
)

// Error codes reported by the trace command.
const (
	ErrCodeRunNotFound    = "RUN_NOT_FOUND"
	ErrCodeNotRecorded    = "NOT_RECORDED"
	ErrCodeDigestMismatch = "DIGEST_MISMATCH"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DBPath string
	RunID  string
	Press  int64
	Verify bool
}

// TraceResult is the output of the trace command. Runs is set when no run
// was selected; the other fields describe the selected run.
type TraceResult struct {
	Runs     []store.Run          `json:"runs,omitempty"`
	Run      *store.Run           `json:"run,omitempty"`
	Presses  []store.PressSummary `json:"presses,omitempty"`
	Periods  []store.Period       `json:"periods,omitempty"`
	Pulses   []TracePulse         `json:"pulses,omitempty"`
	Verified int                  `json:"verified,omitempty"`
}

// TracePulse is a recorded pulse as printed by the trace command.
type TracePulse struct {
	Press int64  `json:"press"`
	Seq   int64  `json:"seq"`
	From  string `json:"from"`
	To    string `json:"to"`
	Level string `json:"level"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with --db.

Without --run, lists every run in the database. With --run, shows the
run's per-press summaries (or periods for a horizon run); adding --press
prints the recorded pulses of that press.

--verify recomputes the digest of every recorded press from its stored
pulses and fails if any differs from the summary.

Examples:
  pulsesim trace --db runs.db
  pulsesim trace --db runs.db --run <id>
  pulsesim trace --db runs.db --run <id> --press 3
  pulsesim trace --db runs.db --run <id> --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to inspect")
	cmd.Flags().Int64Var(&opts.Press, "press", 0, "print the pulses of this press")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify recorded press digests")

	cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.RunID == "" && (opts.Press != 0 || opts.Verify) {
		return NewExitError(ExitCommandError, "--press and --verify require --run")
	}

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
		}
		if opts.Format == "json" {
			return formatter.Success(TraceResult{Runs: runs})
		}
		return outputRunsText(cmd, runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Errorf("run %s not found", opts.RunID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	result := TraceResult{Run: &run}

	result.Presses, err = st.ReadPresses(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}
	result.Periods, err = st.ReadPeriods(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
	}

	if opts.Press != 0 {
		pulses, err := st.ReadTrace(ctx, run.ID, opts.Press)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err, nil)
		}
		if len(pulses) == 0 {
			return formatter.Fail(ExitFailure, ErrCodeNotRecorded,
				fmt.Errorf("no pulses recorded for press %d of run %s", opts.Press, run.ID), nil)
		}
		result.Pulses = toTracePulses(pulses)
	}

	if opts.Verify {
		for _, p := range result.Presses {
			err := st.VerifyPress(ctx, run.ID, p.Press)
			switch {
			case err == nil:
				result.Verified++
			case errors.Is(err, store.ErrNotRecorded):
				return formatter.Fail(ExitFailure, ErrCodeNotRecorded, err, map[string]int64{"press": p.Press})
			default:
				return formatter.Fail(ExitFailure, ErrCodeDigestMismatch, err, map[string]int64{"press": p.Press})
			}
		}
		formatter.VerboseLog("Verified %d press(es) of run %s", result.Verified, run.ID)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(cmd, opts, result)
}

func toTracePulses(pulses []circuit.Pulse) []TracePulse {
	out := make([]TracePulse, len(pulses))
	for i, p := range pulses {
		out[i] = TracePulse{
			Press: p.Press,
			Seq:   p.Seq,
			From:  p.From,
			To:    p.To,
			Level: p.Level.String(),
		}
	}
	return out
}

func outputRunsText(cmd *cobra.Command, runs []store.Run) error {
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		state := "complete"
		if !r.Complete {
			state = "incomplete"
		}
		fmt.Fprintf(w, "%d  %s  %-7s  %s  presses=%d result=%d (%s)\n",
			r.Seq, r.ID, r.Kind, r.Source, r.Presses, r.Result, state)
	}
	return nil
}

func outputTraceText(cmd *cobra.Command, opts *TraceOptions, r TraceResult) error {
	w := cmd.OutOrStdout()
	run := r.Run

	fmt.Fprintf(w, "Run %s (%s, seq %d)\n", run.ID, run.Kind, run.Seq)
	fmt.Fprintf(w, "  source:     %s\n", run.Source)
	fmt.Fprintf(w, "  graph hash: %s\n", run.GraphHash)
	if run.Sink != "" {
		fmt.Fprintf(w, "  sink:       %s\n", run.Sink)
	}
	fmt.Fprintf(w, "  presses:    %d\n", run.Presses)
	fmt.Fprintf(w, "  result:     %d\n", run.Result)
	if !run.Complete {
		fmt.Fprintln(w, "  (incomplete)")
	}

	for _, p := range r.Periods {
		fmt.Fprintf(w, "  period %s: %d\n", p.Source, p.Press)
	}

	if opts.Verbose || opts.Press != 0 {
		for _, p := range r.Presses {
			if opts.Press != 0 && p.Press != opts.Press {
				continue
			}
			fmt.Fprintf(w, "  press %d: low=%d high=%d digest=%s\n", p.Press, p.Low, p.High, p.Digest)
		}
	}

	for _, p := range r.Pulses {
		fmt.Fprintf(w, "    %d  %s -%s-> %s\n", p.Seq, p.From, p.Level, p.To)
	}

	if opts.Verify {
		fmt.Fprintf(w, "✓ %d press(es) verified\n", r.Verified)
	}
	return nil
}
