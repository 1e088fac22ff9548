package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Sink string
}

// ValidationResult describes a circuit that built successfully.
type ValidationResult struct {
	Valid        bool                `json:"valid"`
	Source       string              `json:"source"`
	GraphHash    string              `json:"graph_hash"`
	Broadcaster  string              `json:"broadcaster"`
	Modules      map[string]int      `json:"modules"`
	Sinks        []string            `json:"sinks"`
	Conjunctions map[string][]string `json:"conjunctions"`

	// Topology is set when --sink was given and the horizon shape holds.
	Topology *engine.Topology `json:"topology,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <circuit>",
		Short: "Validate a circuit without simulating it",
		Long: `Parse and build a circuit, then describe it.

Reports module counts by kind, sinks, conjunction inputs and the graph
hash. With --sink, also checks that the horizon query is supported for
that sink.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sink, "sink", "", "check the horizon topology for this sink")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	g, err := loadCircuit(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Built %d module(s) from %s", g.Len(), path)

	graphHash, err := ir.GraphHash(g.Definitions())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash circuit", err)
	}

	result := ValidationResult{
		Valid:        true,
		Source:       path,
		GraphHash:    graphHash,
		Broadcaster:  g.Broadcaster(),
		Modules:      map[string]int{},
		Sinks:        g.Sinks(),
		Conjunctions: map[string][]string{},
	}
	if result.Sinks == nil {
		result.Sinks = []string{}
	}
	for _, m := range g.Modules() {
		result.Modules[m.Kind().String()]++
		if c, ok := m.(*circuit.Conjunction); ok {
			result.Conjunctions[c.ID()] = c.Inputs()
		}
	}

	if cmd.Flags().Changed("sink") {
		topo, err := engine.ValidateTopology(g, opts.Sink)
		if err != nil {
			var re *engine.RuntimeError
			if errors.As(err, &re) {
				return formatter.Fail(ExitFailure, string(re.Code), err, map[string]string{"sink": opts.Sink})
			}
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err, nil)
		}
		result.Topology = topo
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputValidateText(cmd, result)
}

func outputValidateText(cmd *cobra.Command, r ValidationResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s is valid\n", r.Source)
	fmt.Fprintf(w, "  broadcaster:  %s\n", r.Broadcaster)
	fmt.Fprintf(w, "  flip-flops:   %d\n", r.Modules[circuit.KindFlipFlop.String()])
	fmt.Fprintf(w, "  conjunctions: %d\n", r.Modules[circuit.KindConjunction.String()])
	fmt.Fprintf(w, "  sinks:        %s\n", strings.Join(r.Sinks, ", "))
	fmt.Fprintf(w, "  graph hash:   %s\n", r.GraphHash)
	if r.Topology != nil {
		fmt.Fprintf(w, "  horizon:      %s <- %s <- %s\n",
			r.Topology.Sink, r.Topology.Gate, strings.Join(r.Topology.Inputs, ", "))
	}
	return nil
}
