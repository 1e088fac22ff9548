package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a circuit test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Circuit is an inline text netlist.
	Circuit string `yaml:"circuit,omitempty"`

	// CircuitFile is a text or CUE netlist, relative to the scenario file.
	// Exactly one of Circuit and CircuitFile must be set.
	CircuitFile string `yaml:"circuit_file,omitempty"`

	// Presses is how many triggers to run. Zero is allowed.
	Presses int `yaml:"presses"`

	// MaxPulses overrides the per-trigger quota.
	MaxPulses int `yaml:"max_pulses,omitempty"`

	// GoldenPresses is how many leading traces RunWithGolden snapshots.
	GoldenPresses int `yaml:"golden_presses,omitempty"`

	// Assertions validate counts, traces, final state and horizons.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Press selects a trigger (press_counts, trace_contains, trace_order).
	Press int64 `yaml:"press,omitempty"`

	// Low and High are expected counts (counts, press_counts).
	Low  int64 `yaml:"low,omitempty"`
	High int64 `yaml:"high,omitempty"`

	// Value is an expected number (product, horizon).
	Value int64 `yaml:"value,omitempty"`

	// Edge is a pulse written "from -level-> to" (trace_contains).
	Edge string `yaml:"edge,omitempty"`

	// Edges must appear in this order, not necessarily adjacent (trace_order).
	Edges []string `yaml:"edges,omitempty"`

	// Module, On and Memory describe final module state (final_state).
	// Memory maps conjunction inputs to "low" or "high"; entries not
	// listed are not checked.
	Module string            `yaml:"module,omitempty"`
	On     *bool             `yaml:"on,omitempty"`
	Memory map[string]string `yaml:"memory,omitempty"`

	// Sink, MaxPresses and Periods configure a horizon query (horizon).
	Sink       string           `yaml:"sink,omitempty"`
	MaxPresses int64            `yaml:"max_presses,omitempty"`
	Periods    map[string]int64 `yaml:"periods,omitempty"`

	// Code is the expected error code (error, horizon).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertCounts        = "counts"
	AssertProduct       = "product"
	AssertPressCounts   = "press_counts"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertFinalState    = "final_state"
	AssertHorizon       = "horizon"
	AssertError         = "error"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// CircuitFile is resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.CircuitFile != "" && !filepath.IsAbs(scenario.CircuitFile) {
		scenario.CircuitFile = filepath.Join(filepath.Dir(path), scenario.CircuitFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Circuit == "" && s.CircuitFile == "":
		return fmt.Errorf("one of circuit or circuit_file is required")
	case s.Circuit != "" && s.CircuitFile != "":
		return fmt.Errorf("circuit and circuit_file are mutually exclusive")
	}

	if s.CircuitFile != "" {
		if _, err := os.Stat(s.CircuitFile); os.IsNotExist(err) {
			return fmt.Errorf("circuit file not found: %s", s.CircuitFile)
		}
	}

	if s.Presses < 0 {
		return fmt.Errorf("presses must be non-negative, got %d", s.Presses)
	}
	if s.GoldenPresses < 0 || s.GoldenPresses > s.Presses {
		return fmt.Errorf("golden_presses must be between 0 and presses (%d), got %d", s.Presses, s.GoldenPresses)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Presses); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, presses int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsPress := func() error {
		if a.Press < 1 || a.Press > int64(presses) {
			return fmt.Errorf("assertions[%d]: press must be between 1 and %d for %s", index, presses, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertCounts, AssertProduct, AssertDeterministic:
	case AssertPressCounts:
		return needsPress()
	case AssertTraceContains:
		if a.Edge == "" {
			return fmt.Errorf("assertions[%d]: edge is required for trace_contains", index)
		}
		return needsPress()
	case AssertTraceOrder:
		if len(a.Edges) == 0 {
			return fmt.Errorf("assertions[%d]: edges list is required for trace_order", index)
		}
		return needsPress()
	case AssertFinalState:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for final_state", index)
		}
		if a.On == nil && len(a.Memory) == 0 {
			return fmt.Errorf("assertions[%d]: on or memory is required for final_state", index)
		}
	case AssertHorizon:
		if a.Sink == "" {
			return fmt.Errorf("assertions[%d]: sink is required for horizon", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// keptPresses is how many leading traces a run must retain.
func (s *Scenario) keptPresses() int64 {
	kept := int64(s.GoldenPresses)
	for _, a := range s.Assertions {
		if (a.Type == AssertTraceContains || a.Type == AssertTraceOrder) && a.Press > kept {
			kept = a.Press
		}
	}
	return kept
}

// expectsError reports whether the scenario asserts on a stopping error.
func (s *Scenario) expectsError() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
