package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pulsesim/internal/ir"
)

// Snapshot renders the kept traces of result as canonical JSON lines: a
// header, then for each press a counts line followed by one line per pulse.
//
//	{"presses":1,"scenario_name":"inverter-loop"}
//	{"high":4,"low":8,"press":1}
//	{"from":"button","level":"low","press":1,"seq":1,"to":"broadcaster"}
//	...
func Snapshot(name string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	write := func(v ir.Value) error {
		line, err := ir.MarshalCanonical(v)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
		return nil
	}

	header := ir.Object{
		"scenario_name": ir.String(name),
		"presses":       ir.Int(len(result.Traces)),
	}
	if err := write(header); err != nil {
		return nil, err
	}

	for i, trace := range result.Traces {
		press := int64(i + 1)
		counts := result.PressCounts[i]
		if err := write(ir.Object{
			"press": ir.Int(press),
			"low":   ir.Int(counts.Low),
			"high":  ir.Int(counts.High),
		}); err != nil {
			return nil, fmt.Errorf("press %d: %w", press, err)
		}
		for _, p := range trace {
			if err := write(ir.FromPulse(p)); err != nil {
				return nil, fmt.Errorf("press %d: %w", press, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the kept traces against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the traces don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)

	return nil
}
