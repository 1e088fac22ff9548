package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingScenario = `name: wrong-counts
description: expects the wrong totals
circuit: |
  broadcaster -> a
  %a -> output
presses: 1
assertions:
  - type: counts
    low: 5
    high: 5
`

const passingScenario = `name: one-flipflop
description: a single flip-flop toggles on and sends high
circuit: |
  broadcaster -> a
  %a -> output
presses: 1
assertions:
  - type: counts
    low: 2
    high: 1
  - type: final_state
    module: a
    on: true
`

// copyHarnessFixture copies a harness scenario, and its golden file when
// golden is set, into dir.
func copyHarnessFixture(t *testing.T, dir, name string, golden bool) {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	writeFile(t, dir, name+".yaml", string(src))

	if golden {
		g, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", name+".golden"))
		require.NoError(t, err)
		writeFile(t, dir, filepath.Join("golden", name+".golden"), string(g))
	}
}

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandPassingWithGolden(t *testing.T) {
	dir := t.TempDir()
	copyHarnessFixture(t, dir, "inverter-loop", true)
	copyHarnessFixture(t, dir, "scenario-a", true)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "✓ inverter-loop")
	assert.Contains(t, stdout, "✓ scenario-a")
	assert.Contains(t, stdout, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	copyHarnessFixture(t, dir, "inverter-loop", false)
	writeFile(t, dir, filepath.Join("golden", "inverter-loop.golden"), "{}\n")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ inverter-loop")
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	copyHarnessFixture(t, dir, "scenario-a", false)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ scenario-a (golden updated)")

	got, err := os.ReadFile(filepath.Join(dir, "golden", "scenario-a.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "scenario-a.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", failingScenario)
	writeFile(t, dir, "right.yaml", passingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✓ one-flipflop")
	assert.Contains(t, stdout, "✗ wrong-counts")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.True(t, exitErr.Reported, "the summary already reports the failure")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wrong.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, path)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", failingScenario)
	writeFile(t, dir, "right.yaml", passingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir, "--filter", "ri*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, stdout, "wrong-counts")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\npresses: 1\n")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandRunsHarnessFixtures(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "0 failed")
}

func TestFindScenarioFilesSkipsGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", passingScenario)
	writeFile(t, dir, "nested/b.yml", passingScenario)
	writeFile(t, dir, "golden/c.yaml", passingScenario)
	writeFile(t, dir, "notes.txt", "x")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yml"),
	}, files)
}
