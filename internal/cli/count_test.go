package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/store"
)

func TestCountInverterLoop(t *testing.T) {
	path := writeCircuit(t, inverterLoop)

	cmd := NewCountCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Presses: 1000")
	assert.Contains(t, stdout, "Low:     8000")
	assert.Contains(t, stdout, "High:    4000")
	assert.Contains(t, stdout, "Product: 32000000")
	assert.NotContains(t, stdout, "Run:")
}

func TestCountCounterJSON(t *testing.T) {
	path := writeCircuit(t, counterCircuit)

	cmd := NewCountCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, path)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CountResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(1000), resp.Data.Presses)
	assert.Equal(t, int64(4250), resp.Data.Low)
	assert.Equal(t, int64(2750), resp.Data.High)
	assert.Equal(t, int64(11687500), resp.Data.Product)
	assert.Len(t, resp.Data.GraphHash, 64)
	assert.Empty(t, resp.Data.RunID)
}

func TestCountZeroPresses(t *testing.T) {
	path := writeCircuit(t, inverterLoop)

	cmd := NewCountCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, path, "--presses", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Product: 0")
}

func TestCountRecordsRun(t *testing.T) {
	path := writeCircuit(t, inverterLoop)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	rootOpts := &RootOptions{Format: "text", RunIDs: engine.NewFixedGenerator("run-1")}
	cmd := NewCountCommand(rootOpts)
	stdout, _, err := executeCommand(cmd, path, "-n", "4", "--db", dbPath, "--record")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run:     run-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, run.Complete)
	assert.Equal(t, store.RunKindCount, run.Kind)
	assert.Equal(t, path, run.Source)
	assert.Equal(t, int64(4), run.Presses)
	assert.Equal(t, int64(32), run.Low)
	assert.Equal(t, int64(16), run.High)
	assert.Equal(t, int64(512), run.Result)

	presses, err := st.ReadPresses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, presses, 4)
	assert.Equal(t, int64(8), presses[3].Low)

	pulses, err := st.ReadTrace(ctx, "run-1", 1)
	require.NoError(t, err)
	assert.Len(t, pulses, 12)
}

func TestCountSummariesOnlyWithoutRecord(t *testing.T) {
	path := writeCircuit(t, inverterLoop)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	rootOpts := &RootOptions{Format: "text", RunIDs: engine.NewFixedGenerator("run-1")}
	cmd := NewCountCommand(rootOpts)
	_, _, err := executeCommand(cmd, path, "-n", "2", "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	presses, err := st.ReadPresses(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, presses, 2)

	pulses, err := st.ReadTrace(context.Background(), "run-1", 0)
	require.NoError(t, err)
	assert.Empty(t, pulses)
}

func TestCountRecordRequiresDB(t *testing.T) {
	path := writeCircuit(t, inverterLoop)

	cmd := NewCountCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, path, "--record")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "record requires a store path")
}

func TestCountNegativePresses(t *testing.T) {
	path := writeCircuit(t, inverterLoop)

	cmd := NewCountCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, path, "--presses", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCountQuotaExceeded(t *testing.T) {
	path := writeCircuit(t, "broadcaster -> a\n&a -> a\n")

	cmd := NewCountCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, path, "--max-pulses", "100")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [QUOTA_EXCEEDED]")
}

func TestCountMalformedCircuitJSON(t *testing.T) {
	path := writeCircuit(t, "broadcaster -> a\n%a b\n")

	cmd := NewCountCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MALFORMED_DEFINITION", resp.Error.Code)
}

func TestCountMissingCircuit(t *testing.T) {
	cmd := NewCountCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [LOAD_FAILED]")
}

func TestCountMissingArgs(t *testing.T) {
	cmd := NewCountCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
