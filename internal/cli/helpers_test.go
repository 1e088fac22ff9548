package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const inverterLoop = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

const counterCircuit = `broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output
`

// threeCounters feeds gate from resetting counters that send High on every
// multiple of 3, 5 and 7.
const threeCounters = `broadcaster -> a0, b0, c0
%a0 -> a1, da
%a1 -> da
&da -> sa, a0
&sa -> gate
%b0 -> b1, db
%b1 -> b2
%b2 -> db
&db -> sb, b0, b1
&sb -> gate
%c0 -> c1, dc
%c1 -> c2, dc
%c2 -> dc
&dc -> sc, c0
&sc -> gate
&gate -> rx
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeCircuit(t *testing.T, content string) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "circuit.txt", content)
}

// executeCommand runs cmd with args and returns what it wrote.
func executeCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
