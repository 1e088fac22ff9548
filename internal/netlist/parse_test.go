package netlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulsesim/internal/circuit"
)

const inverterLoop = `broadcaster -> a, b, c
%a -> b
%b -> c
%c -> inv
&inv -> a
`

func TestParse_InverterLoop(t *testing.T) {
	defs, err := ParseString(inverterLoop)
	require.NoError(t, err)
	require.Len(t, defs, 5)

	assert.Equal(t, circuit.Definition{
		ID: "broadcaster", Kind: circuit.KindBroadcaster, Outputs: []string{"a", "b", "c"}, Line: 1,
	}, defs[0])
	assert.Equal(t, circuit.Definition{
		ID: "a", Kind: circuit.KindFlipFlop, Outputs: []string{"b"}, Line: 2,
	}, defs[1])
	assert.Equal(t, circuit.Definition{
		ID: "inv", Kind: circuit.KindConjunction, Outputs: []string{"a"}, Line: 5,
	}, defs[4])
}

func TestParse_SkipsBlankAndCommentLines(t *testing.T) {
	defs, err := ParseString(`
# the entry point
broadcaster -> a

%a -> output
`)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 3, defs[0].Line)
	assert.Equal(t, 5, defs[1].Line)
}

func TestParse_ToleratesIrregularSpacing(t *testing.T) {
	defs, err := ParseString("  %a->b ,c,  d  ")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, []string{"b", "c", "d"}, defs[0].Outputs)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		want  string
	}{
		{"missing arrow", "broadcaster a, b", 1, "missing"},
		{"empty id", "% -> a", 1, "empty id"},
		{"bad id", "broadcaster -> a\n%a-x -> b", 2, "invalid character"},
		{"empty destination", "broadcaster -> a, , b", 1, "bad destination"},
		{"no destinations", "broadcaster ->", 1, "bad destination"},
		{"unknown tag", "!q -> a", 1, "invalid character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			require.Error(t, err)
			assert.True(t, circuit.IsMalformed(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)

			var de *circuit.DefinitionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.line, de.Line)
		})
	}
}

func TestLoadString_DuplicateBroadcaster(t *testing.T) {
	_, err := LoadString("broadcaster -> a\nbutton -> a\n%a -> rx")
	require.Error(t, err)
	assert.True(t, circuit.IsMalformed(err))
	assert.Contains(t, err.Error(), "second broadcaster")
}

func TestLoadString_ExampleSinks(t *testing.T) {
	g, err := LoadString(`broadcaster -> a
%a -> inv, con
&inv -> b
%b -> con
&con -> output`)
	require.NoError(t, err)
	assert.Equal(t, []string{"output"}, g.Sinks())

	m, ok := g.Module("con")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.(*circuit.Conjunction).Inputs())
}

func TestLoad_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.txt")
	require.NoError(t, os.WriteFile(path, []byte(inverterLoop), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.False(t, circuit.IsMalformed(err))
	assert.Contains(t, err.Error(), "read circuit file")
}

func TestLoad_MalformedFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("broadcaster a"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, circuit.IsMalformed(err))
	assert.Contains(t, err.Error(), "bad.txt")
}
