package netlist

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/roach88/pulsesim/internal/circuit"
)

// tags
const (
	tagFlipFlop    = '%'
	tagConjunction = '&'
	arrow          = "->"
)

// Parse reads the text netlist format from r.
//
// Every returned error that concerns the input itself wraps a
// *circuit.DefinitionError carrying the line number.
func Parse(r io.Reader) ([]circuit.Definition, error) {
	var defs []circuit.Definition

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		d, err := parseLine(text, line)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read netlist")
	}
	return defs, nil
}

// ParseString parses a netlist held in a string.
func ParseString(s string) ([]circuit.Definition, error) {
	return Parse(strings.NewReader(s))
}

func parseLine(text string, line int) (circuit.Definition, error) {
	lhs, rhs, ok := strings.Cut(text, arrow)
	if !ok {
		return circuit.Definition{}, circuit.NewMalformedError("", line, "missing %q", arrow)
	}

	d := circuit.Definition{Kind: circuit.KindBroadcaster, Line: line}
	name := strings.TrimSpace(lhs)
	switch {
	case strings.HasPrefix(name, string(tagFlipFlop)):
		d.Kind = circuit.KindFlipFlop
		name = name[1:]
	case strings.HasPrefix(name, string(tagConjunction)):
		d.Kind = circuit.KindConjunction
		name = name[1:]
	}
	if err := checkID(name); err != nil {
		return d, circuit.NewMalformedError(name, line, "bad module id: %v", err)
	}
	d.ID = name

	for _, dest := range strings.Split(rhs, ",") {
		dest = strings.TrimSpace(dest)
		if err := checkID(dest); err != nil {
			return d, circuit.NewMalformedError(name, line, "bad destination id: %v", err)
		}
		d.Outputs = append(d.Outputs, dest)
	}
	return d, nil
}

// checkID accepts letters, digits and underscores.
func checkID(id string) error {
	if id == "" {
		return errors.New("empty id")
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return errors.Errorf("invalid character %q in %q", r, id)
		}
	}
	return nil
}

// ParseFile reads definitions from path. Files ending in .cue are read as
// CUE, anything else as the text format.
func ParseFile(path string) ([]circuit.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read circuit file")
	}

	var defs []circuit.Definition
	if filepath.Ext(path) == ".cue" {
		defs, err = ParseCUE(path, src)
	} else {
		defs, err = Parse(strings.NewReader(string(src)))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return defs, nil
}

// Load parses path and builds the graph.
func Load(path string) (*circuit.Graph, error) {
	defs, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	g, err := circuit.Build(defs)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", path)
	}
	return g, nil
}

// LoadString parses a text netlist and builds the graph.
func LoadString(s string) (*circuit.Graph, error) {
	defs, err := ParseString(s)
	if err != nil {
		return nil, err
	}
	return circuit.Build(defs)
}
