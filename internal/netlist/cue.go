package netlist

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pulsesim/internal/circuit"
)

// ParseCUE evaluates src as CUE and reads its circuit struct. name is used
// as the file name in positions.
//
// Module order follows field declaration order; Line carries the CUE
// position of each module.
func ParseCUE(name string, src []byte) ([]circuit.Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("circuit"))
	if !root.Exists() {
		return nil, circuit.NewMalformedError("", 0, "no circuit struct")
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []circuit.Definition
	for iter.Next() {
		d, err := parseCUEModule(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func parseCUEModule(id string, v cue.Value) (circuit.Definition, error) {
	line := lineOf(v.Pos())
	d := circuit.Definition{ID: id, Line: line}
	if err := checkID(id); err != nil {
		return d, circuit.NewMalformedError(id, line, "bad module id: %v", err)
	}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return d, circuit.NewMalformedError(id, line, "kind is required")
	}
	kind, err := kindVal.String()
	if err != nil {
		return d, formatCUEError(err)
	}
	d.Kind = circuit.ParseKind(kind)
	if d.Kind == circuit.KindUnknown {
		return d, circuit.NewMalformedError(id, line, "unknown kind %q", kind)
	}

	outVal := v.LookupPath(cue.ParsePath("outputs"))
	if !outVal.Exists() {
		return d, nil
	}
	list, err := outVal.List()
	if err != nil {
		return d, formatCUEError(err)
	}
	for list.Next() {
		dest, err := list.Value().String()
		if err != nil {
			return d, formatCUEError(err)
		}
		if err := checkID(dest); err != nil {
			return d, circuit.NewMalformedError(id, line, "bad destination id: %v", err)
		}
		d.Outputs = append(d.Outputs, dest)
	}
	return d, nil
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// formatCUEError turns the first CUE error into a malformed definition
// error carrying its line.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return circuit.NewMalformedError("", 0, "cue: %v", err)
	}

	first := errs[0]
	line := 0
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		line = lineOf(positions[0])
	}
	return circuit.NewMalformedError("", line, "cue: %v", first)
}
