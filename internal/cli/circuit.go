package cli

import (
	"context"
	"errors"

	"github.com/roach88/pulsesim/internal/circuit"
	"github.com/roach88/pulsesim/internal/engine"
	"github.com/roach88/pulsesim/internal/netlist"
	"github.com/roach88/pulsesim/internal/store"
)

// Error codes for failures that carry no code of their own.
const (
	ErrCodeLoad      = "LOAD_FAILED"
	ErrCodeStore     = "STORE_FAILED"
	ErrCodeCancelled = "CANCELLED"
	ErrCodeGeneric   = "ERROR"
)

// loadCircuit reads and builds the circuit at path. Malformed circuits are
// a check failure; unreadable files are a command error.
func loadCircuit(f *OutputFormatter, path string) (*circuit.Graph, error) {
	g, err := netlist.Load(path)
	if err == nil {
		return g, nil
	}

	var de *circuit.DefinitionError
	if errors.As(err, &de) {
		details := map[string]any{"module": de.ModuleID, "line": de.Line}
		return nil, f.Fail(ExitFailure, string(de.Code), err, details)
	}
	return nil, f.Fail(ExitCommandError, ErrCodeLoad, err, nil)
}

// openStore opens the database at path.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, err, map[string]string{"db": path})
	}
	return st, nil
}

// errorCode returns the code reported for a simulation error.
func errorCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	var de *circuit.DefinitionError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeCancelled
	}
	return ErrCodeGeneric
}

// failRun reports a simulation error. Engine failures and cancellation exit
// with ExitFailure; anything else is a store problem.
func failRun(f *OutputFormatter, err error) error {
	code := errorCode(err)
	exit := ExitFailure
	if code == ErrCodeGeneric {
		code = ErrCodeStore
		exit = ExitCommandError
	}

	var details any
	var re *engine.RuntimeError
	if errors.As(err, &re) && re.Details != nil {
		details = re.Details
	}
	return f.Fail(exit, code, err, details)
}
