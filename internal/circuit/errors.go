package circuit

import (
	"errors"
	"fmt"
)

// DefinitionErrorCode categorizes construction failures.
type DefinitionErrorCode string

const (
	// ErrCodeMalformedDefinition covers unparseable lines, unknown tags,
	// duplicate or missing broadcasters and duplicate module ids.
	ErrCodeMalformedDefinition DefinitionErrorCode = "MALFORMED_DEFINITION"
)

// ErrSimulationStarted is returned by InitializeConjunctionMemory once a
// trigger has run on the graph.
var ErrSimulationStarted = errors.New("conjunction memory cannot be initialized after simulation has started")

// DefinitionError reports a module definition the graph cannot be built from.
// It is fatal: Build returns no graph alongside it.
type DefinitionError struct {
	Code DefinitionErrorCode

	// ModuleID is the offending module, empty when the error is global
	// (for example a missing broadcaster).
	ModuleID string

	// Line is the source line when known.
	Line int

	Message string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	switch {
	case e.Line > 0 && e.ModuleID != "":
		return fmt.Sprintf("%s: line %d: module %q: %s", e.Code, e.Line, e.ModuleID, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	case e.ModuleID != "":
		return fmt.Sprintf("%s: module %q: %s", e.Code, e.ModuleID, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsMalformed returns true if err is, or wraps, a malformed definition error.
func IsMalformed(err error) bool {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de.Code == ErrCodeMalformedDefinition
	}
	return false
}

// NewMalformedError builds a malformed definition error.
func NewMalformedError(moduleID string, line int, format string, args ...any) *DefinitionError {
	return &DefinitionError{
		Code:     ErrCodeMalformedDefinition,
		ModuleID: moduleID,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	}
}
