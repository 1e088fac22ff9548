package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while simulating a circuit.
//
// Runtime errors include:
//   - Unsupported topology: the horizon detector's structural precondition fails
//   - No convergence: the press cap was hit before every period was found
//   - Quota exceeded: a single trigger produced too many pulses
//   - Horizon overflow: the LCM does not fit in 64 bits
//
// None of them corrupt the graph the caller built; the detector runs on a
// clone and a quota failure leaves a half-drained trigger that the caller
// can Reset.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Sink is the sink a horizon query was about, if any.
	Sink string

	// Press is the trigger the error was raised on, 0 if not applicable.
	Press int64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnsupportedTopology indicates the circuit is not the
	// single-gate, independent fan-in shape the horizon detector needs.
	ErrCodeUnsupportedTopology RuntimeErrorCode = "UNSUPPORTED_TOPOLOGY"

	// ErrCodeNoConvergence indicates the press cap was exceeded.
	ErrCodeNoConvergence RuntimeErrorCode = "NO_CONVERGENCE"

	// ErrCodeQuotaExceeded indicates a trigger exceeded its pulse quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeHorizonOverflow indicates the LCM overflowed int64.
	ErrCodeHorizonOverflow RuntimeErrorCode = "HORIZON_OVERFLOW"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Sink != "" && e.Press > 0 {
		return fmt.Sprintf("%s: %s (sink=%s, press=%d)", e.Code, e.Message, e.Sink, e.Press)
	}
	if e.Sink != "" {
		return fmt.Sprintf("%s: %s (sink=%s)", e.Code, e.Message, e.Sink)
	}
	if e.Press > 0 {
		return fmt.Sprintf("%s: %s (press=%d)", e.Code, e.Message, e.Press)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnsupportedTopology returns true if the error is a topology error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedTopology(err error) bool {
	return hasCode(err, ErrCodeUnsupportedTopology)
}

// IsNoConvergence returns true if the press cap was exceeded.
func IsNoConvergence(err error) bool {
	return hasCode(err, ErrCodeNoConvergence)
}

// IsQuotaError returns true if a trigger exceeded its pulse quota.
func IsQuotaError(err error) bool {
	return hasCode(err, ErrCodeQuotaExceeded)
}

// IsOverflow returns true if a horizon did not fit in int64.
func IsOverflow(err error) bool {
	return hasCode(err, ErrCodeHorizonOverflow)
}

// NewTopologyError creates a RuntimeError for an unsupported topology.
func NewTopologyError(sink, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnsupportedTopology,
		Message: fmt.Sprintf(format, args...),
		Sink:    sink,
	}
}

// NewNoConvergenceError creates a RuntimeError for an exhausted press cap.
// missing lists the gate inputs whose period was never observed.
func NewNoConvergenceError(sink string, maxPresses int64, missing []string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNoConvergence,
		Message: fmt.Sprintf("no period found for %d input(s) within %d presses", len(missing), maxPresses),
		Sink:    sink,
		Press:   maxPresses,
		Details: map[string]string{
			"max_presses": fmt.Sprintf("%d", maxPresses),
			"missing":     fmt.Sprintf("%v", missing),
		},
	}
}

// NewQuotaError creates a RuntimeError for a trigger that would not quiesce.
func NewQuotaError(press int64, pulses, maxPulses int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("trigger exceeded max pulses (%d > %d)", pulses, maxPulses),
		Press:   press,
		Details: map[string]string{
			"pulses":     fmt.Sprintf("%d", pulses),
			"max_pulses": fmt.Sprintf("%d", maxPulses),
		},
	}
}

// NewOverflowError creates a RuntimeError for an LCM that overflows.
func NewOverflowError(sink string, periods []int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeHorizonOverflow,
		Message: fmt.Sprintf("lcm of %v overflows int64", periods),
		Sink:    sink,
	}
}
