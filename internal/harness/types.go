package harness

import (
	"github.com/roach88/pulsesim/internal/engine"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Presses is how many triggers completed.
	Presses int64 `json:"presses"`

	// Totals are the Low/High counts over every completed trigger.
	Totals engine.Counts `json:"totals"`

	// PressCounts holds the counts of each trigger, index 0 for press 1.
	PressCounts []engine.Counts `json:"press_counts"`

	// Traces holds the full traces of the first presses kept for golden
	// and trace assertions.
	Traces []engine.Trace `json:"-"`

	// RunID is the run the presses were recorded under.
	RunID string `json:"run_id"`

	// Err is the build or simulation error that stopped the scenario, if any.
	Err error `json:"-"`

	// ErrCode is the code of Err when it carries one.
	ErrCode string `json:"err_code,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		PressCounts: []engine.Counts{},
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Trace returns the kept trace of press, or nil if it was not kept.
func (r *Result) Trace(press int64) engine.Trace {
	if press < 1 || press > int64(len(r.Traces)) {
		return nil
	}
	return r.Traces[press-1]
}
