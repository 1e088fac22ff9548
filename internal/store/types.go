package store

import "errors"

// RunKind says which query a run answered.
type RunKind string

const (
	RunKindCount   RunKind = "count"
	RunKindHorizon RunKind = "horizon"
)

// Run is one recorded invocation of the simulator against a circuit.
type Run struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	Kind      RunKind `json:"kind"`
	Source    string  `json:"source"`
	GraphHash string  `json:"graph_hash"`
	Sink      string  `json:"sink,omitempty"`

	// Totals, filled in by FinishRun.
	Presses int64 `json:"presses"`
	Low     int64 `json:"low"`
	High    int64 `json:"high"`

	// Result is Low*High for count runs and the horizon for horizon runs.
	Result int64 `json:"result"`

	// Complete is false until FinishRun succeeds; an interrupted run keeps
	// whatever presses it wrote.
	Complete bool `json:"complete"`
}

// PressSummary is the stored outcome of one trigger.
type PressSummary struct {
	Press  int64  `json:"press"`
	Low    int64  `json:"low"`
	High   int64  `json:"high"`
	Digest string `json:"digest"`
}

// Period is a first-High press found by a horizon run.
type Period struct {
	Source string `json:"source"`
	Press  int64  `json:"press"`
}

// ErrNotRecorded is returned when a press has a summary but its pulses
// were not stored.
var ErrNotRecorded = errors.New("press trace not recorded")
