// Package engine drives pulses through a circuit.Graph.
//
// The engine owns the graph for the duration of a run: it is the only writer
// of FlipFlop state and Conjunction memory.
//
// ARCHITECTURE:
//
// Single-Writer Trigger Loop:
// A trigger ("button press") seeds the FIFO queue with one Low pulse from
// the button to the broadcaster, then drains the queue to quiescence before
// Press returns. There is no suspension or parallel dispatch inside a
// trigger: processing two pulses out of FIFO order would change Conjunction
// memory and therefore every later output level.
//
// Pulse Processing Flow:
//  1. Dequeue the oldest pulse
//  2. Stamp it with its seq and press number and append it to the trace
//  3. Resolve the destination; sinks absorb the pulse
//  4. Module.Receive updates state and decides the output level
//  5. One pulse per output is enqueued
//
// Breadth-first processing gives a level-order trace that is identical
// across runs given identical pre-trigger state.
//
// LONG HORIZONS:
//
// DetectHorizon answers "on which press does sink X first receive Low" for
// circuits where a single Conjunction gate feeds X and each gate input is
// driven by its own independent sub-circuit. It finds the first press c on
// which each input sends High to the gate, confirms the next High lands on
// press 2c, and combines the periods with an LCM. The topology is validated
// first; outside that shape, or when an input does not recur on 2c, the
// detector refuses with UNSUPPORTED_TOPOLOGY.
//
// BOUNDS:
//
//   - Per-trigger pulse quota: a trigger that never quiesces fails with
//     QUOTA_EXCEEDED.
//   - Press cap: DetectHorizon gives up with NO_CONVERGENCE.
//   - Context cancellation is checked between presses.
package engine
