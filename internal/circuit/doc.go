// Package circuit holds the module graph that pulses travel through.
//
// A circuit is a directed graph of typed, stateful modules:
//
//   - Broadcaster: stateless, echoes every pulse to all of its outputs.
//     Exactly one per circuit; it is the entry point of every trigger.
//   - FlipFlop: ignores High pulses, toggles on Low and emits High when it
//     turns on, Low when it turns off.
//   - Conjunction: remembers the last level received from each input and
//     emits Low only when every remembered level is High.
//
// Any destination that is referenced but never defined is a sink. Sinks have
// no state and never emit.
//
// OWNERSHIP:
//
// A Graph is long-lived mutable state. FlipFlop states and Conjunction
// memories persist across triggers and are mutated only by the engine while
// it drains a trigger. A Graph must have exactly one writer; callers that
// want to study the circuit independently take a Clone.
//
// Conjunction memory keys are fixed at Build time by a single reverse-edge
// scan. Entries are updated afterwards, never added or removed.
package circuit
