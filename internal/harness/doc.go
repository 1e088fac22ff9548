// Package harness runs circuit scenarios: declarative YAML files that name
// a circuit, press the button a number of times and assert on the outcome.
//
// A scenario looks like:
//
//	name: inverter-loop
//	description: three flip-flops closed by an inverter
//	circuit: |
//	  broadcaster -> a, b, c
//	  %a -> b
//	  %b -> c
//	  %c -> inv
//	  &inv -> a
//	presses: 1000
//	golden_presses: 1
//	assertions:
//	  - type: counts
//	    low: 8000
//	    high: 4000
//	  - type: trace_order
//	    press: 1
//	    edges: ["c -high-> inv", "inv -low-> a"]
//
// Every run records its presses into a fresh in-memory store, so the
// deterministic assertion can replay the circuit and compare digests.
//
// # Golden files
//
// RunWithGolden snapshots the first golden_presses traces as canonical JSON
// lines under testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
