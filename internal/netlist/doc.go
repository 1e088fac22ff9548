// Package netlist reads circuit declarations into circuit definitions.
//
// Two formats are supported.
//
// # Text
//
// One module per line, as printed in the puzzle:
//
//	broadcaster -> a, b, c
//	%a -> b
//	&inv -> a
//
// A leading % declares a FlipFlop, & a Conjunction, and no tag the
// broadcaster. Destinations are separated by commas. Blank lines and lines
// starting with # are ignored. Destinations without a definition are sinks.
//
// # CUE
//
// A top-level circuit struct keyed by module id:
//
//	circuit: {
//		broadcaster: {kind: "broadcaster", outputs: ["a"]}
//		a:           {kind: "flipflop", outputs: ["inv"]}
//		inv:         {kind: "conjunction", outputs: ["a", "rx"]}
//	}
//
// CUE constraints and references may be used freely; the value is
// evaluated before it is read.
package netlist
