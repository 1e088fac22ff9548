// Package ir is the canonical, content-addressable representation of
// circuits and traces.
//
// Values are restricted to strings, integers, booleans, arrays and objects.
// MarshalCanonical renders them as RFC 8785 JSON, which feeds the graph
// hashes and trace digests that identify recorded runs and golden files.
//
// ir imports only circuit; everything above it (engine output, store and
// harness) converts through here.
package ir
