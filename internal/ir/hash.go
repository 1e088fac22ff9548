package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/pulsesim/internal/circuit"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room to change the encoding later.
const (
	DomainGraph = "pulsesim/graph/v1"
	DomainTrace = "pulsesim/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphHash identifies a circuit by its definitions. Declaration order,
// line numbers and the source format (text or CUE) do not affect it;
// output order does, since it fixes emission order.
func GraphHash(defs []circuit.Definition) (string, error) {
	canonical, err := MarshalCanonical(FromDefinitions(defs))
	if err != nil {
		return "", fmt.Errorf("GraphHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// TraceDigest identifies the exact pulse sequence of one or more triggers.
func TraceDigest(trace []circuit.Pulse) (string, error) {
	canonical, err := MarshalCanonical(FromPulses(trace))
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustGraphHash is like GraphHash but panics on error.
// Definitions always marshal, so this only panics on a programming error.
func MustGraphHash(defs []circuit.Definition) string {
	h, err := GraphHash(defs)
	if err != nil {
		panic(err)
	}
	return h
}
