package ir

import (
	"slices"
	"unicode/utf16"

	"github.com/roach88/pulsesim/internal/circuit"
)

// Value is a sealed interface over the canonical value types.
// There is no float and no null.
type Value interface {
	value()
}

// String is a string value.
type String string

func (String) value() {}

// Int is an integer value.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Array is an ordered list of values.
type Array []Value

func (Array) value() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs above U+FFFF.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Strings converts ss to an Array of String.
func Strings(ss []string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

// FromDefinition converts one module definition. Line is omitted: moving
// a module within its file does not change the circuit.
func FromDefinition(d circuit.Definition) Object {
	return Object{
		"id":      String(d.ID),
		"kind":    String(d.Kind.String()),
		"outputs": Strings(d.Outputs),
	}
}

// FromDefinitions converts defs sorted by id.
func FromDefinitions(defs []circuit.Definition) Array {
	sorted := slices.Clone(defs)
	slices.SortFunc(sorted, func(a, b circuit.Definition) int {
		return compareUTF16(a.ID, b.ID)
	})
	arr := make(Array, len(sorted))
	for i, d := range sorted {
		arr[i] = FromDefinition(d)
	}
	return arr
}

// FromPulse converts one delivered pulse.
func FromPulse(p circuit.Pulse) Object {
	return Object{
		"seq":   Int(p.Seq),
		"press": Int(p.Press),
		"from":  String(p.From),
		"to":    String(p.To),
		"level": String(p.Level.String()),
	}
}

// FromPulses converts a trace, keeping delivery order.
func FromPulses(ps []circuit.Pulse) Array {
	arr := make(Array, len(ps))
	for i, p := range ps {
		arr[i] = FromPulse(p)
	}
	return arr
}
