package circuit

import "fmt"

// ButtonID is the synthetic source of the pulse that starts every trigger.
const ButtonID = "button"

// Level is the binary value carried by a pulse.
type Level int

const (
	// Low is the zero value so uninitialised memory reads as Low.
	Low Level = iota
	High
)

// String returns "low" or "high".
func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return Low, nil
	case "high":
		return High, nil
	default:
		return Low, fmt.Errorf("unknown pulse level %q", s)
	}
}

// Pulse is one event travelling along an edge.
//
// Pulses are values; once created they are never modified.
type Pulse struct {
	// Seq is the 1-based position of the pulse within its trigger's trace.
	Seq int64 `json:"seq"`

	// Press is the 1-based index of the trigger that produced the pulse.
	Press int64 `json:"press"`

	From  string `json:"from"`
	To    string `json:"to"`
	Level Level  `json:"level"`
}

// String renders the pulse the way the puzzle text does: "a -high-> b".
func (p Pulse) String() string {
	return fmt.Sprintf("%s -%s-> %s", p.From, p.Level, p.To)
}
