package engine

import "github.com/roach88/pulsesim/internal/circuit"

// pulseQueue is the FIFO queue of pending pulses for one trigger.
//
// The queue is unbounded so a broadcaster with a wide fan-out can enqueue
// every pulse of a level at once. It is not safe for concurrent use: only
// the Simulator touches it, inside Press.
type pulseQueue struct {
	pulses []circuit.Pulse
	head   int
}

// newPulseQueue creates an empty queue.
func newPulseQueue() *pulseQueue {
	return &pulseQueue{
		pulses: make([]circuit.Pulse, 0, 64),
	}
}

// Enqueue adds a pulse to the back of the queue.
func (q *pulseQueue) Enqueue(p circuit.Pulse) {
	q.pulses = append(q.pulses, p)
}

// TryDequeue removes and returns the front pulse.
// Returns (circuit.Pulse{}, false) if the queue is empty.
func (q *pulseQueue) TryDequeue() (circuit.Pulse, bool) {
	if q.head == len(q.pulses) {
		return circuit.Pulse{}, false
	}

	p := q.pulses[q.head]
	q.head++

	// Reuse the backing array once drained so a long run does not keep
	// growing it.
	if q.head == len(q.pulses) {
		q.pulses = q.pulses[:0]
		q.head = 0
	}

	return p, true
}

// Len returns the number of pending pulses.
func (q *pulseQueue) Len() int {
	return len(q.pulses) - q.head
}

// Clear drops every pending pulse.
func (q *pulseQueue) Clear() {
	q.pulses = q.pulses[:0]
	q.head = 0
}
