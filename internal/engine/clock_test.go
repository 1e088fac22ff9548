package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pulsesim/internal/circuit"
)

func TestClock_StartsBeforeFirstPress(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Press())
	assert.Equal(t, int64(0), c.Seq())
}

func TestClock_StampNumbersWithinPress(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.StartPress())

	var a, b circuit.Pulse
	c.Stamp(&a)
	c.Stamp(&b)
	assert.Equal(t, int64(1), a.Press)
	assert.Equal(t, int64(1), a.Seq)
	assert.Equal(t, int64(2), b.Seq)
	assert.Equal(t, int64(2), c.Seq())
}

func TestClock_SeqRestartsEachPress(t *testing.T) {
	c := NewClock()
	c.StartPress()
	var p circuit.Pulse
	c.Stamp(&p)
	c.Stamp(&p)

	assert.Equal(t, int64(2), c.StartPress())
	assert.Equal(t, int64(0), c.Seq())
	c.Stamp(&p)
	assert.Equal(t, int64(2), p.Press)
	assert.Equal(t, int64(1), p.Seq)
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(100)
	assert.Equal(t, int64(100), c.Press())
	assert.Equal(t, int64(101), c.StartPress())
}

func TestClock_Reset(t *testing.T) {
	c := NewClock()
	c.StartPress()
	c.StartPress()
	var p circuit.Pulse
	c.Stamp(&p)

	c.Reset()
	assert.Equal(t, int64(0), c.Press())
	assert.Equal(t, int64(0), c.Seq())
	assert.Equal(t, int64(1), c.StartPress())
}
