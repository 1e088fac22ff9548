package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		pulses  int
		wantErr bool
	}{
		{"under limit", 10, 9, false},
		{"exactly at limit", 10, 10, false},
		{"one over", 10, 11, true},
		{"limit of one", 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuotaEnforcer(tt.limit)
			var err error
			for i := 0; i < tt.pulses && err == nil; i++ {
				err = q.Check(1)
			}
			if tt.wantErr {
				assert.True(t, IsQuotaError(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.limit-tt.pulses, q.Remaining())
			}
		})
	}
}

func TestQuotaEnforcer_ErrorDetails(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check(7))
	}

	err := q.Check(7)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeQuotaExceeded, re.Code)
	assert.Equal(t, int64(7), re.Press)
	assert.Equal(t, "6", re.Details["pulses"])
	assert.Equal(t, "5", re.Details["max_pulses"])
	assert.Equal(t, 0, q.Remaining())

	// Stays exhausted until reset.
	assert.Error(t, q.Check(7))
	q.Reset()
	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check(8))
}

func TestQuotaEnforcer_DefaultLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		q := NewQuotaEnforcer(limit)
		assert.Equal(t, DefaultMaxPulses, q.MaxPulses())
		assert.Equal(t, DefaultMaxPulses, q.Remaining())
	}
}
