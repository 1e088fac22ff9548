package engine

// DefaultMaxPulses is the default per-trigger pulse quota.
const DefaultMaxPulses = 1_000_000

// QuotaEnforcer bounds the number of pulses a single trigger may deliver.
// A conjunction feedback loop can oscillate without end inside one press;
// once the budget is spent the press fails with QUOTA_EXCEEDED. The
// Simulator resets the enforcer before every press.
type QuotaEnforcer struct {
	limit int
	used  int
}

// NewQuotaEnforcer returns an enforcer allowing limit pulses per trigger.
// Non-positive limits fall back to DefaultMaxPulses.
func NewQuotaEnforcer(limit int) *QuotaEnforcer {
	q := &QuotaEnforcer{limit: limit}
	if q.limit <= 0 {
		q.limit = DefaultMaxPulses
	}
	return q
}

// Check records one delivered pulse for press. It fails on the first
// pulse beyond the limit and on every pulse after it.
func (q *QuotaEnforcer) Check(press int64) error {
	q.used++
	if q.used <= q.limit {
		return nil
	}
	return NewQuotaError(press, q.used, q.limit)
}

// Remaining is the number of pulses still allowed, never negative.
func (q *QuotaEnforcer) Remaining() int {
	return max(q.limit-q.used, 0)
}

// Reset starts a new press with the full budget.
func (q *QuotaEnforcer) Reset() { q.used = 0 }

// Current is the number of pulses checked since the last Reset.
func (q *QuotaEnforcer) Current() int { return q.used }

// MaxPulses is the per-press limit.
func (q *QuotaEnforcer) MaxPulses() int { return q.limit }
