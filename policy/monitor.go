package policy

import "github.com/holiman/uint256"

// Monitor tracks cumulative burn against a fixed threshold. Crossing the
// threshold flips the removed flag exactly once; nothing ever unsets it.
type Monitor struct {
	burned    *uint256.Int
	threshold *uint256.Int
	removed   bool
}

// NewMonitor returns a monitor with the given permanent threshold. A zero
// threshold is treated as already satisfied by any burn.
func NewMonitor(threshold *uint256.Int) *Monitor {
	return &Monitor{
		burned:    new(uint256.Int),
		threshold: threshold.Clone(),
	}
}

// RecordBurn adds amount to the cumulative burn counter and reports whether
// this call crossed the threshold. The counter only ever grows; transfers
// out of the burn sink, were they possible, would not decrement it.
func (m *Monitor) RecordBurn(amount *uint256.Int) (crossed bool) {
	if amount == nil || amount.IsZero() {
		return false
	}
	m.burned.Add(m.burned, amount)
	if !m.removed && !m.burned.Lt(m.threshold) {
		m.removed = true
		return true
	}
	return false
}

// Removed reports whether taxes have been permanently removed.
func (m *Monitor) Removed() bool { return m.removed }

// BurnedTotal returns the cumulative amount burned.
func (m *Monitor) BurnedTotal() *uint256.Int { return m.burned.Clone() }

// Threshold returns the fixed removal threshold.
func (m *Monitor) Threshold() *uint256.Int { return m.threshold.Clone() }

// Remaining returns how much more must burn before removal, or zero once
// the threshold is crossed.
func (m *Monitor) Remaining() *uint256.Int {
	if m.removed || !m.burned.Lt(m.threshold) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(m.threshold, m.burned)
}
