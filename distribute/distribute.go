// Package distribute pays accumulated external asset out to configured
// beneficiaries in two phases: Queue snapshots each beneficiary's cut as a
// pending claim, Settle pays one claim out. The split keeps the phases
// small and makes a failed payment strand at most one claim instead of the
// whole round.
package distribute

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Event types recorded by the book.
const (
	EventConfigured   = "distribution_configured"
	EventQueued       = "distribution_queued"
	EventSettled      = "distribution_settled"
	EventSettleFailed = "distribution_settle_failed"
)

// Payer moves external asset between accounts. The bank satisfies this;
// tests substitute failing implementations.
type Payer interface {
	Pay(from, to token.Address, amount *uint256.Int) error
}

// Share is one beneficiary's cut of each distribution, in basis points.
type Share struct {
	Account token.Address
	Bps     uint16
}

// Book runs distribution cycles. Not safe for concurrent use.
type Book struct {
	payer    Payer
	source   token.Address
	minDelay uint64
	rec      journal.Recorder

	shares   []Share
	pending  map[token.Address]*uint256.Int
	queued   bool
	queuedAt uint64
}

// New builds a book paying out of source. minDelay is the minimum number of
// blocks between queue operations.
func New(payer Payer, source token.Address, minDelay uint64, rec journal.Recorder) *Book {
	if rec == nil {
		rec = journal.NopRecorder{}
	}
	return &Book{
		payer:    payer,
		source:   source,
		minDelay: minDelay,
		rec:      rec,
		pending:  make(map[token.Address]*uint256.Int),
	}
}

// Configure replaces the share table. Shares must be non-empty, name no
// null or duplicate accounts, and sum to exactly 10000 bps. The table
// cannot change while a cycle is pending settlement.
func (b *Book) Configure(shares []Share) error {
	if b.queued {
		return fmt.Errorf("%w: settle before reconfiguring", ErrAlreadyQueued)
	}
	if len(shares) == 0 {
		return fmt.Errorf("%w: empty", ErrBadShares)
	}
	total := 0
	seen := make(map[token.Address]bool)
	for _, s := range shares {
		if s.Account.IsZero() {
			return fmt.Errorf("%w: null account", ErrBadShares)
		}
		if seen[s.Account] {
			return fmt.Errorf("%w: duplicate account %s", ErrBadShares, s.Account)
		}
		seen[s.Account] = true
		total += int(s.Bps)
	}
	if total != token.BpsDenominator {
		return fmt.Errorf("%w: shares sum to %d bps", ErrBadShares, total)
	}

	b.shares = make([]Share, len(shares))
	copy(b.shares, shares)

	data := map[string]any{"count": len(shares)}
	for _, s := range shares {
		data[s.Account.String()] = int(s.Bps)
	}
	b.rec.Emit(EventConfigured, data)
	return nil
}

// Queue opens a cycle: each beneficiary's cut of available becomes a
// pending claim. Returns the total queued, which the caller must reserve;
// rounding dust below the share floors stays with the caller.
func (b *Book) Queue(block uint64, available *uint256.Int) (*uint256.Int, error) {
	if len(b.shares) == 0 {
		return nil, ErrNotConfigured
	}
	if b.queued {
		return nil, ErrAlreadyQueued
	}
	if b.queuedAt != 0 && block < b.queuedAt+b.minDelay {
		return nil, fmt.Errorf("%w: next queue at block %d", ErrTooSoon, b.queuedAt+b.minDelay)
	}
	if available == nil || available.IsZero() {
		return nil, ErrNothingToDistribute
	}

	total := new(uint256.Int)
	cuts := make(map[token.Address]*uint256.Int, len(b.shares))
	for _, s := range b.shares {
		cut := token.Bps(available, s.Bps)
		cuts[s.Account] = cut
		total.Add(total, cut)
	}
	if total.IsZero() {
		return nil, fmt.Errorf("%w: %s splits to nothing", ErrNothingToDistribute, available.Dec())
	}

	data := map[string]any{"total": total.Dec(), "block": block}
	for acct, cut := range cuts {
		b.pending[acct] = cut
		data[acct.String()] = cut.Dec()
	}
	b.queued = true
	b.queuedAt = block
	b.rec.Emit(EventQueued, data)
	return total.Clone(), nil
}

// Settle pays one beneficiary's pending claim. The claim is zeroed before
// the payment is attempted; if the payment then fails, the claim stays
// zeroed and the funds stay with the source account for reconciliation.
// The cycle closes when the last claim is removed, however it ended.
func (b *Book) Settle(beneficiary token.Address) error {
	amount, ok := b.pending[beneficiary]
	if !ok || amount.IsZero() {
		return fmt.Errorf("%w: %s", ErrNothingPending, beneficiary)
	}

	delete(b.pending, beneficiary)
	defer b.closeWhenDrained()

	if err := b.payer.Pay(b.source, beneficiary, amount); err != nil {
		b.rec.Emit(EventSettleFailed, map[string]any{
			"account": beneficiary.String(),
			"amount":  amount.Dec(),
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: %s: %v", ErrPayFailed, beneficiary, err)
	}

	b.rec.Emit(EventSettled, map[string]any{
		"account": beneficiary.String(),
		"amount":  amount.Dec(),
	})
	return nil
}

// Pending returns the beneficiary's unsettled claim.
func (b *Book) Pending(beneficiary token.Address) *uint256.Int {
	if v, ok := b.pending[beneficiary]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// Outstanding returns the sum of all unsettled claims.
func (b *Book) Outstanding() *uint256.Int {
	total := new(uint256.Int)
	for _, v := range b.pending {
		total.Add(total, v)
	}
	return total
}

// Queued reports whether a cycle is awaiting settlement.
func (b *Book) Queued() bool { return b.queued }

// Shares returns a copy of the configured share table.
func (b *Book) Shares() []Share {
	out := make([]Share, len(b.shares))
	copy(out, b.shares)
	return out
}

func (b *Book) closeWhenDrained() {
	if len(b.pending) == 0 {
		b.queued = false
	}
}
