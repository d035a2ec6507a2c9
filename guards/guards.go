// Package guards admits or rejects transfers before any balance moves:
// a launch gate, a bot window after launch, a per-transaction cap, and a
// cap-plus-cooldown regime for direct pair-to-pair flows. Guards never
// mutate balances; a rejection leaves no trace beyond the error.
package guards

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/chain"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Guards holds the admission state. Not safe for concurrent use.
type Guards struct {
	maxTx         *uint256.Int
	maxPairToPair *uint256.Int
	cooldown      uint64
	windowBlocks  uint64
	strictOrigin  bool

	tradingEnabled bool
	launchBlock    uint64
	lastPair       map[token.Address]uint64
	allow          map[token.Address]bool
}

// New builds the guard set. maxTx is fixed for the life of the instance;
// a nil or zero cap disables the corresponding check. cooldown is in
// seconds, windowBlocks in blocks after launch. strictOrigin additionally
// bans proxied calls during the launch window.
func New(maxTx, maxPairToPair *uint256.Int, cooldown, windowBlocks uint64, strictOrigin bool) *Guards {
	g := &Guards{
		cooldown:     cooldown,
		windowBlocks: windowBlocks,
		strictOrigin: strictOrigin,
		lastPair:     make(map[token.Address]uint64),
		allow:        make(map[token.Address]bool),
	}
	if maxTx != nil {
		g.maxTx = maxTx.Clone()
	}
	if maxPairToPair != nil {
		g.maxPairToPair = maxPairToPair.Clone()
	}
	return g
}

// CheckTransfer admits or rejects a transfer. fromPair and toPair say
// whether the endpoints are registered pairs; exempt says whether either
// endpoint is tax-exempt; privileged says whether either endpoint is the
// admin or the engine account. The check mutates nothing.
func (g *Guards) CheckTransfer(env chain.Env, from, to token.Address, amount *uint256.Int, fromPair, toPair, exempt, privileged bool) error {
	if !g.tradingEnabled {
		if privileged || fromPair || toPair {
			return nil
		}
		return ErrTradingDisabled
	}

	if g.inWindow(env.Block()) && !privileged {
		caller := env.Caller()
		if env.IsContract(caller) && !g.allow[caller] {
			return fmt.Errorf("%w: contract caller %s", ErrLaunchRestricted, caller)
		}
		if g.strictOrigin && caller != env.Origin() {
			return fmt.Errorf("%w: proxied call from %s", ErrLaunchRestricted, env.Origin())
		}
	}

	if fromPair && toPair {
		if g.maxPairToPair != nil && !g.maxPairToPair.IsZero() && amount.Gt(g.maxPairToPair) {
			return fmt.Errorf("%w: %s > %s", ErrExceedsPairLimit, amount.Dec(), g.maxPairToPair.Dec())
		}
		if last, ok := g.lastPair[from]; ok && g.cooldown > 0 && env.Now() < last+g.cooldown {
			return fmt.Errorf("%w: %ds remaining", ErrCooldownActive, last+g.cooldown-env.Now())
		}
		return nil
	}

	if !exempt && !fromPair && !toPair {
		if g.maxTx != nil && !g.maxTx.IsZero() && amount.Gt(g.maxTx) {
			return fmt.Errorf("%w: %s > %s", ErrExceedsMaxTx, amount.Dec(), g.maxTx.Dec())
		}
	}
	return nil
}

// MarkPairTransfer records the completion time of a pair-to-pair transfer
// from the given source. Call only after the transfer committed; a rejected
// or failed transfer must not start a cooldown.
func (g *Guards) MarkPairTransfer(from token.Address, now uint64) {
	g.lastPair[from] = now
}

// EnableTrading opens trading at the given block and starts the launch
// window. Enabling twice is an error; trading can never be disabled again.
func (g *Guards) EnableTrading(block uint64) error {
	if g.tradingEnabled {
		return ErrTradingEnabled
	}
	g.tradingEnabled = true
	g.launchBlock = block
	return nil
}

// SetAllowed marks a contract account as permitted during the launch
// window, or removes the mark.
func (g *Guards) SetAllowed(addr token.Address, allowed bool) {
	if allowed {
		g.allow[addr] = true
	} else {
		delete(g.allow, addr)
	}
}

// Allowed reports whether a contract account is launch-window approved.
func (g *Guards) Allowed(addr token.Address) bool { return g.allow[addr] }

// SetMaxPairToPair replaces the pair-to-pair cap. Nil or zero disables it.
func (g *Guards) SetMaxPairToPair(amount *uint256.Int) {
	if amount == nil {
		g.maxPairToPair = nil
		return
	}
	g.maxPairToPair = amount.Clone()
}

// SetCooldown replaces the pair-to-pair cooldown, in seconds.
func (g *Guards) SetCooldown(seconds uint64) { g.cooldown = seconds }

// TradingEnabled reports whether trading has opened.
func (g *Guards) TradingEnabled() bool { return g.tradingEnabled }

// LaunchBlock returns the block at which trading opened, or 0.
func (g *Guards) LaunchBlock() uint64 { return g.launchBlock }

// InLaunchWindow reports whether the bot window is active at the current
// environment block.
func (g *Guards) InLaunchWindow(env chain.Env) bool { return g.inWindow(env.Block()) }

// MaxTx returns the fixed per-transaction cap, or nil when disabled.
func (g *Guards) MaxTx() *uint256.Int {
	if g.maxTx == nil {
		return nil
	}
	return g.maxTx.Clone()
}

// MaxPairToPair returns the pair-to-pair cap, or nil when disabled.
func (g *Guards) MaxPairToPair() *uint256.Int {
	if g.maxPairToPair == nil {
		return nil
	}
	return g.maxPairToPair.Clone()
}

// Cooldown returns the pair-to-pair cooldown in seconds.
func (g *Guards) Cooldown() uint64 { return g.cooldown }

func (g *Guards) inWindow(block uint64) bool {
	return g.windowBlocks > 0 && block <= g.launchBlock+g.windowBlocks
}
