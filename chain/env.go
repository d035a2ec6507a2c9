// Package chain abstracts the execution environment the token engine runs in:
// block height, wall time, and caller identity. Production embeddings supply
// their host's view of these; tests and the CLI drive a SimEnv directly.
package chain

import "github.com/VaultonCrypto/vaulton-token-sub001/token"

// Env is the engine's read-only window onto its host environment.
type Env interface {
	// Block returns the current block height.
	Block() uint64
	// Now returns the current time as unix seconds.
	Now() uint64
	// Caller returns the immediate caller of the current operation.
	Caller() token.Address
	// Origin returns the externally-owned account that originated the
	// current call chain. Equal to Caller unless the call was proxied.
	Origin() token.Address
	// IsContract reports whether the account carries code.
	IsContract(addr token.Address) bool
}

// SimEnv is a scriptable Env for tests and simulations. It is not safe for
// concurrent use; drive it from a single goroutine like the engine itself.
type SimEnv struct {
	block     uint64
	now       uint64
	caller    token.Address
	origin    token.Address
	contracts map[token.Address]bool
}

// NewSimEnv returns a simulated environment starting at block 1.
func NewSimEnv() *SimEnv {
	return &SimEnv{
		block:     1,
		now:       1_700_000_000,
		contracts: make(map[token.Address]bool),
	}
}

// Block returns the current simulated height.
func (e *SimEnv) Block() uint64 { return e.block }

// Now returns the current simulated time.
func (e *SimEnv) Now() uint64 { return e.now }

// Caller returns the configured caller.
func (e *SimEnv) Caller() token.Address { return e.caller }

// Origin returns the configured originator, defaulting to the caller when
// none was set.
func (e *SimEnv) Origin() token.Address {
	if e.origin.IsZero() {
		return e.caller
	}
	return e.origin
}

// IsContract reports whether addr was marked as a code account.
func (e *SimEnv) IsContract(addr token.Address) bool { return e.contracts[addr] }

// SetCaller sets the immediate caller for subsequent operations and clears
// any separate origin.
func (e *SimEnv) SetCaller(addr token.Address) {
	e.caller = addr
	e.origin = token.ZeroAddress
}

// SetOrigin sets the call-chain originator independently of the caller,
// emulating a proxied call.
func (e *SimEnv) SetOrigin(addr token.Address) { e.origin = addr }

// MarkContract flags addr as a code account.
func (e *SimEnv) MarkContract(addr token.Address) { e.contracts[addr] = true }

// AdvanceBlocks moves the chain forward by n blocks, advancing time by one
// second per block.
func (e *SimEnv) AdvanceBlocks(n uint64) {
	e.block += n
	e.now += n
}

// AdvanceTime moves wall time forward by the given number of seconds without
// minting new blocks.
func (e *SimEnv) AdvanceTime(seconds uint64) { e.now += seconds }
