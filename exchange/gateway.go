// Package exchange models the engine's view of the outside market: the
// gateway it trades through, the registry of known trading pairs, and the
// book of external-asset balances. The engine treats the gateway as
// untrusted; every amount it claims to deliver is re-measured by balance
// delta at the call site.
package exchange

import (
	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Direction orients a quote or swap between the token and the external
// asset.
type Direction int

const (
	// TokenToExternal sells tokens for the external asset.
	TokenToExternal Direction = iota
	// ExternalToToken buys tokens with the external asset.
	ExternalToToken
)

// String names the direction for journal records.
func (d Direction) String() string {
	if d == TokenToExternal {
		return "token_to_external"
	}
	return "external_to_token"
}

// Gateway is the trading venue the engine converts through. Swap return
// values are advisory: a fee-on-transfer venue may deliver less than it
// reports, so callers must measure recipient balance deltas instead.
// Deadlines are absolute unix timestamps. A failed operation must leave all
// balances untouched.
type Gateway interface {
	// Quote prices amountIn without executing.
	Quote(amountIn *uint256.Int, dir Direction) (*uint256.Int, error)

	// SwapTokensForExternal sells exactly amountIn tokens, delivering at
	// least minOut of the external asset to recipient.
	SwapTokensForExternal(amountIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error)

	// SwapExternalForTokens spends exactly externalIn of the external
	// asset, delivering at least minOut tokens to recipient.
	SwapExternalForTokens(externalIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error)

	// AddLiquidity deposits both sides into the venue's pool on behalf of
	// recipient.
	AddLiquidity(tokenAmount, externalAmount, minToken, minExternal *uint256.Int, recipient token.Address, deadline uint64) error

	// ResolvePair returns the venue's pair account for this token, if one
	// exists yet.
	ResolvePair() (token.Address, bool)
}
