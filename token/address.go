// Package token defines the primitive types shared across the Vaulton engine:
// account addresses and fixed-point amount arithmetic. Higher-level packages
// (ledger, policy, engine) build on these without owning any policy of their own.
package token

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies an account. The zero value is the null account, which is
// never a valid transfer endpoint.
type Address [AddressLength]byte

// ZeroAddress is the null account.
var ZeroAddress = Address{}

// BurnAddress is the designated burn sink. Tokens sent here are counted as
// burned by the policy layer while remaining part of the total supply, so the
// conservation invariant over all balances still holds.
var BurnAddress = HexToAddress("0x000000000000000000000000000000000000dEaD")

// ParseAddress decodes a 0x-prefixed, 40-digit hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != AddressLength*2 {
		return a, fmt.Errorf("token: address %q must be %d hex digits", s, AddressLength*2)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("token: address %q is not hex: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// HexToAddress decodes a hex string into an Address, ignoring case and an
// optional 0x prefix. Malformed input yields the zero address; use
// ParseAddress where errors matter.
func HexToAddress(s string) Address {
	a, _ := ParseAddress(s)
	return a
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is the null account.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the 0x-prefixed lower-case hex form of the address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}
