// Package domain holds the value types shared by the session, workflow and
// read-model layers. Construct values via the Parse helpers at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "firtrace/pkg/domain-errors"
)

// AddressLen is the byte length of a ledger account identifier.
const AddressLen = 20

// Address is a 20-byte ledger account identifier.
type Address [AddressLen]byte

// ZeroAddress is the unassigned address value.
var ZeroAddress Address

// ParseAddress constructs an Address from a 0x-prefixed hex string.
// Parsing is case-insensitive; the canonical form is lowercase.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(raw) != AddressLen*2 {
		return a, dErrors.Newf(dErrors.CodeInvalidInput, "address must be %d hex characters", AddressLen*2)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	copy(a[:], b)
	return a, nil
}

// DeriveAddress computes the account address for a public key: the last 20
// bytes of keccak256(pubkey). Matches how the ledger identifies signers.
func DeriveAddress(pubkey []byte) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(pubkey)
	sum := h.Sum(nil)

	var a Address
	copy(a[:], sum[len(sum)-AddressLen:])
	return a
}

// IsZero reports whether the address is unassigned.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String renders the canonical lowercase 0x-prefixed form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ChainID identifies the network the wallet is connected to.
type ChainID int64

// Identity is the (address, chain) pair supplied by the wallet. It is
// replaced wholesale on any account or chain change; signer and
// authorization both become invalid when either field moves.
type Identity struct {
	Address Address
	ChainID ChainID
}

// SameAddress reports whether two identities share an account address.
func (i Identity) SameAddress(other Identity) bool {
	return i.Address == other.Address
}
