package auth

import (
	"crypto/ed25519"
	"fmt"

	"firtrace/pkg/domain"
	"firtrace/pkg/platform/sentinel"
)

// Verifier recovers the signing address from a signature over a message.
// The wallet's cryptographic scheme is a collaborator detail; the service
// only needs "who signed this".
type Verifier interface {
	Recover(message, signature []byte) (domain.Address, error)
}

// EnvelopeVerifier verifies the pubkey||sig envelope produced by the dev
// wallet: the first 32 bytes are an ed25519 public key, the rest the
// signature. The signer address is derived from the embedded public key, so a
// forged envelope recovers to a different address and fails the address match
// upstream.
type EnvelopeVerifier struct{}

const (
	envelopePubKeyLen = ed25519.PublicKeySize
	envelopeSigLen    = ed25519.SignatureSize
)

func (EnvelopeVerifier) Recover(message, signature []byte) (domain.Address, error) {
	if len(signature) != envelopePubKeyLen+envelopeSigLen {
		return domain.ZeroAddress, fmt.Errorf("signature envelope is %d bytes, want %d: %w",
			len(signature), envelopePubKeyLen+envelopeSigLen, sentinel.ErrInvalidState)
	}
	pub := ed25519.PublicKey(signature[:envelopePubKeyLen])
	sig := signature[envelopePubKeyLen:]
	if !ed25519.Verify(pub, message, sig) {
		return domain.ZeroAddress, fmt.Errorf("signature does not verify: %w", sentinel.ErrInvalidState)
	}
	return domain.DeriveAddress(pub), nil
}
