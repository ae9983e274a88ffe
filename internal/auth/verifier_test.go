package auth_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firtrace/internal/auth"
)

func TestEnvelopeVerifierRecover(t *testing.T) {
	v := auth.EnvelopeVerifier{}
	w := newSigner(t)
	message := []byte(auth.Challenge)

	t.Run("recovers the signer's address", func(t *testing.T) {
		addr, err := v.Recover(message, w.envelope(message))
		require.NoError(t, err)
		assert.Equal(t, w.addr, addr)
	})

	t.Run("rejects a truncated envelope", func(t *testing.T) {
		_, err := v.Recover(message, w.envelope(message)[:ed25519.PublicKeySize])
		assert.Error(t, err)
	})

	t.Run("rejects a signature over a different message", func(t *testing.T) {
		_, err := v.Recover(message, w.envelope([]byte("tampered")))
		assert.Error(t, err)
	})

	t.Run("a swapped public key fails verification", func(t *testing.T) {
		// Splicing another key into the envelope breaks the signature check,
		// so an attacker cannot steer recovery toward a victim address.
		other := newSigner(t)
		env := w.envelope(message)
		otherEnv := other.envelope(message)
		copy(env[:ed25519.PublicKeySize], otherEnv[:ed25519.PublicKeySize])

		_, err := v.Recover(message, env)
		assert.Error(t, err)
	})
}
