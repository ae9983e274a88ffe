package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Run("round-trips the canonical form", func(t *testing.T) {
		addr, err := ParseAddress("0x00112233445566778899aabbccddeeff00112233")
		require.NoError(t, err)
		assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233", addr.String())
	})

	t.Run("is case-insensitive", func(t *testing.T) {
		lower, err := ParseAddress("0xaabbccddeeff00112233445566778899aabbccdd")
		require.NoError(t, err)
		upper, err := ParseAddress("0xAABBCCDDEEFF00112233445566778899AABBCCDD")
		require.NoError(t, err)
		assert.Equal(t, lower, upper)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x1234")
		assert.Error(t, err)
	})

	t.Run("rejects non-hex", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("zz", AddressLen))
		assert.Error(t, err)
	})
}

func TestDeriveAddress(t *testing.T) {
	a := DeriveAddress([]byte("public-key-a"))
	b := DeriveAddress([]byte("public-key-b"))

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b, "distinct keys must derive distinct addresses")
	assert.Equal(t, a, DeriveAddress([]byte("public-key-a")), "derivation is deterministic")
}

func TestIdentitySameAddress(t *testing.T) {
	addr := DeriveAddress([]byte("key"))
	a := Identity{Address: addr, ChainID: 1}
	b := Identity{Address: addr, ChainID: 5}
	c := Identity{Address: DeriveAddress([]byte("other")), ChainID: 1}

	assert.True(t, a.SameAddress(b))
	assert.False(t, a.SameAddress(c))
	assert.NotEqual(t, a, b, "chain change produces a different identity")
}
