package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firtrace/pkg/domain"
)

func TestInMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	addr := domain.DeriveAddress([]byte("store-test-key"))

	t.Run("records and reports issued tokens", func(t *testing.T) {
		store := NewInMemory()
		require.NoError(t, store.Record(ctx, "jti-1", addr, time.Hour))

		issued, err := store.IsIssued(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, issued)

		issued, err = store.IsIssued(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, issued)
	})

	t.Run("expired entries stop counting as issued", func(t *testing.T) {
		store := NewInMemory()
		require.NoError(t, store.Record(ctx, "jti-2", addr, -time.Minute))

		issued, err := store.IsIssued(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, issued)
	})

	t.Run("DeleteExpired sweeps only past-expiry entries", func(t *testing.T) {
		store := NewInMemory()
		require.NoError(t, store.Record(ctx, "live", addr, time.Hour))
		require.NoError(t, store.Record(ctx, "dead", addr, -time.Minute))

		deleted := store.DeleteExpired(ctx, time.Now())
		assert.Equal(t, 1, deleted)

		issued, err := store.IsIssued(ctx, "live")
		require.NoError(t, err)
		assert.True(t, issued)
	})
}
