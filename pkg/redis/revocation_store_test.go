package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	mr := useMiniredis(t)
	store := NewRevocationStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_EdgeCases(t *testing.T) {
	useMiniredis(t)
	store := NewRevocationStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Revoke(ctx, "", time.Minute), ErrEmptyTokenID)
	assert.NoError(t, store.Revoke(ctx, "expired", 0))

	revoked, err := store.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
