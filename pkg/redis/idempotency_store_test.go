package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdemStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	return NewIdempotencyStore(24 * time.Hour)
}

func TestIdempotencyStore_ClaimWinsOnce(t *testing.T) {
	store := setupIdemStore(t)
	ctx := context.Background()

	won, err := store.Claim(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.Claim(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, won)

	// Unrelated keys claim independently.
	won, err = store.Claim(ctx, "key-2")
	require.NoError(t, err)
	assert.True(t, won)
}

func TestIdempotencyStore_GetStates(t *testing.T) {
	store := setupIdemStore(t)
	ctx := context.Background()

	rec, inFlight, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, inFlight)

	_, err = store.Claim(ctx, "key-1")
	require.NoError(t, err)

	rec, inFlight, err = store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.True(t, inFlight)
}

func TestIdempotencyStore_CompleteThenGet(t *testing.T) {
	store := setupIdemStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "key-1")
	require.NoError(t, err)

	stored := &IdempotencyRecord{
		Status:      201,
		Body:        json.RawMessage(`{"id":"pay_123"}`),
		RequestHash: "abc123",
	}
	require.NoError(t, store.Complete(ctx, "key-1", stored))

	rec, inFlight, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, inFlight)
	require.NotNil(t, rec)
	assert.Equal(t, 201, rec.Status)
	assert.JSONEq(t, `{"id":"pay_123"}`, string(rec.Body))
	assert.Equal(t, "abc123", rec.RequestHash)
}

func TestIdempotencyStore_ReleaseAllowsRetry(t *testing.T) {
	store := setupIdemStore(t)
	ctx := context.Background()

	won, err := store.Claim(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, store.Release(ctx, "key-1"))

	won, err = store.Claim(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, won)
}
