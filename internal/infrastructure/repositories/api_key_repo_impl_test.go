package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/pkg/utils"
)

func seedApiKey(t *testing.T, repo *ApiKeyRepository, merchantID uuid.UUID, prefix string) *entities.ApiKey {
	t.Helper()
	k := &entities.ApiKey{
		MerchantID:  merchantID,
		Name:        "default",
		Prefix:      prefix,
		KeyHash:     "$2a$10$hash",
		Permissions: []entities.ApiKeyPermission{entities.PermissionRead, entities.PermissionWrite},
		Active:      true,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), k))
	return k
}

func TestApiKeyRepository_CreateAndGetByPrefix(t *testing.T) {
	db := newTestDB(t)
	createMerchantTables(t, db)
	repo := NewApiKeyRepository(db)
	ctx := context.Background()

	k := seedApiKey(t, repo, utils.GenerateUUIDv7(), "sk_abcd1234")
	assert.NotEqual(t, uuid.Nil, k.ID)

	got, err := repo.GetByPrefix(ctx, "sk_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, k.ID, got.ID)
	assert.Equal(t, []entities.ApiKeyPermission{entities.PermissionRead, entities.PermissionWrite}, got.Permissions)

	_, err = repo.GetByPrefix(ctx, "sk_missing0")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestApiKeyRepository_DuplicatePrefix(t *testing.T) {
	db := newTestDB(t)
	createMerchantTables(t, db)
	repo := NewApiKeyRepository(db)

	seedApiKey(t, repo, utils.GenerateUUIDv7(), "sk_abcd1234")
	dup := &entities.ApiKey{
		MerchantID: utils.GenerateUUIDv7(),
		Name:       "other",
		Prefix:     "sk_abcd1234",
		KeyHash:    "$2a$10$other",
		Active:     true,
	}
	assert.ErrorIs(t, repo.Create(context.Background(), dup), domainerrors.ErrAlreadyExists)
}

func TestApiKeyRepository_TouchLastUsed(t *testing.T) {
	db := newTestDB(t)
	createMerchantTables(t, db)
	repo := NewApiKeyRepository(db)
	ctx := context.Background()

	k := seedApiKey(t, repo, utils.GenerateUUIDv7(), "sk_abcd1234")
	when := time.Now()
	require.NoError(t, repo.TouchLastUsed(ctx, k.ID, when))

	got, err := repo.GetByPrefix(ctx, "sk_abcd1234")
	require.NoError(t, err)
	assert.True(t, got.LastUsedAt.Valid)
}

func TestApiKeyRepository_Revoke(t *testing.T) {
	db := newTestDB(t)
	createMerchantTables(t, db)
	repo := NewApiKeyRepository(db)
	ctx := context.Background()

	merchantID := utils.GenerateUUIDv7()
	k := seedApiKey(t, repo, merchantID, "sk_abcd1234")

	// A foreign merchant cannot revoke it.
	assert.ErrorIs(t, repo.Revoke(ctx, utils.GenerateUUIDv7(), k.ID), domainerrors.ErrNotFound)

	require.NoError(t, repo.Revoke(ctx, merchantID, k.ID))
	got, err := repo.GetByPrefix(ctx, "sk_abcd1234")
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestApiKeyRepository_ListByMerchant(t *testing.T) {
	db := newTestDB(t)
	createMerchantTables(t, db)
	repo := NewApiKeyRepository(db)
	ctx := context.Background()

	merchantID := utils.GenerateUUIDv7()
	seedApiKey(t, repo, merchantID, "sk_aaaa0001")
	seedApiKey(t, repo, merchantID, "sk_aaaa0002")
	seedApiKey(t, repo, utils.GenerateUUIDv7(), "sk_bbbb0001")

	got, err := repo.ListByMerchant(ctx, merchantID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
