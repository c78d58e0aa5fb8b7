package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/crypto"
)

// API keys look like sk_<8 hex>_<32 hex>: the first segment is the stored
// lookup prefix, the second is the secret whose bcrypt hash is stored.
const apiKeyPrefixBytes = 4
const apiKeySecretBytes = 16

// ApiKeyUsecase manages merchant API credentials
type ApiKeyUsecase struct {
	apiKeyRepo repositories.ApiKeyRepository
}

// NewApiKeyUsecase creates a new API key usecase
func NewApiKeyUsecase(apiKeyRepo repositories.ApiKeyRepository) *ApiKeyUsecase {
	return &ApiKeyUsecase{apiKeyRepo: apiKeyRepo}
}

// CreateApiKey mints a key for a merchant. The full key is returned exactly
// once; only its bcrypt hash is stored.
func (u *ApiKeyUsecase) CreateApiKey(ctx context.Context, merchantID uuid.UUID, name string, permissions []entities.ApiKeyPermission, expiresAt *time.Time) (*entities.ApiKey, string, error) {
	if len(permissions) == 0 {
		permissions = []entities.ApiKeyPermission{entities.PermissionRead}
	}
	for _, p := range permissions {
		switch p {
		case entities.PermissionRead, entities.PermissionWrite, entities.PermissionAdmin:
		default:
			return nil, "", domainerrors.BadRequest("unknown permission: " + string(p))
		}
	}

	prefix, err := crypto.GenerateRandomToken(apiKeyPrefixBytes)
	if err != nil {
		return nil, "", domainerrors.InternalError(err)
	}
	secret, err := crypto.GenerateRandomToken(apiKeySecretBytes)
	if err != nil {
		return nil, "", domainerrors.InternalError(err)
	}

	hash, err := crypto.HashSecret(secret)
	if err != nil {
		return nil, "", domainerrors.InternalError(err)
	}

	key := &entities.ApiKey{
		MerchantID:  merchantID,
		Name:        name,
		Prefix:      "sk_" + prefix,
		KeyHash:     hash,
		Permissions: permissions,
		Active:      true,
		ExpiresAt:   null.TimeFromPtr(expiresAt),
		CreatedAt:   time.Now(),
	}
	if err := u.apiKeyRepo.Create(ctx, key); err != nil {
		return nil, "", err
	}

	return key, key.Prefix + "_" + secret, nil
}

// ValidateKey authenticates a presented API key and returns its record.
func (u *ApiKeyUsecase) ValidateKey(ctx context.Context, presented string) (*entities.ApiKey, error) {
	idx := strings.LastIndex(presented, "_")
	if idx <= 0 || !strings.HasPrefix(presented, "sk_") {
		return nil, domainerrors.ErrUnauthorized
	}
	prefix, secret := presented[:idx], presented[idx+1:]

	key, err := u.apiKeyRepo.GetByPrefix(ctx, prefix)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.ErrUnauthorized
		}
		return nil, err
	}

	if !key.Active || key.Expired(time.Now()) {
		return nil, domainerrors.ErrUnauthorized
	}
	if !crypto.CheckSecret(secret, key.KeyHash) {
		return nil, domainerrors.ErrUnauthorized
	}

	// Best effort, never gates the request.
	_ = u.apiKeyRepo.TouchLastUsed(ctx, key.ID, time.Now())

	return key, nil
}

// ListKeys returns the merchant's keys, hashes omitted by serialization.
func (u *ApiKeyUsecase) ListKeys(ctx context.Context, merchantID uuid.UUID) ([]*entities.ApiKey, error) {
	return u.apiKeyRepo.ListByMerchant(ctx, merchantID)
}

// RevokeKey permanently deactivates a key
func (u *ApiKeyUsecase) RevokeKey(ctx context.Context, merchantID, id uuid.UUID) error {
	return u.apiKeyRepo.Revoke(ctx, merchantID, id)
}
