package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/pkg/utils"
)

// ApiKeyRepository implements API key data operations
type ApiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository creates a new API key repository
func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

// Create creates a new API key
func (r *ApiKeyRepository) Create(ctx context.Context, key *entities.ApiKey) error {
	if key.ID == uuid.Nil {
		key.ID = utils.GenerateUUIDv7()
	}
	m := &models.ApiKey{
		ID:          key.ID,
		MerchantID:  key.MerchantID,
		Name:        key.Name,
		Prefix:      key.Prefix,
		KeyHash:     key.KeyHash,
		Permissions: encodePermissions(key.Permissions),
		Active:      key.Active,
		ExpiresAt:   key.ExpiresAt.Ptr(),
		CreatedAt:   key.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	key.ID = m.ID
	return nil
}

// GetByPrefix looks up a key by its public prefix
func (r *ApiKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*entities.ApiKey, error) {
	var m models.ApiKey
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("prefix = ?", prefix).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toApiKeyEntity(&m), nil
}

// ListByMerchant lists keys owned by a merchant
func (r *ApiKeyRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*entities.ApiKey, error) {
	var ms []models.ApiKey
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("merchant_id = ?", merchantID).Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	keys := make([]*entities.ApiKey, 0, len(ms))
	for i := range ms {
		keys = append(keys, toApiKeyEntity(&ms[i]))
	}
	return keys, nil
}

// TouchLastUsed updates last_used_at without gating on the result
func (r *ApiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, when time.Time) error {
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", when).Error
}

// Revoke deactivates a key
func (r *ApiKeyRepository) Revoke(ctx context.Context, merchantID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func encodePermissions(perms []entities.ApiKeyPermission) string {
	parts := make([]string, 0, len(perms))
	for _, p := range perms {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}

func decodePermissions(s string) []entities.ApiKeyPermission {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	perms := make([]entities.ApiKeyPermission, 0, len(parts))
	for _, p := range parts {
		perms = append(perms, entities.ApiKeyPermission(p))
	}
	return perms
}

func toApiKeyEntity(m *models.ApiKey) *entities.ApiKey {
	return &entities.ApiKey{
		ID:          m.ID,
		MerchantID:  m.MerchantID,
		Name:        m.Name,
		Prefix:      m.Prefix,
		KeyHash:     m.KeyHash,
		Permissions: decodePermissions(m.Permissions),
		Active:      m.Active,
		ExpiresAt:   null.TimeFromPtr(m.ExpiresAt),
		LastUsedAt:  null.TimeFromPtr(m.LastUsedAt),
		CreatedAt:   m.CreatedAt,
	}
}
