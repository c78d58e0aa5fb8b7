package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
)

// ApiKeyRepository defines API key data operations
type ApiKeyRepository interface {
	Create(ctx context.Context, key *entities.ApiKey) error
	GetByPrefix(ctx context.Context, prefix string) (*entities.ApiKey, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*entities.ApiKey, error)
	// TouchLastUsed updates last_used_at as a side effect of authentication;
	// failures must not gate the request.
	TouchLastUsed(ctx context.Context, id uuid.UUID, when time.Time) error
	Revoke(ctx context.Context, merchantID, id uuid.UUID) error
}
