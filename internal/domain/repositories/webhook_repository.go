package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
)

// WebhookRepository defines webhook endpoint configuration operations
type WebhookRepository interface {
	Create(ctx context.Context, webhook *entities.Webhook) error
	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Webhook, error)
	// GetByIDUnscoped resolves a webhook without merchant scoping. Used by
	// the delivery worker, which holds only the webhook ID.
	GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*entities.Webhook, error)
	ListActiveByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*entities.Webhook, error)
	Update(ctx context.Context, webhook *entities.Webhook) error
	Delete(ctx context.Context, merchantID, id uuid.UUID) error
}

// WebhookDeliveryRepository tracks scheduled event deliveries and their retry
// state.
type WebhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *entities.WebhookDelivery) error
	GetDue(ctx context.Context, now time.Time, limit int) ([]*entities.WebhookDelivery, error)
	Update(ctx context.Context, delivery *entities.WebhookDelivery) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*entities.WebhookDelivery, error)
}
