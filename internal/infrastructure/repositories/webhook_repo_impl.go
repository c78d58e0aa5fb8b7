package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/pkg/utils"
)

// WebhookRepository implements webhook endpoint storage
type WebhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// Create registers a webhook endpoint
func (r *WebhookRepository) Create(ctx context.Context, webhook *entities.Webhook) error {
	if webhook.ID == uuid.Nil {
		webhook.ID = utils.GenerateUUIDv7()
	}
	m := toWebhookModel(webhook)
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	webhook.ID = m.ID
	return nil
}

// GetByID gets a webhook scoped to a merchant
func (r *WebhookRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Webhook, error) {
	var m models.Webhook
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toWebhookEntity(&m), nil
}

// GetByIDUnscoped resolves a webhook by ID alone, for the delivery worker.
func (r *WebhookRepository) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*entities.Webhook, error) {
	var m models.Webhook
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toWebhookEntity(&m), nil
}

// ListActiveByMerchant lists active endpoints for delivery fan-out
func (r *WebhookRepository) ListActiveByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*entities.Webhook, error) {
	var ms []models.Webhook
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("merchant_id = ? AND active = ?", merchantID, true).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	webhooks := make([]*entities.Webhook, 0, len(ms))
	for i := range ms {
		webhooks = append(webhooks, toWebhookEntity(&ms[i]))
	}
	return webhooks, nil
}

// Update persists webhook configuration changes
func (r *WebhookRepository) Update(ctx context.Context, webhook *entities.Webhook) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Webhook{}).
		Where("id = ? AND merchant_id = ?", webhook.ID, webhook.MerchantID).
		Updates(map[string]interface{}{
			"url":        webhook.URL,
			"events":     encodeEvents(webhook.Events),
			"active":     webhook.Active,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Delete soft-deletes a webhook endpoint
func (r *WebhookRepository) Delete(ctx context.Context, merchantID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).Delete(&models.Webhook{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toWebhookModel(w *entities.Webhook) *models.Webhook {
	return &models.Webhook{
		ID:         w.ID,
		MerchantID: w.MerchantID,
		URL:        w.URL,
		Secret:     w.Secret,
		Events:     encodeEvents(w.Events),
		Active:     w.Active,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

func toWebhookEntity(m *models.Webhook) *entities.Webhook {
	return &entities.Webhook{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		URL:        m.URL,
		Secret:     m.Secret,
		Events:     decodeEvents(m.Events),
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func encodeEvents(events []string) string {
	if len(events) == 0 {
		return "[]"
	}
	b, err := json.Marshal(events)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeEvents(s string) []string {
	if s == "" {
		return nil
	}
	var events []string
	if err := json.Unmarshal([]byte(s), &events); err != nil {
		return nil
	}
	return events
}

// WebhookDeliveryRepository implements delivery attempt tracking
type WebhookDeliveryRepository struct {
	db *gorm.DB
}

// NewWebhookDeliveryRepository creates a new delivery repository
func NewWebhookDeliveryRepository(db *gorm.DB) *WebhookDeliveryRepository {
	return &WebhookDeliveryRepository{db: db}
}

// Create schedules a delivery
func (r *WebhookDeliveryRepository) Create(ctx context.Context, delivery *entities.WebhookDelivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = utils.GenerateUUIDv7()
	}
	m := &models.WebhookDelivery{
		ID:            delivery.ID,
		WebhookID:     delivery.WebhookID,
		EventID:       delivery.EventID,
		Status:        string(delivery.Status),
		Attempts:      delivery.Attempts,
		NextAttemptAt: delivery.NextAttemptAt,
		LastError:     delivery.LastError.Ptr(),
		DeliveredAt:   delivery.DeliveredAt.Ptr(),
		CreatedAt:     delivery.CreatedAt,
		UpdatedAt:     delivery.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	delivery.ID = m.ID
	return nil
}

// GetDue returns pending deliveries whose next attempt is due, oldest first.
func (r *WebhookDeliveryRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]*entities.WebhookDelivery, error) {
	var ms []models.WebhookDelivery
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", string(entities.DeliveryStatusPending), now).
		Order("next_attempt_at ASC").Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	deliveries := make([]*entities.WebhookDelivery, 0, len(ms))
	for i := range ms {
		deliveries = append(deliveries, toDeliveryEntity(&ms[i]))
	}
	return deliveries, nil
}

// Update persists delivery attempt state
func (r *WebhookDeliveryRepository) Update(ctx context.Context, delivery *entities.WebhookDelivery) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("id = ?", delivery.ID).
		Updates(map[string]interface{}{
			"status":          string(delivery.Status),
			"attempts":        delivery.Attempts,
			"next_attempt_at": delivery.NextAttemptAt,
			"last_error":      delivery.LastError.Ptr(),
			"delivered_at":    delivery.DeliveredAt.Ptr(),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListByEvent lists deliveries scheduled for one event
func (r *WebhookDeliveryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*entities.WebhookDelivery, error) {
	var ms []models.WebhookDelivery
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("event_id = ?", eventID).Find(&ms).Error; err != nil {
		return nil, err
	}
	deliveries := make([]*entities.WebhookDelivery, 0, len(ms))
	for i := range ms {
		deliveries = append(deliveries, toDeliveryEntity(&ms[i]))
	}
	return deliveries, nil
}

func toDeliveryEntity(m *models.WebhookDelivery) *entities.WebhookDelivery {
	return &entities.WebhookDelivery{
		ID:            m.ID,
		WebhookID:     m.WebhookID,
		EventID:       m.EventID,
		Status:        entities.WebhookDeliveryStatus(m.Status),
		Attempts:      m.Attempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     null.StringFromPtr(m.LastError),
		DeliveredAt:   null.TimeFromPtr(m.DeliveredAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
