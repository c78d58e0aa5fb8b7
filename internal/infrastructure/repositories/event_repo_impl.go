package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/pkg/utils"
)

// EventRepository implements append-only event storage
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create appends an event row. IDs are UUIDv7 so the cursor order matches
// append order even within one timestamp.
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.ID == uuid.Nil {
		event.ID = utils.GenerateUUIDv7()
	}
	m := &models.Event{
		ID:         event.ID,
		MerchantID: event.MerchantID,
		Type:       event.Type,
		Data:       metadataString(event.Data),
		CreatedAt:  event.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	event.ID = m.ID
	return nil
}

// GetByID gets an event scoped to a merchant
func (r *EventRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Event, error) {
	var m models.Event
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEventEntity(&m), nil
}

// List returns events for a merchant in commit order, oldest first, resuming
// after the given cursor event.
func (r *EventRepository) List(ctx context.Context, merchantID uuid.UUID, after *uuid.UUID, limit int) ([]*entities.Event, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)
	query := db.Where("merchant_id = ?", merchantID)

	if after != nil {
		var cursor models.Event
		if err := db.Select("created_at", "id").Where("id = ?", *after).First(&cursor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domainerrors.ErrNotFound
			}
			return nil, err
		}
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var ms []models.Event
	if err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]*entities.Event, 0, len(ms))
	for i := range ms {
		events = append(events, toEventEntity(&ms[i]))
	}
	return events, nil
}

// ListSince returns events created at or after the given instant.
func (r *EventRepository) ListSince(ctx context.Context, merchantID uuid.UUID, since time.Time, limit int) ([]*entities.Event, error) {
	var ms []models.Event
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("merchant_id = ? AND created_at >= ?", merchantID, since).
		Order("created_at ASC, id ASC").Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	events := make([]*entities.Event, 0, len(ms))
	for i := range ms {
		events = append(events, toEventEntity(&ms[i]))
	}
	return events, nil
}

func toEventEntity(m *models.Event) *entities.Event {
	return &entities.Event{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Type:       m.Type,
		Data:       metadataRaw(m.Data),
		CreatedAt:  m.CreatedAt,
	}
}
