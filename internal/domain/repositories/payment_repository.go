package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
)

// PaymentRepository defines payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error)
	List(ctx context.Context, merchantID uuid.UUID, filter entities.ListPaymentsFilter) ([]*entities.Payment, int64, error)
	Update(ctx context.Context, payment *entities.Payment) error
	Aggregate(ctx context.Context, merchantID uuid.UUID, start, end time.Time, currency string) (*entities.AnalyticsSummary, error)
}

// EventRepository defines event data operations. Events are append-only.
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Event, error)
	List(ctx context.Context, merchantID uuid.UUID, after *uuid.UUID, limit int) ([]*entities.Event, error)
	ListSince(ctx context.Context, merchantID uuid.UUID, since time.Time, limit int) ([]*entities.Event, error)
}
