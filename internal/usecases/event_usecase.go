package usecases

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/logger"
	"defiant.backend/pkg/redis"
)

// EventUsecase serves the merchant event log and live event streaming.
type EventUsecase struct {
	eventRepo repositories.EventRepository
}

// NewEventUsecase creates a new event usecase
func NewEventUsecase(eventRepo repositories.EventRepository) *EventUsecase {
	return &EventUsecase{eventRepo: eventRepo}
}

// GetEvent returns one event scoped to the merchant
func (u *EventUsecase) GetEvent(ctx context.Context, merchantID, id uuid.UUID) (*entities.Event, error) {
	return u.eventRepo.GetByID(ctx, merchantID, id)
}

// ListEvents returns events in append order, optionally after a cursor.
func (u *EventUsecase) ListEvents(ctx context.Context, merchantID uuid.UUID, after *uuid.UUID, limit int) ([]*entities.Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return u.eventRepo.List(ctx, merchantID, after, limit)
}

// Stream delivers events for a merchant onto out until ctx is canceled.
// Events committed since the given time are replayed first from the log, then
// live events arrive via pub/sub. The channel is closed on return.
func (u *EventUsecase) Stream(ctx context.Context, merchantID uuid.UUID, since time.Time, out chan<- *entities.Event) error {
	defer close(out)

	// Subscribe before replaying so nothing falls between backlog and live.
	sub := redis.Subscribe(ctx, StreamChannel(merchantID))
	defer sub.Close()

	seen := make(map[uuid.UUID]struct{})

	if !since.IsZero() {
		backlog, err := u.eventRepo.ListSince(ctx, merchantID, since, MaxListLimit)
		if err != nil {
			return err
		}
		for _, event := range backlog {
			seen[event.ID] = struct{}{}
			select {
			case out <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event entities.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn(ctx, "dropping malformed stream message", zap.Error(err))
				continue
			}
			if _, dup := seen[event.ID]; dup {
				continue
			}
			select {
			case out <- &event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
