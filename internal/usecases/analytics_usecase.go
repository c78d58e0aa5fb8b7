package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
)

// MaxAnalyticsRange bounds the aggregation window.
const MaxAnalyticsRange = 366 * 24 * time.Hour

// AnalyticsUsecase computes read-only rollups over committed payments.
type AnalyticsUsecase struct {
	paymentRepo repositories.PaymentRepository
}

// NewAnalyticsUsecase creates a new analytics usecase
func NewAnalyticsUsecase(paymentRepo repositories.PaymentRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{paymentRepo: paymentRepo}
}

// Summary aggregates payments in [start, end). A zero end defaults to now; a
// zero start defaults to 30 days before end.
func (u *AnalyticsUsecase) Summary(ctx context.Context, merchantID uuid.UUID, start, end time.Time, currency string) (*entities.AnalyticsSummary, error) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-30 * 24 * time.Hour)
	}
	if !start.Before(end) {
		return nil, domainerrors.BadRequest("start must be before end")
	}
	if end.Sub(start) > MaxAnalyticsRange {
		return nil, domainerrors.BadRequest("range exceeds one year")
	}
	if currency != "" {
		if len(currency) != 3 {
			return nil, domainerrors.BadRequest("currency must be a 3-letter ISO code")
		}
		currency = strings.ToLower(currency)
	}

	return u.paymentRepo.Aggregate(ctx, merchantID, start, end, currency)
}
