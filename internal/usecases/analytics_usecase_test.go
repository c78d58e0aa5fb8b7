package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/usecases"
)

func TestAnalyticsSummary(t *testing.T) {
	repo := new(MockPaymentRepository)
	uc := usecases.NewAnalyticsUsecase(repo)
	merchantID := uuid.New()

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now()
	want := &entities.AnalyticsSummary{TotalAmount: 3500, TotalCount: 3}
	repo.On("Aggregate", mock.Anything, merchantID, start, end, "usd").Return(want, nil)

	got, err := uc.Summary(context.Background(), merchantID, start, end, "USD")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnalyticsSummary_DefaultsAndValidation(t *testing.T) {
	repo := new(MockPaymentRepository)
	uc := usecases.NewAnalyticsUsecase(repo)
	merchantID := uuid.New()
	ctx := context.Background()

	// Zero range defaults to the trailing 30 days.
	repo.On("Aggregate", mock.Anything, merchantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), "").
		Run(func(args mock.Arguments) {
			start := args.Get(2).(time.Time)
			end := args.Get(3).(time.Time)
			assert.WithinDuration(t, time.Now(), end, time.Minute)
			assert.WithinDuration(t, end.Add(-30*24*time.Hour), start, time.Minute)
		}).
		Return(&entities.AnalyticsSummary{}, nil)
	_, err := uc.Summary(ctx, merchantID, time.Time{}, time.Time{}, "")
	require.NoError(t, err)

	// Inverted range.
	now := time.Now()
	_, err = uc.Summary(ctx, merchantID, now, now.Add(-time.Hour), "")
	assert.Equal(t, 400, domainerrors.StatusFor(err))

	// Over a year.
	_, err = uc.Summary(ctx, merchantID, now.Add(-400*24*time.Hour), now, "")
	assert.Equal(t, 400, domainerrors.StatusFor(err))

	// Bad currency.
	_, err = uc.Summary(ctx, merchantID, now.Add(-time.Hour), now, "DOLLARS")
	assert.Equal(t, 400, domainerrors.StatusFor(err))
}
