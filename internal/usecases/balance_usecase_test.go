package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/usecases"
)

func TestGetBalance(t *testing.T) {
	repo := new(MockBalanceTransactionRepository)
	uc := usecases.NewBalanceUsecase(repo)
	merchantID := uuid.New()

	repo.On("SumNet", mock.Anything, merchantID, "usd", mock.AnythingOfType("time.Time")).
		Return(int64(770), int64(485), nil)

	balance, err := uc.GetBalance(context.Background(), merchantID, "USD")
	require.NoError(t, err)
	assert.Equal(t, "usd", balance.Currency)
	assert.Equal(t, int64(770), balance.Available)
	assert.Equal(t, int64(485), balance.Pending)
	assert.False(t, balance.AsOf.IsZero())
}

func TestGetBalance_BadCurrency(t *testing.T) {
	repo := new(MockBalanceTransactionRepository)
	uc := usecases.NewBalanceUsecase(repo)

	_, err := uc.GetBalance(context.Background(), uuid.New(), "DOLLARS")
	assert.Equal(t, 400, domainerrors.StatusFor(err))
}

func TestListTransactions_Paging(t *testing.T) {
	repo := new(MockBalanceTransactionRepository)
	uc := usecases.NewBalanceUsecase(repo)
	merchantID := uuid.New()

	rows := []*entities.BalanceTransaction{{ID: uuid.New()}, {ID: uuid.New()}}
	repo.On("ListByMerchant", mock.Anything, merchantID, "usd", 2, 2).
		Return(rows, int64(5), nil)

	page, err := uc.ListTransactions(context.Background(), merchantID, "USD", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.Meta.TotalCount)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.Equal(t, 2, page.Meta.Page)
}

func TestListTransactions_LimitClamped(t *testing.T) {
	repo := new(MockBalanceTransactionRepository)
	uc := usecases.NewBalanceUsecase(repo)
	merchantID := uuid.New()

	repo.On("ListByMerchant", mock.Anything, merchantID, "", usecases.MaxListLimit, 0).
		Return([]*entities.BalanceTransaction{}, int64(0), nil)

	_, err := uc.ListTransactions(context.Background(), merchantID, "", 1, 100000)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
