package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/utils"
)

// BalanceUsecase exposes the merchant balance derived from the append-only
// ledger. Balances are never stored, always summed.
type BalanceUsecase struct {
	balanceTxRepo repositories.BalanceTransactionRepository
}

// NewBalanceUsecase creates a new balance usecase
func NewBalanceUsecase(balanceTxRepo repositories.BalanceTransactionRepository) *BalanceUsecase {
	return &BalanceUsecase{balanceTxRepo: balanceTxRepo}
}

// GetBalance returns the available/pending split for one currency as of now.
// Available is the net sum of rows whose available_on has passed; pending is
// the rest.
func (u *BalanceUsecase) GetBalance(ctx context.Context, merchantID uuid.UUID, currency string) (*entities.MerchantBalance, error) {
	if len(currency) != 3 {
		return nil, domainerrors.BadRequest("currency must be a 3-letter ISO code")
	}
	currency = strings.ToLower(currency)

	now := time.Now()
	available, pending, err := u.balanceTxRepo.SumNet(ctx, merchantID, currency, now)
	if err != nil {
		return nil, err
	}

	return &entities.MerchantBalance{
		Currency:  currency,
		Available: available,
		Pending:   pending,
		AsOf:      now,
	}, nil
}

// BalanceTransactionPage is one page of ledger rows
type BalanceTransactionPage struct {
	Data []*entities.BalanceTransaction `json:"data"`
	Meta utils.PaginationMeta           `json:"meta"`
}

// ListTransactions returns a page of ledger rows for a merchant, newest
// first.
func (u *BalanceUsecase) ListTransactions(ctx context.Context, merchantID uuid.UUID, currency string, page, limit int) (*BalanceTransactionPage, error) {
	params := utils.GetPaginationParams(page, limit)
	if params.Limit == 0 || params.Limit > MaxListLimit {
		params.Limit = MaxListLimit
	}
	if currency != "" {
		currency = strings.ToLower(currency)
	}

	rows, total, err := u.balanceTxRepo.ListByMerchant(ctx, merchantID, currency, params.Limit, params.CalculateOffset())
	if err != nil {
		return nil, err
	}

	return &BalanceTransactionPage{
		Data: rows,
		Meta: utils.CalculateMeta(total, params.Page, params.Limit),
	}, nil
}

// ListByPayment returns the ledger rows attributable to one payment.
func (u *BalanceUsecase) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*entities.BalanceTransaction, error) {
	return u.balanceTxRepo.ListByPayment(ctx, paymentID)
}
