package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
)

// BalanceTransactionRepository defines ledger data operations. The interface
// is deliberately append-only: rows are never updated or deleted, corrections
// are new offsetting rows.
type BalanceTransactionRepository interface {
	Create(ctx context.Context, tx *entities.BalanceTransaction) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, currency string, limit, offset int) ([]*entities.BalanceTransaction, int64, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*entities.BalanceTransaction, error)
	// SumNet returns (available, pending) net sums split on availableOn
	// relative to asOf.
	SumNet(ctx context.Context, merchantID uuid.UUID, currency string, asOf time.Time) (int64, int64, error)
}
