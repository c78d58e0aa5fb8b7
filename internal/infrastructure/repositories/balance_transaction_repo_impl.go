package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/pkg/utils"
)

// BalanceTransactionRepository implements the append-only ledger store.
// There are intentionally no update or delete methods.
type BalanceTransactionRepository struct {
	db *gorm.DB
}

// NewBalanceTransactionRepository creates a new ledger repository
func NewBalanceTransactionRepository(db *gorm.DB) *BalanceTransactionRepository {
	return &BalanceTransactionRepository{db: db}
}

// Create appends a ledger row
func (r *BalanceTransactionRepository) Create(ctx context.Context, tx *entities.BalanceTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = utils.GenerateUUIDv7()
	}
	m := &models.BalanceTransaction{
		ID:          tx.ID,
		MerchantID:  tx.MerchantID,
		PaymentID:   tx.PaymentID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Fee:         tx.Fee,
		Net:         tx.Net,
		Currency:    tx.Currency,
		Description: tx.Description,
		AvailableOn: tx.AvailableOn,
		CreatedAt:   tx.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	tx.ID = m.ID
	return nil
}

// ListByMerchant lists ledger rows for a merchant, newest first.
func (r *BalanceTransactionRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, currency string, limit, offset int) ([]*entities.BalanceTransaction, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	query := db.Model(&models.BalanceTransaction{}).Where("merchant_id = ?", merchantID)
	if currency != "" {
		query = query.Where("currency = ?", currency)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.BalanceTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]*entities.BalanceTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, toBalanceTransactionEntity(&ms[i]))
	}
	return txs, total, nil
}

// ListByPayment lists ledger rows produced by one payment.
func (r *BalanceTransactionRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*entities.BalanceTransaction, error) {
	var ms []models.BalanceTransaction
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	txs := make([]*entities.BalanceTransaction, 0, len(ms))
	for i := range ms {
		txs = append(txs, toBalanceTransactionEntity(&ms[i]))
	}
	return txs, nil
}

// SumNet returns the available and pending net sums split on available_on
// relative to asOf.
func (r *BalanceTransactionRepository) SumNet(ctx context.Context, merchantID uuid.UUID, currency string, asOf time.Time) (int64, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	base := func() *gorm.DB {
		q := db.Model(&models.BalanceTransaction{}).Where("merchant_id = ?", merchantID)
		if currency != "" {
			q = q.Where("currency = ?", currency)
		}
		return q
	}

	var available, pending int64
	if err := base().Where("available_on <= ?", asOf).
		Select("COALESCE(SUM(net),0)").Scan(&available).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Where("available_on > ?", asOf).
		Select("COALESCE(SUM(net),0)").Scan(&pending).Error; err != nil {
		return 0, 0, err
	}
	return available, pending, nil
}

func toBalanceTransactionEntity(m *models.BalanceTransaction) *entities.BalanceTransaction {
	return &entities.BalanceTransaction{
		ID:          m.ID,
		MerchantID:  m.MerchantID,
		PaymentID:   m.PaymentID,
		Type:        entities.BalanceTransactionType(m.Type),
		Amount:      m.Amount,
		Fee:         m.Fee,
		Net:         m.Net,
		Currency:    m.Currency,
		Description: m.Description,
		AvailableOn: m.AvailableOn,
		CreatedAt:   m.CreatedAt,
	}
}
