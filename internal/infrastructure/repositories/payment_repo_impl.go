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

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment. IDs are UUIDv7 so creation order is
// preserved in the ID itself.
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = utils.GenerateUUIDv7()
	}
	m := toPaymentModel(payment)
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	payment.ID = m.ID
	return nil
}

// GetByID gets a payment by ID scoped to the merchant. Under a locking
// context the row is read FOR UPDATE.
func (r *PaymentRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error) {
	var m models.Payment
	db := applyLock(ctx, GetDB(ctx, r.db).WithContext(ctx))
	if err := db.Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPaymentEntity(&m), nil
}

// List returns a cursor page of payments for a merchant, newest first.
func (r *PaymentRepository) List(ctx context.Context, merchantID uuid.UUID, filter entities.ListPaymentsFilter) ([]*entities.Payment, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	query := db.Model(&models.Payment{}).Where("merchant_id = ?", merchantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.StartingAfter != nil {
		var cursor models.Payment
		if err := db.Select("created_at", "id").Where("id = ?", *filter.StartingAfter).First(&cursor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, domainerrors.ErrNotFound
			}
			return nil, 0, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var ms []models.Payment
	if err := query.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, toPaymentEntity(&ms[i]))
	}
	return payments, total, nil
}

// Update persists the mutable payment fields. Amount and currency are never
// written after creation.
func (r *PaymentRepository) Update(ctx context.Context, payment *entities.Payment) error {
	db := GetDB(ctx, r.db)
	updates := map[string]interface{}{
		"status":          string(payment.Status),
		"captured_amount": payment.CapturedAmount,
		"refunded_amount": payment.RefundedAmount,
		"refund_reason":   payment.RefundReason.Ptr(),
		"failure_code":    payment.FailureCode.Ptr(),
		"failure_message": payment.FailureMessage.Ptr(),
		"crypto_address":  payment.CryptoAddress.Ptr(),
		"crypto_key":      payment.CryptoKey.Ptr(),
		"captured_at":     payment.CapturedAt.Ptr(),
		"metadata":        metadataString(payment.Metadata),
		"updated_at":      time.Now(),
	}
	result := db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND merchant_id = ?", payment.ID, payment.MerchantID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Aggregate computes the analytics rollup over committed payments in range.
func (r *PaymentRepository) Aggregate(ctx context.Context, merchantID uuid.UUID, start, end time.Time, currency string) (*entities.AnalyticsSummary, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	base := func() *gorm.DB {
		q := db.Model(&models.Payment{}).
			Where("merchant_id = ? AND created_at >= ? AND created_at < ?", merchantID, start, end)
		if currency != "" {
			q = q.Where("currency = ?", currency)
		}
		return q
	}

	summary := &entities.AnalyticsSummary{Start: start, End: end, Currency: currency}

	type sums struct {
		TotalAmount    int64
		TotalCount     int64
		RefundedAmount int64
	}
	var s sums
	if err := base().Select("COALESCE(SUM(amount),0) AS total_amount, COUNT(*) AS total_count, COALESCE(SUM(refunded_amount),0) AS refunded_amount").
		Scan(&s).Error; err != nil {
		return nil, err
	}
	summary.TotalAmount = s.TotalAmount
	summary.TotalCount = s.TotalCount
	summary.RefundedAmount = s.RefundedAmount

	succeeded := []string{
		string(entities.PaymentStatusSucceeded),
		string(entities.PaymentStatusPartiallyRefunded),
		string(entities.PaymentStatusRefunded),
	}
	if err := base().Where("status IN ?", succeeded).Count(&summary.SuccessfulCount).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", string(entities.PaymentStatusFailed)).Count(&summary.FailedCount).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

func toPaymentModel(p *entities.Payment) *models.Payment {
	return &models.Payment{
		ID:             p.ID,
		MerchantID:     p.MerchantID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		PaymentMethod:  string(p.PaymentMethod),
		Description:    p.Description.Ptr(),
		Metadata:       metadataString(p.Metadata),
		CapturedAmount: p.CapturedAmount,
		RefundedAmount: p.RefundedAmount,
		RefundReason:   p.RefundReason.Ptr(),
		FailureCode:    p.FailureCode.Ptr(),
		FailureMessage: p.FailureMessage.Ptr(),
		CryptoAddress:  p.CryptoAddress.Ptr(),
		CryptoKey:      p.CryptoKey.Ptr(),
		CapturedAt:     p.CapturedAt.Ptr(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPaymentEntity(m *models.Payment) *entities.Payment {
	return &entities.Payment{
		ID:             m.ID,
		MerchantID:     m.MerchantID,
		CustomerID:     m.CustomerID,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Status:         entities.PaymentStatus(m.Status),
		PaymentMethod:  entities.PaymentMethod(m.PaymentMethod),
		Description:    null.StringFromPtr(m.Description),
		Metadata:       metadataRaw(m.Metadata),
		CapturedAmount: m.CapturedAmount,
		RefundedAmount: m.RefundedAmount,
		RefundReason:   null.StringFromPtr(m.RefundReason),
		FailureCode:    null.StringFromPtr(m.FailureCode),
		FailureMessage: null.StringFromPtr(m.FailureMessage),
		CryptoAddress:  null.StringFromPtr(m.CryptoAddress),
		CryptoKey:      null.StringFromPtr(m.CryptoKey),
		CapturedAt:     null.TimeFromPtr(m.CapturedAt),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func metadataString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func metadataRaw(s string) json.RawMessage {
	if s == "" || s == "{}" {
		return nil
	}
	return json.RawMessage(s)
}
