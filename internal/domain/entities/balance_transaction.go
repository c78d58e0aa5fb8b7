package entities

import (
	"time"

	"github.com/google/uuid"
)

// BalanceTransactionType represents the economic category of a ledger row
type BalanceTransactionType string

const (
	BalanceTransactionTypeCharge     BalanceTransactionType = "charge"
	BalanceTransactionTypeRefund     BalanceTransactionType = "refund"
	BalanceTransactionTypeAdjustment BalanceTransactionType = "adjustment"
)

// BalanceTransaction is an immutable ledger row. Amount is signed (positive
// credit, negative debit), Fee is never negative, and Net must always equal
// Amount - Fee. Rows are append-only; corrections are new offsetting rows.
type BalanceTransaction struct {
	ID          uuid.UUID              `json:"id"`
	MerchantID  uuid.UUID              `json:"merchantId"`
	PaymentID   uuid.UUID              `json:"paymentId"`
	Type        BalanceTransactionType `json:"type"`
	Amount      int64                  `json:"amount"`
	Fee         int64                  `json:"fee"`
	Net         int64                  `json:"net"`
	Currency    string                 `json:"currency"`
	Description string                 `json:"description,omitempty"`
	AvailableOn time.Time              `json:"availableOn"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NewBalanceTransaction builds a ledger row with the net invariant enforced
// at construction: net is always derived, never supplied.
func NewBalanceTransaction(merchantID, paymentID uuid.UUID, txType BalanceTransactionType, amount, fee int64, currency string, availableOn time.Time) *BalanceTransaction {
	now := time.Now()
	return &BalanceTransaction{
		MerchantID:  merchantID,
		PaymentID:   paymentID,
		Type:        txType,
		Amount:      amount,
		Fee:         fee,
		Net:         amount - fee,
		Currency:    currency,
		AvailableOn: availableOn,
		CreatedAt:   now,
	}
}
