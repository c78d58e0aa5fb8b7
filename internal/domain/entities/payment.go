package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents payment lifecycle status
type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "pending"
	PaymentStatusProcessing           PaymentStatus = "processing"
	PaymentStatusRequiresAction       PaymentStatus = "requires_action"
	PaymentStatusRequiresConfirmation PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresCapture      PaymentStatus = "requires_capture"
	PaymentStatusCanceled             PaymentStatus = "canceled"
	PaymentStatusSucceeded            PaymentStatus = "succeeded"
	PaymentStatusFailed               PaymentStatus = "failed"
	PaymentStatusRefunded             PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded    PaymentStatus = "partially_refunded"
	PaymentStatusDisputed             PaymentStatus = "disputed"
)

// IsTerminal reports whether no further transition can leave the status.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCanceled, PaymentStatusFailed, PaymentStatusDisputed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how a payment is funded
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodApplePay     PaymentMethod = "apple_pay"
	PaymentMethodGooglePay    PaymentMethod = "google_pay"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodCustom       PaymentMethod = "custom"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCrypto,
		PaymentMethodApplePay, PaymentMethodGooglePay, PaymentMethodPayPal, PaymentMethodCustom:
		return true
	}
	return false
}

// Payment represents a payment entity. Amount and Currency are immutable after
// creation; Status changes only through the state machine.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	MerchantID     uuid.UUID       `json:"merchantId"`
	CustomerID     *uuid.UUID      `json:"customerId,omitempty"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PaymentStatus   `json:"status"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Description    null.String     `json:"description,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CapturedAmount int64           `json:"capturedAmount"`
	RefundedAmount int64           `json:"refundedAmount"`
	RefundReason   null.String     `json:"refundReason,omitempty"`
	FailureCode    null.String     `json:"failureCode,omitempty"`
	FailureMessage null.String     `json:"failureMessage,omitempty"`
	CryptoAddress  null.String     `json:"cryptoAddress,omitempty"`
	// CryptoKey holds the encrypted deposit address key. Never serialized.
	CryptoKey  null.String `json:"-"`
	CapturedAt null.Time   `json:"capturedAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// RemainingRefundable returns how much can still be refunded. Refunds are
// bounded by the captured amount, not the authorized amount.
func (p *Payment) RemainingRefundable() int64 {
	return p.CapturedAmount - p.RefundedAmount
}

// CreatePaymentInput represents input for creating a payment
type CreatePaymentInput struct {
	Amount      int64           `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required"`
	Method      PaymentMethod   `json:"paymentMethod" binding:"required"`
	CustomerID  *uuid.UUID      `json:"customerId,omitempty"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	// Capture requests authorize-and-capture in a single step.
	Capture bool `json:"capture,omitempty"`
}

// CreatePaymentResponse represents response for payment creation
type CreatePaymentResponse struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"clientSecret"`
}

// CaptureInput represents input for capturing an authorized payment.
// A zero Amount captures the full authorized amount.
type CaptureInput struct {
	Amount int64 `json:"amount,omitempty"`
}

// RefundInput represents input for refunding a captured payment
type RefundInput struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

// ConfirmInput carries the external confirmation result for a payment that
// required customer action.
type ConfirmInput struct {
	Succeeded      bool   `json:"succeeded"`
	FailureCode    string `json:"failureCode,omitempty"`
	FailureMessage string `json:"failureMessage,omitempty"`
	// TxHash is set for crypto payments and is validated against the
	// crypto network before the payment is allowed to succeed.
	TxHash string `json:"txHash,omitempty"`
}

// ListPaymentsFilter represents filters for listing payments
type ListPaymentsFilter struct {
	CustomerID    *uuid.UUID
	Status        PaymentStatus
	StartingAfter *uuid.UUID
	Limit         int
}

// PaymentList is a cursor page of payments. NextCursor is the id to pass as
// startingAfter for the next page; empty on the last page.
type PaymentList struct {
	Data       []*Payment `json:"data"`
	HasMore    bool       `json:"hasMore"`
	Total      int64      `json:"total"`
	NextCursor string     `json:"nextCursor,omitempty"`
}
