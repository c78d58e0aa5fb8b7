package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Merchant represents a merchant entity, the tenant root that owns payments,
// customers, webhooks and ledger rows. Merchants are soft-deactivated via
// Active, never hard-deleted while children exist.
type Merchant struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	WebhookSecret      string      `json:"-"`
	Active             bool        `json:"active"`
	AllowLargePayments bool        `json:"allowLargePayments"`
	Country            null.String `json:"country,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	DeletedAt          null.Time   `json:"-"`
}

// CreateMerchantInput represents input for merchant onboarding
type CreateMerchantInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Country string `json:"country,omitempty"`
}

// MerchantBalance is the derived per-currency balance for a merchant
type MerchantBalance struct {
	Currency  string    `json:"currency"`
	Available int64     `json:"available"`
	Pending   int64     `json:"pending"`
	AsOf      time.Time `json:"asOf"`
}
