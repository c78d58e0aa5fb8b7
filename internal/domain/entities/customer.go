package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Customer represents a customer entity. Unique per (merchant, email).
type Customer struct {
	ID                   uuid.UUID       `json:"id"`
	MerchantID           uuid.UUID       `json:"merchantId"`
	Email                string          `json:"email"`
	Name                 null.String     `json:"name,omitempty"`
	Phone                null.String     `json:"phone,omitempty"`
	Description          null.String     `json:"description,omitempty"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	DefaultPaymentMethod null.String     `json:"defaultPaymentMethod,omitempty"`
	Balance              int64           `json:"balance"`
	Delinquent           bool            `json:"delinquent"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// CreateCustomerInput represents input for creating a customer
type CreateCustomerInput struct {
	Email       string          `json:"email" binding:"required,email"`
	Name        string          `json:"name,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// UpdateCustomerInput represents partial updates to a customer
type UpdateCustomerInput struct {
	Email                *string         `json:"email,omitempty"`
	Name                 *string         `json:"name,omitempty"`
	Phone                *string         `json:"phone,omitempty"`
	Description          *string         `json:"description,omitempty"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	DefaultPaymentMethod *string         `json:"defaultPaymentMethod,omitempty"`
}
