package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted on committed payment transitions.
const (
	EventPaymentCreated           = "payment.created"
	EventPaymentProcessing        = "payment.processing"
	EventPaymentRequiresAction    = "payment.requires_action"
	EventPaymentAuthorized        = "payment.authorized"
	EventPaymentSucceeded         = "payment.succeeded"
	EventPaymentFailed            = "payment.failed"
	EventPaymentCanceled          = "payment.canceled"
	EventPaymentRefunded          = "payment.refunded"
	EventPaymentPartiallyRefunded = "payment.partially_refunded"
	EventPaymentDisputed          = "payment.disputed"
)

// Event is an immutable audit and notification record. One event is appended
// per committed state transition and is the source of truth replayed to
// webhooks and streaming consumers.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	MerchantID uuid.UUID       `json:"merchantId"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ParsedEvent is the result of verifying and parsing an inbound webhook
// payload.
type ParsedEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}
