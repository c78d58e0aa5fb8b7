package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Webhook is a merchant-owned delivery target. Secret is stored encrypted at
// rest and used to sign outbound deliveries.
type Webhook struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchantId"`
	URL        string    `json:"url"`
	Secret     string    `json:"-"`
	Events     []string  `json:"events"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SubscribedTo reports whether the webhook wants the given event type.
// An empty set or a "*" entry subscribes to everything.
func (w *Webhook) SubscribedTo(eventType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == "*" || e == eventType {
			return true
		}
	}
	return false
}

// CreateWebhookInput represents input for registering a webhook endpoint
type CreateWebhookInput struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events,omitempty"`
}

// WebhookDeliveryStatus represents the state of one event delivery
type WebhookDeliveryStatus string

const (
	DeliveryStatusPending      WebhookDeliveryStatus = "pending"
	DeliveryStatusDelivered    WebhookDeliveryStatus = "delivered"
	DeliveryStatusDeadLettered WebhookDeliveryStatus = "dead_lettered"
)

// WebhookDelivery tracks one event scheduled to one webhook endpoint,
// including its retry state. Exhausting retries dead-letters the delivery;
// it is never retried further and never fails the triggering transaction.
type WebhookDelivery struct {
	ID            uuid.UUID             `json:"id"`
	WebhookID     uuid.UUID             `json:"webhookId"`
	EventID       uuid.UUID             `json:"eventId"`
	Status        WebhookDeliveryStatus `json:"status"`
	Attempts      int                   `json:"attempts"`
	NextAttemptAt time.Time             `json:"nextAttemptAt"`
	LastError     null.String           `json:"lastError,omitempty"`
	DeliveredAt   null.Time             `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}
