package usecases

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/crypto"
	"defiant.backend/pkg/logger"
	"defiant.backend/pkg/redis"
)

// SignatureHeader is the HTTP header carrying the delivery signature.
const SignatureHeader = "X-Defiant-Signature"

// WebhookUsecase manages webhook endpoints, payload signing and verification,
// and fans committed events out to delivery rows. It implements EventNotifier
// for the payment flow.
type WebhookUsecase struct {
	webhookRepo  repositories.WebhookRepository
	deliveryRepo repositories.WebhookDeliveryRepository
	eventRepo    repositories.EventRepository
	cipher       *crypto.Cipher
	cfg          config.WebhookConfig
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(
	webhookRepo repositories.WebhookRepository,
	deliveryRepo repositories.WebhookDeliveryRepository,
	eventRepo repositories.EventRepository,
	cipher *crypto.Cipher,
	cfg config.WebhookConfig,
) *WebhookUsecase {
	return &WebhookUsecase{
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		eventRepo:    eventRepo,
		cipher:       cipher,
		cfg:          cfg,
	}
}

// CreateWebhook registers a delivery endpoint for a merchant. The generated
// signing secret is returned once and stored encrypted.
func (u *WebhookUsecase) CreateWebhook(ctx context.Context, merchantID uuid.UUID, input *entities.CreateWebhookInput) (*entities.Webhook, string, error) {
	secret, err := crypto.GenerateWebhookSecret()
	if err != nil {
		return nil, "", domainerrors.InternalError(err)
	}
	secret = "whsec_" + secret

	encrypted, err := u.cipher.Encrypt([]byte(secret))
	if err != nil {
		return nil, "", domainerrors.InternalError(err)
	}

	now := time.Now()
	webhook := &entities.Webhook{
		MerchantID: merchantID,
		URL:        input.URL,
		Secret:     encrypted,
		Events:     input.Events,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.webhookRepo.Create(ctx, webhook); err != nil {
		return nil, "", err
	}
	return webhook, secret, nil
}

// GetWebhook returns a webhook endpoint scoped to the merchant
func (u *WebhookUsecase) GetWebhook(ctx context.Context, merchantID, id uuid.UUID) (*entities.Webhook, error) {
	return u.webhookRepo.GetByID(ctx, merchantID, id)
}

// ListWebhooks returns the merchant's active endpoints
func (u *WebhookUsecase) ListWebhooks(ctx context.Context, merchantID uuid.UUID) ([]*entities.Webhook, error) {
	return u.webhookRepo.ListActiveByMerchant(ctx, merchantID)
}

// UpdateWebhook updates URL, subscriptions or active flag
func (u *WebhookUsecase) UpdateWebhook(ctx context.Context, merchantID, id uuid.UUID, url string, events []string, active *bool) (*entities.Webhook, error) {
	webhook, err := u.webhookRepo.GetByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if url != "" {
		webhook.URL = url
	}
	if events != nil {
		webhook.Events = events
	}
	if active != nil {
		webhook.Active = *active
	}
	webhook.UpdatedAt = time.Now()
	if err := u.webhookRepo.Update(ctx, webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

// DeleteWebhook removes an endpoint. Pending deliveries for it are abandoned.
func (u *WebhookUsecase) DeleteWebhook(ctx context.Context, merchantID, id uuid.UUID) error {
	return u.webhookRepo.Delete(ctx, merchantID, id)
}

// DecryptSecret returns the plaintext signing secret for an endpoint.
func (u *WebhookUsecase) DecryptSecret(webhook *entities.Webhook) (string, error) {
	plain, err := u.cipher.Decrypt(webhook.Secret)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SignPayload produces the signature header value for a payload at time t:
// "t=<unix>,v1=<hex hmac-sha256(t || "." || payload)>".
func SignPayload(secret string, payload []byte, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks a signature header against the payload. The
// timestamp must fall within the replay window around now. Comparison is
// constant time.
func VerifySignature(secret string, payload []byte, header string, now time.Time, window time.Duration) error {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == "" || len(sigs) == 0 {
		return domainerrors.ErrSignatureMismatch
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return domainerrors.ErrSignatureMismatch
	}
	at := time.Unix(unix, 0)
	if at.Before(now.Add(-window)) || at.After(now.Add(window)) {
		return domainerrors.ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range sigs {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, got) {
			return nil
		}
	}
	return domainerrors.ErrSignatureMismatch
}

// ConstructEvent verifies a received webhook payload and only then parses it.
// Consumers use this to authenticate inbound deliveries.
func (u *WebhookUsecase) ConstructEvent(payload []byte, header, secret string) (*entities.ParsedEvent, error) {
	if err := VerifySignature(secret, payload, header, time.Now(), u.cfg.ReplayWindow); err != nil {
		return nil, err
	}

	var event entities.ParsedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domainerrors.BadRequest("malformed event payload")
	}
	return &event, nil
}

// Fanout schedules one delivery per subscribed active endpoint. Runs inside
// the transaction that commits the event.
func (u *WebhookUsecase) Fanout(ctx context.Context, event *entities.Event) error {
	webhooks, err := u.webhookRepo.ListActiveByMerchant(ctx, event.MerchantID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, webhook := range webhooks {
		if !webhook.SubscribedTo(event.Type) {
			continue
		}
		delivery := &entities.WebhookDelivery{
			WebhookID:     webhook.ID,
			EventID:       event.ID,
			Status:        entities.DeliveryStatusPending,
			Attempts:      0,
			NextAttemptAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := u.deliveryRepo.Create(ctx, delivery); err != nil {
			return err
		}
	}
	return nil
}

// Publish pushes the event onto the merchant's stream channel. Best effort:
// streaming consumers can replay from the event log.
func (u *WebhookUsecase) Publish(ctx context.Context, event *entities.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := redis.Publish(ctx, StreamChannel(event.MerchantID), payload); err != nil {
		logger.Warn(ctx, "event stream publish failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

// StreamChannel names the per-merchant pub/sub channel.
func StreamChannel(merchantID uuid.UUID) string {
	return "events:" + merchantID.String()
}
