package usecases_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/usecases"
	"defiant.backend/pkg/crypto"
)

const testCipherKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

type webhookFixture struct {
	webhookRepo  *MockWebhookRepository
	deliveryRepo *MockWebhookDeliveryRepository
	eventRepo    *MockEventRepository
	uc           *usecases.WebhookUsecase
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	cipher, err := crypto.NewCipher(testCipherKey)
	require.NoError(t, err)

	f := &webhookFixture{
		webhookRepo:  new(MockWebhookRepository),
		deliveryRepo: new(MockWebhookDeliveryRepository),
		eventRepo:    new(MockEventRepository),
	}
	f.uc = usecases.NewWebhookUsecase(
		f.webhookRepo,
		f.deliveryRepo,
		f.eventRepo,
		cipher,
		config.WebhookConfig{ReplayWindow: 5 * time.Minute, MaxAttempts: 5, BackoffBase: time.Second},
	)
	return f
}

func TestSignAndVerifyPayload(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	now := time.Now()

	header := usecases.SignPayload(secret, payload, now)
	assert.True(t, strings.HasPrefix(header, "t="))
	assert.Contains(t, header, ",v1=")

	assert.NoError(t, usecases.VerifySignature(secret, payload, header, now, 5*time.Minute))

	// Tampered payload.
	err := usecases.VerifySignature(secret, []byte(`{"id":"evt_2"}`), header, now, 5*time.Minute)
	assert.ErrorIs(t, err, domainerrors.ErrSignatureMismatch)

	// Wrong secret.
	err = usecases.VerifySignature("whsec_other", payload, header, now, 5*time.Minute)
	assert.ErrorIs(t, err, domainerrors.ErrSignatureMismatch)
}

func TestVerifySignature_ReplayWindow(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{}`)
	signedAt := time.Now()
	header := usecases.SignPayload(secret, payload, signedAt)

	// Inside the window.
	assert.NoError(t, usecases.VerifySignature(secret, payload, header, signedAt.Add(4*time.Minute), 5*time.Minute))

	// A stale signature is a replay.
	err := usecases.VerifySignature(secret, payload, header, signedAt.Add(6*time.Minute), 5*time.Minute)
	assert.ErrorIs(t, err, domainerrors.ErrSignatureMismatch)
}

func TestVerifySignature_MalformedHeaders(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{}`)
	now := time.Now()

	for _, header := range []string{
		"",
		"v1=deadbeef",
		"t=123",
		"t=notanumber,v1=deadbeef",
	} {
		err := usecases.VerifySignature(secret, payload, header, now, 5*time.Minute)
		assert.ErrorIs(t, err, domainerrors.ErrSignatureMismatch, "header %q", header)
	}
}

func TestCreateWebhook_SecretShownOnceAndEncryptedAtRest(t *testing.T) {
	f := newWebhookFixture(t)
	merchantID := uuid.New()

	var stored *entities.Webhook
	f.webhookRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Webhook")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*entities.Webhook)
		}).Return(nil)

	webhook, secret, err := f.uc.CreateWebhook(context.Background(), merchantID, &entities.CreateWebhookInput{
		URL:    "https://example.com/hooks",
		Events: []string{entities.EventPaymentSucceeded},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, "whsec_"))
	assert.True(t, webhook.Active)

	// The stored secret is ciphertext, not the handed-out plaintext.
	require.NotNil(t, stored)
	assert.NotEqual(t, secret, stored.Secret)

	plain, err := f.uc.DecryptSecret(stored)
	require.NoError(t, err)
	assert.Equal(t, secret, plain)
}

func TestConstructEvent(t *testing.T) {
	f := newWebhookFixture(t)
	secret := "whsec_test_secret"

	payload, err := json.Marshal(entities.ParsedEvent{
		ID:   uuid.New().String(),
		Type: entities.EventPaymentSucceeded,
		Data: json.RawMessage(`{"amount":1000}`),
	})
	require.NoError(t, err)

	header := usecases.SignPayload(secret, payload, time.Now())
	event, err := f.uc.ConstructEvent(payload, header, secret)
	require.NoError(t, err)
	assert.Equal(t, entities.EventPaymentSucceeded, event.Type)

	_, err = f.uc.ConstructEvent([]byte(`{"tampered":true}`), header, secret)
	assert.ErrorIs(t, err, domainerrors.ErrSignatureMismatch)
}

func TestFanout_OnlySubscribedEndpoints(t *testing.T) {
	f := newWebhookFixture(t)
	merchantID := uuid.New()

	subscribed := &entities.Webhook{ID: uuid.New(), MerchantID: merchantID, Active: true, Events: []string{entities.EventPaymentSucceeded}}
	wildcard := &entities.Webhook{ID: uuid.New(), MerchantID: merchantID, Active: true, Events: []string{"*"}}
	other := &entities.Webhook{ID: uuid.New(), MerchantID: merchantID, Active: true, Events: []string{entities.EventPaymentFailed}}

	f.webhookRepo.On("ListActiveByMerchant", mock.Anything, merchantID).
		Return([]*entities.Webhook{subscribed, wildcard, other}, nil)

	var deliveries []*entities.WebhookDelivery
	f.deliveryRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.WebhookDelivery")).
		Run(func(args mock.Arguments) {
			deliveries = append(deliveries, args.Get(1).(*entities.WebhookDelivery))
		}).Return(nil)

	event := &entities.Event{ID: uuid.New(), MerchantID: merchantID, Type: entities.EventPaymentSucceeded}
	require.NoError(t, f.uc.Fanout(context.Background(), event))

	require.Len(t, deliveries, 2)
	assert.Equal(t, subscribed.ID, deliveries[0].WebhookID)
	assert.Equal(t, wildcard.ID, deliveries[1].WebhookID)
	for _, d := range deliveries {
		assert.Equal(t, entities.DeliveryStatusPending, d.Status)
		assert.Equal(t, event.ID, d.EventID)
		assert.Zero(t, d.Attempts)
	}
}

func TestUpdateWebhook_PartialUpdates(t *testing.T) {
	f := newWebhookFixture(t)
	merchantID := uuid.New()
	id := uuid.New()
	existing := &entities.Webhook{
		ID: id, MerchantID: merchantID,
		URL: "https://example.com/hooks", Events: []string{"*"}, Active: true,
	}

	f.webhookRepo.On("GetByID", mock.Anything, merchantID, id).Return(existing, nil)
	f.webhookRepo.On("Update", mock.Anything, mock.AnythingOfType("*entities.Webhook")).Return(nil)

	inactive := false
	got, err := f.uc.UpdateWebhook(context.Background(), merchantID, id, "", nil, &inactive)
	require.NoError(t, err)
	assert.False(t, got.Active)
	// Untouched fields survive.
	assert.Equal(t, "https://example.com/hooks", got.URL)
	assert.Equal(t, []string{"*"}, got.Events)
}

func TestWebhookSubscribedTo(t *testing.T) {
	all := &entities.Webhook{}
	assert.True(t, all.SubscribedTo(entities.EventPaymentCreated))

	scoped := &entities.Webhook{Events: []string{entities.EventPaymentSucceeded}}
	assert.True(t, scoped.SubscribedTo(entities.EventPaymentSucceeded))
	assert.False(t, scoped.SubscribedTo(entities.EventPaymentFailed))
}
