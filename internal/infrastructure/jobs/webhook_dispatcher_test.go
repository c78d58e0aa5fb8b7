package jobs_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/infrastructure/jobs"
	"defiant.backend/internal/usecases"
	"defiant.backend/pkg/crypto"
	"defiant.backend/pkg/utils"
)

const testCipherKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) Create(ctx context.Context, webhook *entities.Webhook) error {
	return m.Called(ctx, webhook).Error(0)
}

func (m *MockWebhookRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Webhook, error) {
	args := m.Called(ctx, merchantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*entities.Webhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) ListActiveByMerchant(ctx context.Context, merchantID uuid.UUID) ([]*entities.Webhook, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) Update(ctx context.Context, webhook *entities.Webhook) error {
	return m.Called(ctx, webhook).Error(0)
}

func (m *MockWebhookRepository) Delete(ctx context.Context, merchantID, id uuid.UUID) error {
	return m.Called(ctx, merchantID, id).Error(0)
}

type MockWebhookDeliveryRepository struct {
	mock.Mock
}

func (m *MockWebhookDeliveryRepository) Create(ctx context.Context, delivery *entities.WebhookDelivery) error {
	return m.Called(ctx, delivery).Error(0)
}

func (m *MockWebhookDeliveryRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]*entities.WebhookDelivery, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WebhookDelivery), args.Error(1)
}

func (m *MockWebhookDeliveryRepository) Update(ctx context.Context, delivery *entities.WebhookDelivery) error {
	return m.Called(ctx, delivery).Error(0)
}

func (m *MockWebhookDeliveryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*entities.WebhookDelivery, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WebhookDelivery), args.Error(1)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *entities.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Event, error) {
	args := m.Called(ctx, merchantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, merchantID uuid.UUID, after *uuid.UUID, limit int) ([]*entities.Event, error) {
	args := m.Called(ctx, merchantID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

func (m *MockEventRepository) ListSince(ctx context.Context, merchantID uuid.UUID, since time.Time, limit int) ([]*entities.Event, error) {
	args := m.Called(ctx, merchantID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Event), args.Error(1)
}

type dispatcherFixture struct {
	deliveryRepo *MockWebhookDeliveryRepository
	webhookRepo  *MockWebhookRepository
	eventRepo    *MockEventRepository
	cfg          config.WebhookConfig
	job          *jobs.WebhookDispatcherJob

	merchantID uuid.UUID
	webhook    *entities.Webhook
	secret     string
	event      *entities.Event
}

func newDispatcherFixture(t *testing.T, endpointURL string) *dispatcherFixture {
	t.Helper()

	cipher, err := crypto.NewCipher(testCipherKey)
	require.NoError(t, err)

	secret := "whsec_dispatcher_test"
	encrypted, err := cipher.Encrypt([]byte(secret))
	require.NoError(t, err)

	f := &dispatcherFixture{
		deliveryRepo: new(MockWebhookDeliveryRepository),
		webhookRepo:  new(MockWebhookRepository),
		eventRepo:    new(MockEventRepository),
		cfg: config.WebhookConfig{
			ReplayWindow:   5 * time.Minute,
			MaxAttempts:    3,
			BackoffBase:    time.Second,
			RequestTimeout: 2 * time.Second,
			PollInterval:   15 * time.Second,
			BatchSize:      50,
		},
		merchantID: utils.GenerateUUIDv7(),
		secret:     secret,
	}
	f.webhook = &entities.Webhook{
		ID:         utils.GenerateUUIDv7(),
		MerchantID: f.merchantID,
		URL:        endpointURL,
		Secret:     encrypted,
		Active:     true,
	}
	f.event = &entities.Event{
		ID:         utils.GenerateUUIDv7(),
		MerchantID: f.merchantID,
		Type:       "payment.succeeded",
		Data:       json.RawMessage(`{"amount":1000}`),
		CreatedAt:  time.Now(),
	}

	webhooks := usecases.NewWebhookUsecase(f.webhookRepo, f.deliveryRepo, f.eventRepo, cipher, f.cfg)
	f.job = jobs.NewWebhookDispatcherJob(f.deliveryRepo, f.webhookRepo, f.eventRepo, webhooks, f.cfg)
	return f
}

func (f *dispatcherFixture) pendingDelivery(attempts int) *entities.WebhookDelivery {
	return &entities.WebhookDelivery{
		ID:            utils.GenerateUUIDv7(),
		WebhookID:     f.webhook.ID,
		EventID:       f.event.ID,
		Status:        entities.DeliveryStatusPending,
		Attempts:      attempts,
		NextAttemptAt: time.Now().Add(-time.Second),
	}
}

func TestDispatchDue_DeliversSignedPayload(t *testing.T) {
	var gotBody []byte
	var gotSig string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(usecases.SignatureHeader)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, srv.URL)
	delivery := f.pendingDelivery(0)

	f.deliveryRepo.On("GetDue", mock.Anything, mock.Anything, f.cfg.BatchSize).
		Return([]*entities.WebhookDelivery{delivery}, nil)
	f.webhookRepo.On("GetByIDUnscoped", mock.Anything, f.webhook.ID).Return(f.webhook, nil)
	f.eventRepo.On("GetByID", mock.Anything, f.merchantID, f.event.ID).Return(f.event, nil)
	f.deliveryRepo.On("Update", mock.Anything, delivery).Return(nil)

	f.job.DispatchDue(context.Background())

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, entities.DeliveryStatusDelivered, delivery.Status)
	assert.Equal(t, 1, delivery.Attempts)
	assert.True(t, delivery.DeliveredAt.Valid)
	assert.False(t, delivery.LastError.Valid)

	// The receiver can authenticate the payload with the shared secret.
	require.NotEmpty(t, gotSig)
	assert.NoError(t, usecases.VerifySignature(f.secret, gotBody, gotSig, time.Now(), f.cfg.ReplayWindow))

	var received entities.Event
	require.NoError(t, json.Unmarshal(gotBody, &received))
	assert.Equal(t, f.event.ID, received.ID)
	assert.Equal(t, "payment.succeeded", received.Type)

	f.deliveryRepo.AssertExpectations(t)
}

func TestDispatchDue_FailureSchedulesBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, srv.URL)
	first := f.pendingDelivery(0)
	second := f.pendingDelivery(1)

	f.deliveryRepo.On("GetDue", mock.Anything, mock.Anything, f.cfg.BatchSize).
		Return([]*entities.WebhookDelivery{first, second}, nil)
	f.webhookRepo.On("GetByIDUnscoped", mock.Anything, f.webhook.ID).Return(f.webhook, nil)
	f.eventRepo.On("GetByID", mock.Anything, f.merchantID, f.event.ID).Return(f.event, nil)
	f.deliveryRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	before := time.Now()
	f.job.DispatchDue(context.Background())

	assert.Equal(t, entities.DeliveryStatusPending, first.Status)
	assert.Equal(t, 1, first.Attempts)
	assert.True(t, first.LastError.Valid)
	assert.Contains(t, first.LastError.String, "500")
	assert.WithinDuration(t, before.Add(f.cfg.BackoffBase), first.NextAttemptAt, 2*time.Second)

	// Second failure doubles the delay.
	assert.Equal(t, 2, second.Attempts)
	assert.WithinDuration(t, before.Add(2*f.cfg.BackoffBase), second.NextAttemptAt, 2*time.Second)
}

func TestDispatchDue_DeadLettersAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, srv.URL)
	delivery := f.pendingDelivery(f.cfg.MaxAttempts - 1)
	nextAttemptBefore := delivery.NextAttemptAt

	f.deliveryRepo.On("GetDue", mock.Anything, mock.Anything, f.cfg.BatchSize).
		Return([]*entities.WebhookDelivery{delivery}, nil)
	f.webhookRepo.On("GetByIDUnscoped", mock.Anything, f.webhook.ID).Return(f.webhook, nil)
	f.eventRepo.On("GetByID", mock.Anything, f.merchantID, f.event.ID).Return(f.event, nil)
	f.deliveryRepo.On("Update", mock.Anything, delivery).Return(nil)

	f.job.DispatchDue(context.Background())

	assert.Equal(t, entities.DeliveryStatusDeadLettered, delivery.Status)
	assert.Equal(t, f.cfg.MaxAttempts, delivery.Attempts)
	assert.True(t, delivery.LastError.Valid)
	// Dead-lettered deliveries are never rescheduled.
	assert.Equal(t, nextAttemptBefore, delivery.NextAttemptAt)
}

func TestDispatchDue_InactiveEndpointSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	f := newDispatcherFixture(t, srv.URL)
	f.webhook.Active = false
	delivery := f.pendingDelivery(0)

	f.deliveryRepo.On("GetDue", mock.Anything, mock.Anything, f.cfg.BatchSize).
		Return([]*entities.WebhookDelivery{delivery}, nil)
	f.webhookRepo.On("GetByIDUnscoped", mock.Anything, f.webhook.ID).Return(f.webhook, nil)
	f.deliveryRepo.On("Update", mock.Anything, delivery).Return(nil)

	f.job.DispatchDue(context.Background())

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, entities.DeliveryStatusPending, delivery.Status)
	assert.Equal(t, 1, delivery.Attempts)
	assert.Contains(t, delivery.LastError.String, "inactive")
}
