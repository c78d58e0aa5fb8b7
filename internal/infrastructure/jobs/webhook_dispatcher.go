package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"defiant.backend/internal/config"
	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/internal/usecases"
	"defiant.backend/pkg/logger"
)

// WebhookDispatcherJob delivers pending webhook deliveries. Failed attempts
// back off exponentially; after the attempt budget a delivery is
// dead-lettered and never retried.
type WebhookDispatcherJob struct {
	deliveryRepo repositories.WebhookDeliveryRepository
	webhookRepo  repositories.WebhookRepository
	eventRepo    repositories.EventRepository
	webhooks     *usecases.WebhookUsecase
	client       *http.Client
	cfg          config.WebhookConfig
	stop         chan struct{}
}

// NewWebhookDispatcherJob creates a new dispatcher job
func NewWebhookDispatcherJob(
	deliveryRepo repositories.WebhookDeliveryRepository,
	webhookRepo repositories.WebhookRepository,
	eventRepo repositories.EventRepository,
	webhooks *usecases.WebhookUsecase,
	cfg config.WebhookConfig,
) *WebhookDispatcherJob {
	return &WebhookDispatcherJob{
		deliveryRepo: deliveryRepo,
		webhookRepo:  webhookRepo,
		eventRepo:    eventRepo,
		webhooks:     webhooks,
		client:       &http.Client{Timeout: cfg.RequestTimeout},
		cfg:          cfg,
		stop:         make(chan struct{}),
	}
}

// Start runs the dispatch loop until the context is canceled or Stop is
// called.
func (j *WebhookDispatcherJob) Start(ctx context.Context) {
	logger.Info(ctx, "webhook dispatcher started", zap.Duration("poll_interval", j.cfg.PollInterval))

	ticker := time.NewTicker(j.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "webhook dispatcher stopped")
			return
		case <-j.stop:
			logger.Info(ctx, "webhook dispatcher stopped")
			return
		case <-ticker.C:
			j.DispatchDue(ctx)
		}
	}
}

// Stop signals the dispatch loop to exit
func (j *WebhookDispatcherJob) Stop() {
	close(j.stop)
}

// DispatchDue processes one batch of due deliveries.
func (j *WebhookDispatcherJob) DispatchDue(ctx context.Context) {
	due, err := j.deliveryRepo.GetDue(ctx, time.Now(), j.cfg.BatchSize)
	if err != nil {
		logger.Error(ctx, "failed to fetch due webhook deliveries", zap.Error(err))
		return
	}

	for _, delivery := range due {
		j.dispatch(ctx, delivery)
	}
}

func (j *WebhookDispatcherJob) dispatch(ctx context.Context, delivery *entities.WebhookDelivery) {
	delivery.Attempts++
	delivery.UpdatedAt = time.Now()

	err := j.attempt(ctx, delivery)
	if err == nil {
		delivery.Status = entities.DeliveryStatusDelivered
		delivery.DeliveredAt = null.TimeFrom(time.Now())
		delivery.LastError = null.String{}
	} else {
		delivery.LastError = null.StringFrom(err.Error())
		if delivery.Attempts >= j.cfg.MaxAttempts {
			delivery.Status = entities.DeliveryStatusDeadLettered
			logger.Warn(ctx, "webhook delivery dead-lettered",
				zap.String("delivery_id", delivery.ID.String()),
				zap.Int("attempts", delivery.Attempts),
				zap.Error(err),
			)
		} else {
			delivery.NextAttemptAt = time.Now().Add(j.backoff(delivery.Attempts))
		}
	}

	if err := j.deliveryRepo.Update(ctx, delivery); err != nil {
		logger.Error(ctx, "failed to persist webhook delivery state",
			zap.String("delivery_id", delivery.ID.String()),
			zap.Error(err),
		)
	}
}

// backoff doubles per attempt: base, 2*base, 4*base, ...
func (j *WebhookDispatcherJob) backoff(attempts int) time.Duration {
	d := j.cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

func (j *WebhookDispatcherJob) attempt(ctx context.Context, delivery *entities.WebhookDelivery) error {
	webhook, err := j.webhookByID(ctx, delivery)
	if err != nil {
		return err
	}
	if !webhook.Active {
		return fmt.Errorf("webhook endpoint inactive")
	}

	event, err := j.eventRepo.GetByID(ctx, webhook.MerchantID, delivery.EventID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	secret, err := j.webhooks.DecryptSecret(webhook)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(usecases.SignatureHeader, usecases.SignPayload(secret, payload, time.Now()))

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (j *WebhookDispatcherJob) webhookByID(ctx context.Context, delivery *entities.WebhookDelivery) (*entities.Webhook, error) {
	return j.webhookRepo.GetByIDUnscoped(ctx, delivery.WebhookID)
}
