package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// maxInboundPayload caps how much of an inbound webhook body is read.
const maxInboundPayload = 1 << 20

// WebhookHandler handles webhook endpoint management and inbound webhook
// processing. inboundSecrets maps external provider names to the shared
// secret their deliveries are signed with.
type WebhookHandler struct {
	webhookUsecase *usecases.WebhookUsecase
	inboundSecrets map[string]string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase *usecases.WebhookUsecase, inboundSecrets map[string]string) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase, inboundSecrets: inboundSecrets}
}

// CreateWebhook registers a webhook endpoint. The signing secret is returned
// once in this response and never again.
// POST /api/v1/webhooks
func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	var input entities.CreateWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	webhook, secret, err := h.webhookUsecase.CreateWebhook(c.Request.Context(), merchantID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"webhook": webhook,
		"secret":  secret,
	})
}

// GetWebhook gets a webhook endpoint by ID
// GET /api/v1/webhooks/:id
func (h *WebhookHandler) GetWebhook(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	webhook, err := h.webhookUsecase.GetWebhook(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, webhook)
}

// ListWebhooks lists the merchant's webhook endpoints
// GET /api/v1/webhooks
func (h *WebhookHandler) ListWebhooks(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	webhooks, err := h.webhookUsecase.ListWebhooks(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"webhooks": webhooks})
}

// UpdateWebhook updates a webhook endpoint's URL, subscriptions, or status
// PATCH /api/v1/webhooks/:id
func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	var input struct {
		URL    string   `json:"url,omitempty"`
		Events []string `json:"events,omitempty"`
		Active *bool    `json:"active,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	webhook, err := h.webhookUsecase.UpdateWebhook(c.Request.Context(), merchantID, id, input.URL, input.Events, input.Active)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, webhook)
}

// DeleteWebhook removes a webhook endpoint
// DELETE /api/v1/webhooks/:id
func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	if err := h.webhookUsecase.DeleteWebhook(c.Request.Context(), merchantID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ProcessInbound verifies a webhook sent to us by an external provider and
// returns the parsed event. The payload is only parsed after its signature
// checks out.
// POST /api/v1/webhooks/inbound/:provider
func (h *WebhookHandler) ProcessInbound(c *gin.Context) {
	secret, ok := h.inboundSecrets[c.Param("provider")]
	if !ok {
		response.Error(c, domainerrors.NotFound("Unknown webhook provider"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInboundPayload))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Failed to read request body"))
		return
	}

	event, err := h.webhookUsecase.ConstructEvent(payload, c.GetHeader(usecases.SignatureHeader), secret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true, "event": event})
}
