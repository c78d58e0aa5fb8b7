package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// ApiKeyHandler handles API key management endpoints
type ApiKeyHandler struct {
	apiKeyUsecase *usecases.ApiKeyUsecase
}

// NewApiKeyHandler creates a new API key handler
func NewApiKeyHandler(apiKeyUsecase *usecases.ApiKeyUsecase) *ApiKeyHandler {
	return &ApiKeyHandler{apiKeyUsecase: apiKeyUsecase}
}

// CreateApiKey creates a new API key. The full key is returned once in this
// response and never again.
// POST /api/v1/api-keys
func (h *ApiKeyHandler) CreateApiKey(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	var input struct {
		Name        string                      `json:"name" binding:"required"`
		Permissions []entities.ApiKeyPermission `json:"permissions" binding:"required"`
		ExpiresAt   *time.Time                  `json:"expiresAt,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	key, fullKey, err := h.apiKeyUsecase.CreateApiKey(c.Request.Context(), merchantID, input.Name, input.Permissions, input.ExpiresAt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"apiKey": key,
		"key":    fullKey,
	})
}

// ListApiKeys lists the merchant's API keys
// GET /api/v1/api-keys
func (h *ApiKeyHandler) ListApiKeys(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	keys, err := h.apiKeyUsecase.ListKeys(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"apiKeys": keys})
}

// RevokeApiKey deactivates an API key
// DELETE /api/v1/api-keys/:id
func (h *ApiKeyHandler) RevokeApiKey(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	if err := h.apiKeyUsecase.RevokeKey(c.Request.Context(), merchantID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
