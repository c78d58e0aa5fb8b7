package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// BalanceHandler handles balance endpoints
type BalanceHandler struct {
	balanceUsecase *usecases.BalanceUsecase
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(balanceUsecase *usecases.BalanceUsecase) *BalanceHandler {
	return &BalanceHandler{balanceUsecase: balanceUsecase}
}

// GetBalance returns the available and pending balance for a currency
// GET /api/v1/balance
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	currency := c.DefaultQuery("currency", "USD")

	balance, err := h.balanceUsecase.GetBalance(c.Request.Context(), merchantID, currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, balance)
}

// ListTransactions lists ledger rows for the merchant, newest first
// GET /api/v1/balance/transactions
func (h *BalanceHandler) ListTransactions(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	currency := c.Query("currency")

	transactions, err := h.balanceUsecase.ListTransactions(c.Request.Context(), merchantID, currency, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, transactions)
}
