package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, merchantID uuid.UUID, input *entities.CreatePaymentInput) (*entities.CreatePaymentResponse, error)
	GetPayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error)
	ListPayments(ctx context.Context, merchantID uuid.UUID, filter entities.ListPaymentsFilter) (*entities.PaymentList, error)
	ConfirmPayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.ConfirmInput) (*entities.Payment, error)
	CapturePayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.CaptureInput) (*entities.Payment, error)
	RefundPayment(ctx context.Context, merchantID, id uuid.UUID, input *entities.RefundInput) (*entities.Payment, error)
	CancelPayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error)
	DisputePayment(ctx context.Context, merchantID, id uuid.UUID) (*entities.Payment, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentUsecase PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentUsecase PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// CreatePayment creates a new payment
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var input entities.CreatePaymentInput

	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	createResponse, err := h.paymentUsecase.CreatePayment(c.Request.Context(), merchantID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, createResponse)
}

// GetPayment gets a payment by ID
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	payment, err := h.paymentUsecase.GetPayment(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// ListPayments lists payments for the current merchant
// GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := entities.ListPaymentsFilter{
		Status: entities.PaymentStatus(c.Query("status")),
		Limit:  limit,
	}

	if after := c.Query("starting_after"); after != "" {
		id, err := uuid.Parse(after)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid starting_after cursor"))
			return
		}
		filter.StartingAfter = &id
	}

	if customer := c.Query("customer_id"); customer != "" {
		id, err := uuid.Parse(customer)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid customer_id"))
			return
		}
		filter.CustomerID = &id
	}

	list, err := h.paymentUsecase.ListPayments(c.Request.Context(), merchantID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// ConfirmPayment reports the outcome of a payment awaiting customer action
// POST /api/v1/payments/:id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	var input entities.ConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	payment, err := h.paymentUsecase.ConfirmPayment(c.Request.Context(), merchantID, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// CapturePayment captures an authorized payment
// POST /api/v1/payments/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	var input entities.CaptureInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	payment, err := h.paymentUsecase.CapturePayment(c.Request.Context(), merchantID, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// RefundPayment refunds part or all of a captured payment
// POST /api/v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	var input entities.RefundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	payment, err := h.paymentUsecase.RefundPayment(c.Request.Context(), merchantID, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// CancelPayment cancels a payment that has not been captured
// POST /api/v1/payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	payment, err := h.paymentUsecase.CancelPayment(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// DisputePayment marks a succeeded payment as disputed
// POST /api/v1/payments/:id/dispute
func (h *PaymentHandler) DisputePayment(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	payment, err := h.paymentUsecase.DisputePayment(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// merchantAndID resolves the authenticated merchant and the :id path param,
// writing the error response itself when either is missing.
func merchantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid ID"))
		return uuid.Nil, uuid.Nil, false
	}

	return merchantID, id, true
}
