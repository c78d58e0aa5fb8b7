package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/interfaces/http/response"
	"defiant.backend/internal/usecases"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customerUsecase *usecases.CustomerUsecase
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerUsecase *usecases.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{customerUsecase: customerUsecase}
}

// CreateCustomer creates a new customer
// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	var input entities.CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	customer, err := h.customerUsecase.CreateCustomer(c.Request.Context(), merchantID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, customer)
}

// GetCustomer gets a customer by ID
// GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	customer, err := h.customerUsecase.GetCustomer(c.Request.Context(), merchantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, customer)
}

// ListCustomers lists the merchant's customers
// GET /api/v1/customers
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	merchantID, ok := middleware.GetMerchantID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Merchant not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	customers, err := h.customerUsecase.ListCustomers(c.Request.Context(), merchantID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, customers)
}

// UpdateCustomer applies partial updates to a customer
// PATCH /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	merchantID, id, ok := merchantAndID(c)
	if !ok {
		return
	}

	var input entities.UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	customer, err := h.customerUsecase.UpdateCustomer(c.Request.Context(), merchantID, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, customer)
}
