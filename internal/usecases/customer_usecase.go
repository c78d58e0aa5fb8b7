package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/utils"
)

// CustomerUsecase handles customer records scoped to a merchant
type CustomerUsecase struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerUsecase creates a new customer usecase
func NewCustomerUsecase(customerRepo repositories.CustomerRepository) *CustomerUsecase {
	return &CustomerUsecase{customerRepo: customerRepo}
}

// CreateCustomer creates a customer. Email is unique per merchant.
func (u *CustomerUsecase) CreateCustomer(ctx context.Context, merchantID uuid.UUID, input *entities.CreateCustomerInput) (*entities.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domainerrors.BadRequest("email is required")
	}

	now := time.Now()
	customer := &entities.Customer{
		MerchantID: merchantID,
		Email:      email,
		Metadata:   input.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.Name != "" {
		customer.Name.SetValid(input.Name)
	}
	if input.Phone != "" {
		customer.Phone.SetValid(input.Phone)
	}
	if input.Description != "" {
		customer.Description.SetValid(input.Description)
	}

	if err := u.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer returns a customer scoped to the merchant
func (u *CustomerUsecase) GetCustomer(ctx context.Context, merchantID, id uuid.UUID) (*entities.Customer, error) {
	return u.customerRepo.GetByID(ctx, merchantID, id)
}

// CustomerPage is one page of customers
type CustomerPage struct {
	Data []*entities.Customer `json:"data"`
	Meta utils.PaginationMeta `json:"meta"`
}

// ListCustomers returns a page of the merchant's customers
func (u *CustomerUsecase) ListCustomers(ctx context.Context, merchantID uuid.UUID, page, limit int) (*CustomerPage, error) {
	params := utils.GetPaginationParams(page, limit)
	if params.Limit == 0 || params.Limit > MaxListLimit {
		params.Limit = MaxListLimit
	}

	customers, total, err := u.customerRepo.List(ctx, merchantID, params.Limit, params.CalculateOffset())
	if err != nil {
		return nil, err
	}

	return &CustomerPage{
		Data: customers,
		Meta: utils.CalculateMeta(total, params.Page, params.Limit),
	}, nil
}

// UpdateCustomer applies a partial update
func (u *CustomerUsecase) UpdateCustomer(ctx context.Context, merchantID, id uuid.UUID, input *entities.UpdateCustomerInput) (*entities.Customer, error) {
	customer, err := u.customerRepo.GetByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, domainerrors.BadRequest("email cannot be empty")
		}
		customer.Email = email
	}
	if input.Name != nil {
		customer.Name.SetValid(*input.Name)
	}
	if input.Phone != nil {
		customer.Phone.SetValid(*input.Phone)
	}
	if input.Description != nil {
		customer.Description.SetValid(*input.Description)
	}
	if input.Metadata != nil {
		customer.Metadata = input.Metadata
	}
	if input.DefaultPaymentMethod != nil {
		customer.DefaultPaymentMethod.SetValid(*input.DefaultPaymentMethod)
	}
	customer.UpdatedAt = time.Now()

	if err := u.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
