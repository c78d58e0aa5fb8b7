package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/usecases"
)

func TestCreateCustomer(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := usecases.NewCustomerUsecase(repo)
	merchantID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Customer")).Return(nil)

	customer, err := uc.CreateCustomer(context.Background(), merchantID, &entities.CreateCustomerInput{
		Email: " JO@Example.com ",
		Name:  "Jo",
	})
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", customer.Email)
	assert.Equal(t, "Jo", customer.Name.String)
	assert.Equal(t, merchantID, customer.MerchantID)

	_, err = uc.CreateCustomer(context.Background(), merchantID, &entities.CreateCustomerInput{Email: "  "})
	assert.Equal(t, 400, domainerrors.StatusFor(err))
}

func TestUpdateCustomer_Partial(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := usecases.NewCustomerUsecase(repo)
	merchantID := uuid.New()
	id := uuid.New()

	existing := &entities.Customer{ID: id, MerchantID: merchantID, Email: "jo@example.com"}
	repo.On("GetByID", mock.Anything, merchantID, id).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*entities.Customer")).Return(nil)

	name := "Jo Doe"
	customer, err := uc.UpdateCustomer(context.Background(), merchantID, id, &entities.UpdateCustomerInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jo Doe", customer.Name.String)
	// Untouched fields survive.
	assert.Equal(t, "jo@example.com", customer.Email)

	empty := ""
	_, err = uc.UpdateCustomer(context.Background(), merchantID, id, &entities.UpdateCustomerInput{Email: &empty})
	assert.Equal(t, 400, domainerrors.StatusFor(err))
}

func TestListCustomers(t *testing.T) {
	repo := new(MockCustomerRepository)
	uc := usecases.NewCustomerUsecase(repo)
	merchantID := uuid.New()

	repo.On("List", mock.Anything, merchantID, 10, 10).
		Return([]*entities.Customer{{ID: uuid.New()}}, int64(11), nil)

	page, err := uc.ListCustomers(context.Background(), merchantID, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(11), page.Meta.TotalCount)
	assert.Equal(t, 2, page.Meta.TotalPages)
}
