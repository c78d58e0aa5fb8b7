package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/pkg/utils"
)

// MerchantRepository implements merchant data operations
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create creates a new merchant
func (r *MerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	if merchant.ID == uuid.Nil {
		merchant.ID = utils.GenerateUUIDv7()
	}
	m := &models.Merchant{
		ID:                 merchant.ID,
		Name:               merchant.Name,
		Email:              merchant.Email,
		WebhookSecret:      merchant.WebhookSecret,
		Active:             merchant.Active,
		AllowLargePayments: merchant.AllowLargePayments,
		Country:            merchant.Country.Ptr(),
		CreatedAt:          merchant.CreatedAt,
		UpdatedAt:          merchant.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	merchant.ID = m.ID
	return nil
}

// GetByID gets a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	var m models.Merchant
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toMerchantEntity(&m), nil
}

// GetByEmail gets a merchant by email
func (r *MerchantRepository) GetByEmail(ctx context.Context, email string) (*entities.Merchant, error) {
	var m models.Merchant
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toMerchantEntity(&m), nil
}

// Update persists merchant changes
func (r *MerchantRepository) Update(ctx context.Context, merchant *entities.Merchant) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", merchant.ID).
		Updates(map[string]interface{}{
			"name":                 merchant.Name,
			"webhook_secret":       merchant.WebhookSecret,
			"active":               merchant.Active,
			"allow_large_payments": merchant.AllowLargePayments,
			"country":              merchant.Country.Ptr(),
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetActive soft-deactivates or reactivates a merchant
func (r *MerchantRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toMerchantEntity(m *models.Merchant) *entities.Merchant {
	return &entities.Merchant{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		WebhookSecret:      m.WebhookSecret,
		Active:             m.Active,
		AllowLargePayments: m.AllowLargePayments,
		Country:            null.StringFromPtr(m.Country),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// CustomerRepository implements customer data operations
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer *entities.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = utils.GenerateUUIDv7()
	}
	m := &models.Customer{
		ID:                   customer.ID,
		MerchantID:           customer.MerchantID,
		Email:                customer.Email,
		Name:                 customer.Name.Ptr(),
		Phone:                customer.Phone.Ptr(),
		Description:          customer.Description.Ptr(),
		Metadata:             metadataString(customer.Metadata),
		DefaultPaymentMethod: customer.DefaultPaymentMethod.Ptr(),
		Balance:              customer.Balance,
		Delinquent:           customer.Delinquent,
		CreatedAt:            customer.CreatedAt,
		UpdatedAt:            customer.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	customer.ID = m.ID
	return nil
}

// GetByID gets a customer scoped to a merchant
func (r *CustomerRepository) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Customer, error) {
	var m models.Customer
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ? AND merchant_id = ?", id, merchantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toCustomerEntity(&m), nil
}

// GetByEmail gets a customer by email within a merchant
func (r *CustomerRepository) GetByEmail(ctx context.Context, merchantID uuid.UUID, email string) (*entities.Customer, error) {
	var m models.Customer
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("merchant_id = ? AND email = ?", merchantID, email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toCustomerEntity(&m), nil
}

// List lists customers for a merchant with pagination
func (r *CustomerRepository) List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Customer, int64, error) {
	db := GetDB(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Customer{}).Where("merchant_id = ?", merchantID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Customer
	if err := db.Where("merchant_id = ?", merchantID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]*entities.Customer, 0, len(ms))
	for i := range ms {
		customers = append(customers, toCustomerEntity(&ms[i]))
	}
	return customers, total, nil
}

// Update persists customer changes
func (r *CustomerRepository) Update(ctx context.Context, customer *entities.Customer) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND merchant_id = ?", customer.ID, customer.MerchantID).
		Updates(map[string]interface{}{
			"email":                  customer.Email,
			"name":                   customer.Name.Ptr(),
			"phone":                  customer.Phone.Ptr(),
			"description":            customer.Description.Ptr(),
			"metadata":               metadataString(customer.Metadata),
			"default_payment_method": customer.DefaultPaymentMethod.Ptr(),
			"balance":                customer.Balance,
			"delinquent":             customer.Delinquent,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toCustomerEntity(m *models.Customer) *entities.Customer {
	return &entities.Customer{
		ID:                   m.ID,
		MerchantID:           m.MerchantID,
		Email:                m.Email,
		Name:                 null.StringFromPtr(m.Name),
		Phone:                null.StringFromPtr(m.Phone),
		Description:          null.StringFromPtr(m.Description),
		Metadata:             metadataRaw(m.Metadata),
		DefaultPaymentMethod: null.StringFromPtr(m.DefaultPaymentMethod),
		Balance:              m.Balance,
		Delinquent:           m.Delinquent,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
