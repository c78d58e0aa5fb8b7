package repositories

import (
	"context"

	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
)

// MerchantRepository defines merchant data operations
type MerchantRepository interface {
	Create(ctx context.Context, merchant *entities.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*entities.Merchant, error)
	Update(ctx context.Context, merchant *entities.Merchant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// CustomerRepository defines customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entities.Customer) error
	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*entities.Customer, error)
	GetByEmail(ctx context.Context, merchantID uuid.UUID, email string) (*entities.Customer, error)
	List(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*entities.Customer, int64, error)
	Update(ctx context.Context, customer *entities.Customer) error
}
