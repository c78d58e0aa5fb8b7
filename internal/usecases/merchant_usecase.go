package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/crypto"
)

// MerchantUsecase handles merchant onboarding and account state
type MerchantUsecase struct {
	merchantRepo repositories.MerchantRepository
}

// NewMerchantUsecase creates a new merchant usecase
func NewMerchantUsecase(merchantRepo repositories.MerchantRepository) *MerchantUsecase {
	return &MerchantUsecase{merchantRepo: merchantRepo}
}

// CreateMerchant onboards a merchant. A platform-level webhook secret is
// generated for signing account events.
func (u *MerchantUsecase) CreateMerchant(ctx context.Context, input *entities.CreateMerchantInput) (*entities.Merchant, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domainerrors.BadRequest("email is required")
	}

	existing, err := u.merchantRepo.GetByEmail(ctx, email)
	if err != nil && err != domainerrors.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrAlreadyExists
	}

	secret, err := crypto.GenerateWebhookSecret()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	now := time.Now()
	merchant := &entities.Merchant{
		Name:          input.Name,
		Email:         email,
		WebhookSecret: "whsec_" + secret,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Country != "" {
		merchant.Country.SetValid(strings.ToUpper(input.Country))
	}

	if err := u.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

// GetMerchant returns a merchant by ID
func (u *MerchantUsecase) GetMerchant(ctx context.Context, id uuid.UUID) (*entities.Merchant, error) {
	return u.merchantRepo.GetByID(ctx, id)
}

// Deactivate disables a merchant. Existing payments remain readable but no
// new payments can be created.
func (u *MerchantUsecase) Deactivate(ctx context.Context, id uuid.UUID) error {
	return u.merchantRepo.SetActive(ctx, id, false)
}

// Activate re-enables a merchant
func (u *MerchantUsecase) Activate(ctx context.Context, id uuid.UUID) error {
	return u.merchantRepo.SetActive(ctx, id, true)
}

// SetAllowLargePayments toggles the large payment exemption for a merchant.
func (u *MerchantUsecase) SetAllowLargePayments(ctx context.Context, id uuid.UUID, allow bool) (*entities.Merchant, error) {
	merchant, err := u.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merchant.AllowLargePayments = allow
	merchant.UpdatedAt = time.Now()
	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}
