package usecases

import (
	"context"

	"defiant.backend/internal/domain/entities"
	domainerrors "defiant.backend/internal/domain/errors"
	"defiant.backend/internal/domain/repositories"
	"defiant.backend/pkg/jwt"
)

// AuthUsecase issues dashboard sessions. A merchant exchanges an admin API
// key for a short-lived JWT pair used by the dashboard endpoints.
type AuthUsecase struct {
	apiKeyUsecase *ApiKeyUsecase
	merchantRepo  repositories.MerchantRepository
	jwtService    *jwt.JWTService
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(apiKeyUsecase *ApiKeyUsecase, merchantRepo repositories.MerchantRepository, jwtService *jwt.JWTService) *AuthUsecase {
	return &AuthUsecase{
		apiKeyUsecase: apiKeyUsecase,
		merchantRepo:  merchantRepo,
		jwtService:    jwtService,
	}
}

// Login exchanges an admin-scoped API key for a JWT token pair.
func (u *AuthUsecase) Login(ctx context.Context, apiKey string) (*jwt.TokenPair, error) {
	key, err := u.apiKeyUsecase.ValidateKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if !key.HasPermission(entities.PermissionAdmin) {
		return nil, domainerrors.Forbidden("dashboard sessions require an admin key")
	}

	merchant, err := u.merchantRepo.GetByID(ctx, key.MerchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.Active {
		return nil, domainerrors.ErrMerchantNotActive
	}

	return u.jwtService.GenerateTokenPair(merchant.ID, merchant.Email)
}

// Refresh exchanges a valid refresh token for a new pair.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid refresh token")
	}

	merchant, err := u.merchantRepo.GetByID(ctx, claims.MerchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.Active {
		return nil, domainerrors.ErrMerchantNotActive
	}

	return u.jwtService.GenerateTokenPair(merchant.ID, merchant.Email)
}
