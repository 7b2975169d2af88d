package usecase

import (
	"context"

	authdomain "lifeos-backend/internal/auth/domain"
	authdto "lifeos-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication business logic
type AuthUsecase interface {
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*authdomain.User, error)
	// EnsureOwner creates or refreshes the configured owner account and returns it
	EnsureOwner(ctx context.Context) (*authdomain.User, error)

	RegisterFCMToken(ctx context.Context, userID string, req *authdto.RegisterFCMTokenRequest) error
	DeleteFCMToken(ctx context.Context, token string) error
}
