package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authdomain "lifeos-backend/internal/auth/domain"
	authdto "lifeos-backend/internal/auth/dto"
	"lifeos-backend/internal/auth/repository"
	"lifeos-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	fcmRepo  repository.FCMTokenRepository
	config   *config.Config
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, fcmRepo repository.FCMTokenRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		fcmRepo:  fcmRepo,
		config:   cfg,
		now:      time.Now,
	}
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}

	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, authdomain.ErrInvalidCredentials
	}

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) EnsureOwner(ctx context.Context) (*authdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.config.OwnerEmail))
	if email == "" {
		return nil, errors.New("OWNER_EMAIL is not configured")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		if u.config.OwnerPassword == "" {
			return nil, errors.New("OWNER_PASSWORD is required to create the owner account")
		}
		hashed, err := repository.HashPassword(u.config.OwnerPassword)
		if err != nil {
			return nil, err
		}
		user = &authdomain.User{
			Email:    email,
			Password: hashed,
			Name:     u.config.OwnerName,
		}
		if err := u.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create owner: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("[Auth] Owner account created")
		return user, nil
	}

	// Rotating OWNER_PASSWORD in the environment takes effect on next start
	changed := false
	if u.config.OwnerPassword != "" && !repository.CheckPasswordHash(u.config.OwnerPassword, user.Password) {
		hashed, err := repository.HashPassword(u.config.OwnerPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
		changed = true
	}
	if u.config.OwnerName != "" && user.Name != u.config.OwnerName {
		user.Name = u.config.OwnerName
		changed = true
	}
	if changed {
		if err := u.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		log.Info().Str("user_id", user.ID).Msg("[Auth] Owner account updated from configuration")
	}
	return user, nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error) {
	userID, err := u.parseUserID(refreshToken)
	if err != nil {
		return nil, err
	}

	// Check if token exists in repository
	storedToken, err := u.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(u.now()) {
		return nil, authdomain.ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}

	// Single use: the presented token is consumed
	if err := u.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	return u.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	userID, err := u.parseUserID(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}

	return user, nil
}

func (u *authUsecase) RegisterFCMToken(ctx context.Context, userID string, req *authdto.RegisterFCMTokenRequest) error {
	if u.fcmRepo == nil {
		return errors.New("push notifications are not configured")
	}
	return u.fcmRepo.SaveToken(ctx, userID, req.Token, req.DeviceInfo)
}

func (u *authUsecase) DeleteFCMToken(ctx context.Context, token string) error {
	if u.fcmRepo == nil {
		return nil
	}
	return u.fcmRepo.DeleteToken(ctx, token)
}

func (u *authUsecase) parseUserID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithTimeFunc(u.now))

	if err != nil || !token.Valid {
		return "", authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", authdomain.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", authdomain.ErrInvalidToken
	}
	return userID, nil
}

func (u *authUsecase) generateTokens(ctx context.Context, user *authdomain.User) (*authdto.TokenResponse, error) {
	now := u.now()

	// Generate access token
	accessToken, err := u.sign(jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     now.Unix(),
	})
	if err != nil {
		return nil, err
	}

	// Generate refresh token
	refreshToken, err := u.sign(jwt.MapClaims{
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      now.Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      now.Unix(),
	})
	if err != nil {
		return nil, err
	}

	// Store refresh token
	if err := u.userRepo.ReplaceRefreshToken(ctx, &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.config.JWTRefreshExpiry),
	}); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

func (u *authUsecase) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}
