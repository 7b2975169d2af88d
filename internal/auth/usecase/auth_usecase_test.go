package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	authdomain "lifeos-backend/internal/auth/domain"
	authdto "lifeos-backend/internal/auth/dto"
	"lifeos-backend/internal/auth/repository"
	"lifeos-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*authdomain.User
	tokens map[string]*authdomain.RefreshToken
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*authdomain.User{}, tokens: map[string]*authdomain.RefreshToken{}}
}

func (r *memUserRepo) Create(_ context.Context, user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *memUserRepo) Update(_ context.Context, user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) ReplaceRefreshToken(_ context.Context, token *authdomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *memUserRepo) FindRefreshToken(_ context.Context, token string) (*authdomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[token], nil
}

func (r *memUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

type memFCMRepo struct {
	saved map[string]string
}

func (r *memFCMRepo) SaveToken(_ context.Context, userID, token, _ string) error {
	r.saved[token] = userID
	return nil
}

func (r *memFCMRepo) GetTokensByUserID(_ context.Context, userID string) ([]authdomain.FCMToken, error) {
	var out []authdomain.FCMToken
	for tok, uid := range r.saved {
		if uid == userID {
			out = append(out, authdomain.FCMToken{UserID: uid, Token: tok})
		}
	}
	return out, nil
}

func (r *memFCMRepo) DeleteToken(_ context.Context, token string) error {
	delete(r.saved, token)
	return nil
}

func (r *memFCMRepo) DeleteTokensByUserID(context.Context, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		OwnerEmail:       "Owner@Example.com",
		OwnerPassword:    "hunter22",
		OwnerName:        "Owner",
	}
}

func TestEnsureOwner_CreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	cfg := testConfig()
	uc := NewAuthUsecase(repo, nil, cfg)

	owner, err := uc.EnsureOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", owner.Email)
	assert.True(t, repository.CheckPasswordHash("hunter22", owner.Password))

	cfg.OwnerPassword = "newpassword"
	again, err := uc.EnsureOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)
	assert.True(t, repository.CheckPasswordHash("newpassword", again.Password))
}

func TestEnsureOwner_RequiresEmail(t *testing.T) {
	cfg := testConfig()
	cfg.OwnerEmail = ""
	_, err := NewAuthUsecase(newMemUserRepo(), nil, cfg).EnsureOwner(context.Background())
	assert.Error(t, err)
}

func TestLoginAndValidate(t *testing.T) {
	ctx := context.Background()
	uc := NewAuthUsecase(newMemUserRepo(), nil, testConfig())
	owner, err := uc.EnsureOwner(ctx)
	require.NoError(t, err)

	_, err = uc.Login(ctx, &authdto.LoginRequest{Email: "owner@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, &authdto.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	resp, err := uc.Login(ctx, &authdto.LoginRequest{Email: "owner@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	user, err := uc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)

	_, err = uc.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	uc := NewAuthUsecase(repo, nil, testConfig()).(*authUsecase)
	_, err := uc.EnsureOwner(ctx)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	uc.now = func() time.Time { return issued }
	resp, err := uc.Login(ctx, &authdto.LoginRequest{Email: "owner@example.com", Password: "hunter22"})
	require.NoError(t, err)

	uc.now = time.Now
	_, err = uc.ValidateToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestRefreshToken_IsSingleUse(t *testing.T) {
	ctx := context.Background()
	uc := NewAuthUsecase(newMemUserRepo(), nil, testConfig())
	_, err := uc.EnsureOwner(ctx)
	require.NoError(t, err)

	resp, err := uc.Login(ctx, &authdto.LoginRequest{Email: "owner@example.com", Password: "hunter22"})
	require.NoError(t, err)

	next, err := uc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)

	_, err = uc.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)

	require.NoError(t, uc.Logout(ctx, next.RefreshToken))
	_, err = uc.RefreshToken(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestFCMTokens(t *testing.T) {
	ctx := context.Background()
	fcmRepo := &memFCMRepo{saved: map[string]string{}}
	uc := NewAuthUsecase(newMemUserRepo(), fcmRepo, testConfig())

	require.NoError(t, uc.RegisterFCMToken(ctx, "u1", &authdto.RegisterFCMTokenRequest{Token: "device-a"}))
	assert.Equal(t, "u1", fcmRepo.saved["device-a"])

	require.NoError(t, uc.DeleteFCMToken(ctx, "device-a"))
	assert.Empty(t, fcmRepo.saved)
}
