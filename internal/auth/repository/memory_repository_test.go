package repository

import (
	"context"
	"testing"
	"time"

	authdomain "lifeos-backend/internal/auth/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := &authdomain.User{Email: "me@example.com", Name: "Me"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Error(t, repo.Create(ctx, &authdomain.User{Email: "me@example.com"}))

	found, err := repo.FindByEmail(ctx, "me@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	found.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, found))
	again, _ := repo.FindByID(ctx, user.ID)
	assert.Equal(t, "Renamed", again.Name)
	assert.ErrorIs(t, repo.Update(ctx, &authdomain.User{ID: "nope"}), authdomain.ErrUserNotFound)
}

func TestMemoryUserRepository_RefreshTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	require.NoError(t, repo.ReplaceRefreshToken(ctx, &authdomain.RefreshToken{Token: "old", UserID: "u", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.ReplaceRefreshToken(ctx, &authdomain.RefreshToken{Token: "new", UserID: "u", ExpiresAt: time.Now().Add(time.Hour)}))

	old, err := repo.FindRefreshToken(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old, "expired tokens are purged on replace")

	tok, err := repo.FindRefreshToken(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, tok)

	require.NoError(t, repo.DeleteRefreshToken(ctx, "new"))
	tok, _ = repo.FindRefreshToken(ctx, "new")
	assert.Nil(t, tok)
}

func TestMemoryDevices(t *testing.T) {
	ctx := context.Background()
	devices := NewMemoryUserRepository().Devices()

	require.NoError(t, devices.SaveToken(ctx, "u1", "t1", "phone"))
	require.NoError(t, devices.SaveToken(ctx, "u1", "t2", "laptop"))
	require.NoError(t, devices.SaveToken(ctx, "u2", "t1", "phone"))

	tokens, err := devices.GetTokensByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tokens, 1, "re-registering a token moves it to the new user")

	require.NoError(t, devices.DeleteTokensByUserID(ctx, "u1"))
	tokens, _ = devices.GetTokensByUserID(ctx, "u1")
	assert.Empty(t, tokens)

	require.NoError(t, devices.DeleteToken(ctx, "t1"))
	tokens, _ = devices.GetTokensByUserID(ctx, "u2")
	assert.Empty(t, tokens)
}
