package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	authdomain "lifeos-backend/internal/auth/domain"

	"github.com/google/uuid"
)

// MemoryUserRepository keeps users, refresh tokens and device tokens in
// process memory. It backs `serve --memory`.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*authdomain.User
	refresh map[string]*authdomain.RefreshToken
	devices map[string]authdomain.FCMToken
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]*authdomain.User),
		refresh: make(map[string]*authdomain.RefreshToken),
		devices: make(map[string]authdomain.FCMToken),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("email already registered")
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*authdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*authdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return authdomain.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) ReplaceRefreshToken(_ context.Context, token *authdomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for k, t := range r.refresh {
		if t.UserID == token.UserID && t.ExpiresAt.Before(now) {
			delete(r.refresh, k)
		}
	}
	cp := *token
	r.refresh[token.Token] = &cp
	return nil
}

func (r *MemoryUserRepository) FindRefreshToken(_ context.Context, token string) (*authdomain.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.refresh[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) DeleteRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refresh, token)
	return nil
}

// Devices returns an FCMTokenRepository sharing this repository's storage
func (r *MemoryUserRepository) Devices() FCMTokenRepository {
	return memoryDevices{r}
}

type memoryDevices struct {
	r *MemoryUserRepository
}

func (d memoryDevices) SaveToken(_ context.Context, userID, token, deviceInfo string) error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	now := time.Now()
	existing, ok := d.r.devices[token]
	if !ok {
		existing = authdomain.FCMToken{ID: uuid.New().String(), Token: token, CreatedAt: now}
	}
	existing.UserID = userID
	existing.DeviceInfo = deviceInfo
	existing.UpdatedAt = now
	d.r.devices[token] = existing
	return nil
}

func (d memoryDevices) GetTokensByUserID(_ context.Context, userID string) ([]authdomain.FCMToken, error) {
	d.r.mu.RLock()
	defer d.r.mu.RUnlock()
	var out []authdomain.FCMToken
	for _, t := range d.r.devices {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d memoryDevices) DeleteToken(_ context.Context, token string) error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	delete(d.r.devices, token)
	return nil
}

func (d memoryDevices) DeleteTokensByUserID(_ context.Context, userID string) error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	for k, t := range d.r.devices {
		if t.UserID == userID {
			delete(d.r.devices, k)
		}
	}
	return nil
}
