package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	authdomain "lifeos-backend/internal/auth/domain"
	authRepo "lifeos-backend/internal/auth/repository"
	authUsecase "lifeos-backend/internal/auth/usecase"
	"lifeos-backend/internal/item/changefeed"
	itemdomain "lifeos-backend/internal/item/domain"
	itemRepo "lifeos-backend/internal/item/repository"
	"lifeos-backend/pkg/config"
	"lifeos-backend/pkg/database"
	"lifeos-backend/pkg/gmail"
	"lifeos-backend/pkg/logging"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// models lists every table managed by AutoMigrate
var models = []interface{}{
	&authdomain.User{},
	&authdomain.RefreshToken{},
	&authdomain.FCMToken{},
	&itemdomain.Item{},
}

// app holds the stores and use cases shared by every command
type app struct {
	cfg  *config.Config
	db   *gorm.DB
	feed *changefeed.Feed

	items     itemRepo.ItemRepository
	users     authRepo.UserRepository
	fcmTokens authRepo.FCMTokenRepository
	auth      authUsecase.AuthUsecase

	mu    sync.RWMutex
	owner string
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

// newApp opens the stores. With memory set nothing touches the database.
func newApp(cfg *config.Config, memory bool) (*app, error) {
	a := &app{
		cfg:  cfg,
		feed: changefeed.New(cfg.InstanceID),
	}

	var items itemRepo.ItemRepository
	if memory {
		log.Warn().Msg("[App] Using in-memory stores, data is lost on exit")
		users := authRepo.NewMemoryUserRepository()
		a.users = users
		a.fcmTokens = users.Devices()
		items = itemRepo.NewMemoryItemRepository()
	} else {
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, models...); err != nil {
			return nil, err
		}
		a.db = db
		a.users = authRepo.NewUserRepository(db)
		a.fcmTokens = authRepo.NewFCMTokenRepository(db)
		items = itemRepo.NewGormItemRepository(db)
	}

	// Every committed mutation is announced on the feed
	a.items = itemRepo.NewNotifyingRepository(items, a.feed)
	a.auth = authUsecase.NewAuthUsecase(a.users, a.fcmTokens, cfg)
	return a, nil
}

// ensureOwner bootstraps the single owner account and remembers its id
func (a *app) ensureOwner(ctx context.Context) error {
	user, err := a.auth.EnsureOwner(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.owner = user.ID
	a.mu.Unlock()
	return nil
}

func (a *app) ownerID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

func (a *app) healthCheck(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return database.Ping(ctx, a.db)
}

// mailer returns the Gmail sender, or a logging stand-in when OAuth is not configured
func (a *app) mailer(ctx context.Context) gmail.Mailer {
	svc, err := gmail.NewService(ctx, a.cfg.GoogleClientID, a.cfg.GoogleClientSecret, a.cfg.GoogleRefreshToken)
	if err != nil {
		if !errors.Is(err, gmail.ErrNotConfigured) {
			log.Warn().Err(err).Msg("[App] Gmail unavailable, digests will be logged")
		}
		return gmail.LogMailer{}
	}
	return svc
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
