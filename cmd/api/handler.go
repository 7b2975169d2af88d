package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	authDelivery "lifeos-backend/internal/auth/delivery"
	authUsecase "lifeos-backend/internal/auth/usecase"
	itemDelivery "lifeos-backend/internal/item/delivery"
	itemUsecase "lifeos-backend/internal/item/usecase"
	"lifeos-backend/pkg/ai"
	"lifeos-backend/pkg/config"
	"lifeos-backend/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	AuthUsecase authUsecase.AuthUsecase
	ItemUsecase itemUsecase.ItemUsecase
	SSEManager  *sse.Manager
	Settings    *ai.RuntimeSettings
	Config      *config.Config
	// OwnerID resolves the account the capture key acts for
	OwnerID func() string
	// HealthCheck reports store reachability; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	authHandler     *authDelivery.AuthHandler
	itemHandler     *itemDelivery.ItemHandler
	settingsHandler *SettingsHandler
	captureLimiter  *itemDelivery.RateLimiter
	sseManager      *sse.Manager
	config          *config.Config
	ownerID         func() string
	healthCheck     func(ctx context.Context) error

	server *http.Server
}

func NewHandler(deps Dependencies) *Handler {
	cfg := deps.Config
	settings := deps.Settings
	if settings == nil {
		settings = ai.NewRuntimeSettings(cfg.OllamaBaseURL, cfg.OllamaModel)
	}
	ownerID := deps.OwnerID
	if ownerID == nil {
		ownerID = func() string { return "" }
	}

	return &Handler{
		authUsecase:     deps.AuthUsecase,
		authHandler:     authDelivery.NewAuthHandler(deps.AuthUsecase),
		itemHandler:     itemDelivery.NewItemHandler(deps.ItemUsecase, cfg.Location),
		settingsHandler: NewSettingsHandler(settings),
		captureLimiter:  itemDelivery.NewRateLimiter(cfg.CaptureRatePerMin, cfg.CaptureBurst),
		sseManager:      deps.SSEManager,
		config:          cfg,
		ownerID:         ownerID,
		healthCheck:     deps.HealthCheck,
	}
}

// Engine builds the gin engine with CORS and every route installed
func (h *Handler) Engine() *gin.Engine {
	if h.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h)
	return r
}

// Start serves on addr until Shutdown is called
func (h *Handler) Start(addr string) error {
	h.server = &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("[Server] Listening")
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *Handler) health(c *gin.Context) {
	if h.healthCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.healthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// The event stream stays open for the whole session
		if c.FullPath() == "/api/events" {
			return
		}
		evt := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("[HTTP] Request")
	}
}
