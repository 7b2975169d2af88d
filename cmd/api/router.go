package api

import (
	authDelivery "lifeos-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authMW := authDelivery.AuthMiddleware(h.authUsecase)
	authHandler := h.authHandler
	itemHandler := h.itemHandler

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", h.health)

		// SSE endpoint
		api.GET("/events", authMW, func(c *gin.Context) {
			userID := c.GetString(authDelivery.ContextUserID)
			h.sseManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authMW, authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authMW)
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Capture accepts the static capture key as well as a session token
		api.POST("/capture",
			authDelivery.CaptureAuthMiddleware(h.authUsecase, h.config.CaptureAPIKey, h.ownerID),
			h.captureLimiter.Middleware(),
			itemHandler.Capture,
		)

		// Item routes (protected)
		items := api.Group("/items")
		items.Use(authMW)
		{
			items.GET("", itemHandler.ListItems)
			items.POST("", itemHandler.CreateItem)
			items.GET("/:id", itemHandler.GetItem)
			items.PATCH("/:id", itemHandler.UpdateItem)
			items.DELETE("/:id", itemHandler.DeleteItem)
			items.PATCH("/:id/status", itemHandler.SetStatus)
			items.POST("/:id/toggle-complete", itemHandler.ToggleComplete)
			items.POST("/:id/links", itemHandler.AddLink)
			items.DELETE("/:id/links", itemHandler.RemoveLink)
			items.POST("/:id/instruct", itemHandler.ApplyInstruction)
		}

		// View routes (protected)
		api.GET("/views/:view", authMW, itemHandler.GetView)

		// Search routes (protected)
		search := api.Group("/search")
		search.Use(authMW)
		{
			search.GET("", itemHandler.Search)
			search.POST("/semantic", itemHandler.SemanticSearch)
		}

		// Settings routes (protected) - Runtime configuration
		settings := api.Group("/settings")
		settings.Use(authMW)
		{
			settings.GET("/ollama", h.settingsHandler.GetOllamaSettings)
			settings.PUT("/ollama", h.settingsHandler.UpdateOllamaSettings)
			settings.POST("/ollama/test", h.settingsHandler.TestOllamaConnection)
		}
	}
}
