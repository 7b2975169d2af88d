package delivery

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lifeos-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middlewares
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			// EventSource cannot set headers; accept the token as a query parameter
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required", "reason": "unauthorized", "retryable": false})
			c.Abort()
			return
		}

		user, err := authUsecase.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "reason": "unauthorized", "retryable": false})
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Next()
	}
}

// CaptureAuthMiddleware accepts the static capture key (Bearer or X-API-Key)
// on behalf of ownerID, and otherwise falls back to JWT auth.
func CaptureAuthMiddleware(authUsecase usecase.AuthUsecase, captureKey string, ownerID func() string) gin.HandlerFunc {
	jwtAuth := AuthMiddleware(authUsecase)
	return func(c *gin.Context) {
		if captureKey != "" {
			presented := c.GetHeader("X-API-Key")
			if presented == "" {
				presented, _ = bearerToken(c)
			}
			if presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(captureKey)) == 1 {
				id := ownerID()
				if id == "" {
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": "owner account not initialised", "reason": "unauthorized", "retryable": true})
					c.Abort()
					return
				}
				c.Set(ContextUserID, id)
				c.Next()
				return
			}
		}
		jwtAuth(c)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
