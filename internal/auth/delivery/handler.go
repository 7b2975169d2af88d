package delivery

import (
	"errors"
	"net/http"

	authdomain "lifeos-backend/internal/auth/domain"
	authdto "lifeos-backend/internal/auth/dto"
	"lifeos-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation", "retryable": false})
		return
	}

	resp, err := h.authUsecase.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation", "retryable": false})
		return
	}

	resp, err := h.authUsecase.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation", "retryable": false})
		return
	}
	if err := h.authUsecase.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := c.Get(ContextUser)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": "unauthorized", "retryable": false})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) RegisterFCMToken(c *gin.Context) {
	var req authdto.RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "validation", "retryable": false})
		return
	}
	if err := h.authUsecase.RegisterFCMToken(c.Request.Context(), c.GetString(ContextUserID), &req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token registered"})
}

func (h *AuthHandler) UnregisterFCMToken(c *gin.Context) {
	if err := h.authUsecase.DeleteFCMToken(c.Request.Context(), c.Param("token")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "reason": "unauthorized", "retryable": false})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[Auth] Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "reason": "internal", "retryable": false})
	}
}
