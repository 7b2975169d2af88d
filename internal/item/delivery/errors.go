package delivery

import (
	"errors"
	"net/http"

	"lifeos-backend/internal/item/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatusFor maps a typed failure to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreRejected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInstructionNotUnderstood):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrExtractionMalformed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrExtractionUnavailable), errors.Is(err, domain.ErrStoreUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders {"error", "reason", "retryable"}. Internal errors
// are logged and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[ItemHandler] Unhandled error")
		msg = "internal error"
	}
	c.JSON(status, gin.H{
		"error":     msg,
		"reason":    domain.Reason(err),
		"retryable": domain.Retryable(err),
	})
}
