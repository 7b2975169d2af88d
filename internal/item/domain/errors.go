package domain

import "errors"

// Failure reasons surfaced to callers. Adapters wrap these with context via %w.
var (
	ErrExtractionUnavailable    = errors.New("extraction unavailable")
	ErrExtractionMalformed      = errors.New("extraction returned malformed data")
	ErrStoreUnreachable         = errors.New("item store unreachable")
	ErrStoreRejected            = errors.New("item store rejected the request")
	ErrValidation               = errors.New("validation failed")
	ErrNotFound                 = errors.New("item not found")
	ErrInstructionNotUnderstood = errors.New("instruction not understood")
	ErrUnauthorized             = errors.New("unauthorized")
)

// Reason maps an error to its stable machine-readable reason
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtractionUnavailable):
		return "extraction_unavailable"
	case errors.Is(err, ErrExtractionMalformed):
		return "extraction_malformed"
	case errors.Is(err, ErrStoreUnreachable):
		return "store_unreachable"
	case errors.Is(err, ErrStoreRejected):
		return "store_rejected"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInstructionNotUnderstood):
		return "instruction_not_understood"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

// Retryable reports whether retrying the same request may succeed
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnreachable) || errors.Is(err, ErrExtractionUnavailable)
}
