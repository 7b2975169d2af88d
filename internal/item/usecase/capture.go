package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/pkg/ai"
	"lifeos-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

func (u *itemUsecase) Capture(ctx context.Context, userID, text string) (*domain.Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: capture text is empty", domain.ErrValidation)
	}

	now := u.localNow()
	item, outcome, err := u.extract(ctx, text, now)
	if err != nil {
		metrics.CapturesTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}

	item.UserID = userID
	if item.ReminderAt == nil {
		item.ReminderAt = defaultReminder(item.DueDate, now)
	}

	if err := u.repo.Create(ctx, item); err != nil {
		metrics.CapturesTotal.WithLabelValues("failed").Inc()
		return nil, u.storeErr(err)
	}
	metrics.CapturesTotal.WithLabelValues(outcome).Inc()

	log.Info().
		Str("item_id", item.ID).
		Str("type", string(item.Type)).
		Str("outcome", outcome).
		Msg("[Capture] Item created")

	u.afterSave(item)
	return item, nil
}

// extract runs the extraction collaborator and validates its candidate.
// Unavailability degrades to the fallback task; malformed output is an error.
func (u *itemUsecase) extract(ctx context.Context, text string, now time.Time) (*domain.Item, string, error) {
	if u.extractor == nil {
		return domain.FallbackItem(text), "fallback", nil
	}

	start := time.Now()
	raw, err := u.extractor.ExtractItem(ctx, text, now)
	metrics.ExtractionDuration.WithLabelValues("capture").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
	case errors.Is(err, ai.ErrUnavailable):
		log.Warn().Err(err).Msg("[Capture] Extraction unavailable, using fallback")
		return domain.FallbackItem(text), "fallback", nil
	case errors.Is(err, ai.ErrMalformed):
		return nil, "malformed", fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
	default:
		// Caller cancellation and anything unexpected
		if ctx.Err() != nil {
			return nil, "failed", ctx.Err()
		}
		log.Warn().Err(err).Msg("[Capture] Extraction failed, using fallback")
		return domain.FallbackItem(text), "fallback", nil
	}

	candidate, err := domain.ValidateCandidate(candidateFrom(raw), u.loc)
	if err != nil {
		log.Warn().Err(err).Msg("[Capture] Rejected extraction candidate")
		return nil, "malformed", err
	}
	return domain.NewItemFromCandidate(candidate), "extracted", nil
}

func candidateFrom(c *ai.ItemCandidate) domain.RawCandidate {
	if c == nil {
		return domain.RawCandidate{}
	}
	return domain.RawCandidate{
		Type:            c.Type,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Subcategory:     c.Subcategory,
		Urgency:         c.Urgency,
		DueDate:         c.DueDate,
		PeopleMentioned: c.PeopleMentioned,
		Location:        c.Location,
	}
}
