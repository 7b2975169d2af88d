package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/pkg/ai"
	"lifeos-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

func (u *itemUsecase) ApplyInstruction(ctx context.Context, userID, itemID, instruction string) (*domain.Item, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("%w: instruction is empty", domain.ErrValidation)
	}

	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	now := u.localNow()
	set, source, err := u.editSet(ctx, current, instruction, now)
	if err != nil {
		metrics.EditsTotal.WithLabelValues("not_understood").Inc()
		return nil, err
	}

	kept, dropped := domain.FilterEditableKeys(set)
	if len(dropped) > 0 {
		log.Debug().Strs("keys", dropped).Msg("[Edit] Dropped non-editable keys")
	}
	if len(kept) == 0 {
		metrics.EditsTotal.WithLabelValues("not_understood").Inc()
		return nil, domain.ErrInstructionNotUnderstood
	}

	upd, err := domain.EditSetToUpdate(kept, u.loc)
	if err != nil {
		metrics.EditsTotal.WithLabelValues("not_understood").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrInstructionNotUnderstood, err)
	}
	if err := upd.Validate(current); err != nil {
		metrics.EditsTotal.WithLabelValues("not_understood").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrInstructionNotUnderstood, err)
	}

	updated, err := u.Update(ctx, userID, itemID, upd)
	if err != nil {
		metrics.EditsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.EditsTotal.WithLabelValues(source).Inc()
	return updated, nil
}

// editSet asks the extraction collaborator for the sparse update and falls
// back to phrase matching only when it is unavailable.
func (u *itemUsecase) editSet(ctx context.Context, current *domain.Item, instruction string, now time.Time) (map[string]interface{}, string, error) {
	if u.extractor != nil {
		start := time.Now()
		set, err := u.extractor.ExtractEdit(ctx, ai.EditRequest{
			ItemID:      current.ID,
			Instruction: instruction,
			CurrentItem: current,
		}, now)
		metrics.ExtractionDuration.WithLabelValues("edit").Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			return set, "extracted", nil
		case ctx.Err() != nil:
			return nil, "", ctx.Err()
		case errors.Is(err, ai.ErrUnavailable):
			log.Warn().Err(err).Msg("[Edit] Extraction unavailable, using phrase fallback")
		default:
			log.Warn().Err(err).Msg("[Edit] Malformed edit output")
			return nil, "", fmt.Errorf("%w: %v", domain.ErrInstructionNotUnderstood, err)
		}
	}
	return ParseInstruction(instruction, now), "fallback", nil
}

var (
	reopenPhrases      = regexp.MustCompile(`\b(not done|not complete|incomplete|reopen|undo|mark as not started|not started)\b`)
	completePhrases    = regexp.MustCompile(`\b(complete|completed|done|finished|finish|check off)\b`)
	progressPhrases    = regexp.MustCompile(`\b(in progress|started|start working|working on)\b`)
	notUrgentPhrases   = regexp.MustCompile(`\b(not urgent|low urgency|low priority|whenever)\b`)
	urgentPhrases      = regexp.MustCompile(`\b(urgent|high urgency|high priority|asap|important)\b`)
	mediumPhrases      = regexp.MustCompile(`\b(medium urgency|medium priority|normal priority)\b`)
	tomorrowPhrase     = regexp.MustCompile(`\btomorrow\b`)
	clearDueDatePhrase = regexp.MustCompile(`\b(no due date|remove (the )?due date|clear (the )?due date)\b`)
)

// FallbackDueHour is the local hour used when "tomorrow" carries no time
const FallbackDueHour = 9

// ParseInstruction matches a few literal phrases to a best-effort edit set.
// It returns an empty set when nothing matches.
func ParseInstruction(instruction string, now time.Time) map[string]interface{} {
	text := strings.ToLower(strings.TrimSpace(instruction))
	set := map[string]interface{}{}

	switch {
	case reopenPhrases.MatchString(text):
		set["status"] = string(domain.StatusNotStarted)
	case progressPhrases.MatchString(text):
		set["status"] = string(domain.StatusInProgress)
	case completePhrases.MatchString(text):
		set["status"] = string(domain.StatusComplete)
	}

	switch {
	case notUrgentPhrases.MatchString(text):
		set["urgency"] = string(domain.UrgencyLow)
	case urgentPhrases.MatchString(text):
		set["urgency"] = string(domain.UrgencyHigh)
	case mediumPhrases.MatchString(text):
		set["urgency"] = string(domain.UrgencyMedium)
	}

	switch {
	case clearDueDatePhrase.MatchString(text):
		set["due_date"] = nil
	case tomorrowPhrase.MatchString(text):
		d := now.AddDate(0, 0, 1)
		due := time.Date(d.Year(), d.Month(), d.Day(), FallbackDueHour, 0, 0, 0, now.Location())
		set["due_date"] = due.Format(time.RFC3339)
	}

	return set
}
