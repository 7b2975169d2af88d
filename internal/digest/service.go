package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/repository"
	"lifeos-backend/pkg/gmail"
	"lifeos-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// Service builds briefs from the item store and mails them
type Service struct {
	items     repository.ItemRepository
	mailer    gmail.Mailer
	loc       *time.Location
	sender    string
	recipient string
	now       func() time.Time
}

// NewService creates a digest service. A nil mailer logs briefs instead of sending them.
func NewService(items repository.ItemRepository, mailer gmail.Mailer, loc *time.Location, sender, recipient string) *Service {
	if mailer == nil {
		mailer = gmail.LogMailer{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		items:     items,
		mailer:    mailer,
		loc:       loc,
		sender:    sender,
		recipient: recipient,
		now:       time.Now,
	}
}

// Build assembles a brief for userID as of now
func (s *Service) Build(ctx context.Context, userID string, kind Kind) (*Brief, error) {
	items, err := s.items.List(ctx, userID, domain.Filter{
		StatusNotIn: []domain.ItemStatus{domain.StatusComplete},
	})
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	switch kind {
	case KindMorning:
		return BuildMorning(items, now), nil
	case KindNight:
		return BuildNight(items, now), nil
	}
	return nil, fmt.Errorf("%w: unknown digest kind %q", domain.ErrValidation, kind)
}

// Send builds and delivers a brief, returning the rendered text
func (s *Service) Send(ctx context.Context, userID string, kind Kind) (string, error) {
	brief, err := s.Build(ctx, userID, kind)
	if err != nil {
		metrics.DigestsTotal.WithLabelValues(string(kind), "build_failed").Inc()
		return "", err
	}

	body := Format(brief)
	msg := gmail.Message{
		FromName: "Life OS",
		From:     s.sender,
		To:       splitRecipients(s.recipient),
		Subject:  Subject(brief),
		Body:     body,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.DigestsTotal.WithLabelValues(string(kind), "send_failed").Inc()
		return body, fmt.Errorf("failed to send %s digest: %w", kind, err)
	}

	metrics.DigestsTotal.WithLabelValues(string(kind), "sent").Inc()
	log.Info().
		Str("kind", string(kind)).
		Int("events", len(brief.Events)+len(brief.TomorrowEvents)).
		Msg("[Digest] Brief sent")
	return body, nil
}

func splitRecipients(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
