package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	authrepo "lifeos-backend/internal/auth/repository"
	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/repository"
	"lifeos-backend/pkg/fcm"
	"lifeos-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// ReminderScheduler sends push reminders for items whose reminder_at has passed
type ReminderScheduler struct {
	itemRepo    repository.ItemRepository
	fcmRepo     authrepo.FCMTokenRepository
	sender      fcm.Sender
	loc         *time.Location
	frontendURL string
	interval    time.Duration
	now         func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewReminderScheduler creates a new scheduler
func NewReminderScheduler(
	itemRepo repository.ItemRepository,
	fcmRepo authrepo.FCMTokenRepository,
	sender fcm.Sender,
	loc *time.Location,
	frontendURL string,
) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderScheduler{
		itemRepo:    itemRepo,
		fcmRepo:     fcmRepo,
		sender:      sender,
		loc:         loc,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		interval:    time.Minute, // Check every minute
		now:         time.Now,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ReminderScheduler) Start() {
	if s.sender == nil {
		log.Info().Msg("[ReminderScheduler] Push messaging not available, scheduler disabled")
		close(s.done)
		return
	}

	log.Info().Dur("interval", s.interval).Msg("[ReminderScheduler] Starting")

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.RunOnce(context.Background())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stopChan:
				log.Info().Msg("[ReminderScheduler] Stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler and waits for the loop to exit
func (s *ReminderScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

// RunOnce finds due reminders and sends them. It returns how many were processed.
func (s *ReminderScheduler) RunOnce(ctx context.Context) int {
	items, err := s.itemRepo.FindPendingReminders(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("[ReminderScheduler] Error finding pending reminders")
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	log.Info().Int("count", len(items)).Msg("[ReminderScheduler] Pending reminders found")

	for _, item := range items {
		s.remind(ctx, item)

		// Mark reminder as sent regardless of delivery to avoid spamming
		if err := s.itemRepo.MarkReminderSent(ctx, item.ID); err != nil {
			log.Error().Err(err).Str("item_id", item.ID).Msg("[ReminderScheduler] Error marking reminder as sent")
		}
	}
	return len(items)
}

func (s *ReminderScheduler) remind(ctx context.Context, item *domain.Item) {
	tokens, err := s.fcmRepo.GetTokensByUserID(ctx, item.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", item.UserID).Msg("[ReminderScheduler] Error getting device tokens")
		return
	}
	if len(tokens) == 0 {
		log.Debug().Str("user_id", item.UserID).Msg("[ReminderScheduler] No device tokens")
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.sender.SendToDevices(ctx, tokenStrings, s.Notification(item))
	if err != nil {
		log.Error().Err(err).Str("item_id", item.ID).Msg("[ReminderScheduler] Error sending reminder")
		return
	}

	metrics.RemindersSentTotal.Inc()
	log.Info().
		Str("item_id", item.ID).
		Int("devices", len(tokenStrings)-len(failed)).
		Msg("[ReminderScheduler] Reminder sent")

	// Cleanup failed tokens
	for _, token := range failed {
		if err := s.fcmRepo.DeleteToken(ctx, token); err != nil {
			log.Warn().Err(err).Msg("[ReminderScheduler] Failed to delete stale token")
		}
	}
}

// Notification renders the push content for an item
func (s *ReminderScheduler) Notification(item *domain.Item) fcm.Notification {
	title := "Reminder: " + item.Title
	if item.Urgency == domain.UrgencyHigh {
		title = "Urgent: " + item.Title
	}

	body := item.Description
	if body == "" {
		body = fmt.Sprintf("Your %s is coming up", item.Type)
	}
	if item.DueDate != nil {
		due := item.DueDate.In(s.loc)
		body = fmt.Sprintf("%s\nDue %s", body, due.Format("Mon Jan 2, 3:04 PM"))
	}
	if item.Location != "" {
		body = fmt.Sprintf("%s\n%s", body, item.Location)
	}

	n := fcm.Notification{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":    "item_reminder",
			"item_id": item.ID,
			"urgency": string(item.Urgency),
		},
	}
	if s.frontendURL != "" {
		n.Link = s.frontendURL + "/items/" + item.ID
	}
	return n
}
