package repository

import (
	"context"
	"time"

	"lifeos-backend/internal/item/domain"
)

// ItemRepository defines the data access contract for items.
// Every failure is one of the typed domain errors (not found, store
// unreachable, store rejected, validation); callers never see driver errors.
type ItemRepository interface {
	// List returns the user's items matching filter, newest first
	List(ctx context.Context, userID string, filter domain.Filter) ([]*domain.Item, error)

	// FindByID returns domain.ErrNotFound when the id is unknown
	FindByID(ctx context.Context, id string) (*domain.Item, error)

	// Create assigns id and timestamps and inserts the item
	Create(ctx context.Context, item *domain.Item) error

	// Update applies a sparse field update and returns the stored result.
	// completed_at is derived from status here, never taken from the caller.
	Update(ctx context.Context, id string, upd domain.ItemUpdate) (*domain.Item, error)

	// Delete removes the item permanently
	Delete(ctx context.Context, id string) error

	// FindPendingReminders returns items where reminder_at <= now,
	// reminder_sent = false and status != complete
	FindPendingReminders(ctx context.Context, now time.Time) ([]*domain.Item, error)

	// MarkReminderSent flags the reminder as delivered
	MarkReminderSent(ctx context.Context, id string) error
}
