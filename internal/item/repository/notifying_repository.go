package repository

import (
	"context"
	"time"

	"lifeos-backend/internal/item/changefeed"
	"lifeos-backend/internal/item/domain"
)

// notifyingRepository publishes a table-wide change after every successful mutation
type notifyingRepository struct {
	ItemRepository
	feed *changefeed.Feed
}

// NewNotifyingRepository wraps inner so that subscribers of feed observe
// every committed create, update and delete.
func NewNotifyingRepository(inner ItemRepository, feed *changefeed.Feed) ItemRepository {
	return &notifyingRepository{ItemRepository: inner, feed: feed}
}

func (r *notifyingRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := r.ItemRepository.Create(ctx, item); err != nil {
		return err
	}
	r.feed.Publish(changefeed.Change{Op: changefeed.OpInsert, ItemID: item.ID, UserID: item.UserID})
	return nil
}

func (r *notifyingRepository) Update(ctx context.Context, id string, upd domain.ItemUpdate) (*domain.Item, error) {
	item, err := r.ItemRepository.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	r.feed.Publish(changefeed.Change{Op: changefeed.OpUpdate, ItemID: item.ID, UserID: item.UserID})
	return item, nil
}

func (r *notifyingRepository) Delete(ctx context.Context, id string) error {
	// user id is looked up first so subscribers can route the change
	var userID string
	if item, err := r.ItemRepository.FindByID(ctx, id); err == nil {
		userID = item.UserID
	}
	if err := r.ItemRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.feed.Publish(changefeed.Change{Op: changefeed.OpDelete, ItemID: id, UserID: userID})
	return nil
}

func (r *notifyingRepository) MarkReminderSent(ctx context.Context, id string) error {
	if err := r.ItemRepository.MarkReminderSent(ctx, id); err != nil {
		return err
	}
	r.feed.Publish(changefeed.Change{Op: changefeed.OpUpdate, ItemID: id, At: time.Now()})
	return nil
}
