package repository

import (
	"context"
	"time"

	"lifeos-backend/internal/item/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormItemRepository implements ItemRepository using GORM
type gormItemRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormItemRepository creates a new GORM-based ItemRepository.
// Schema migration is done by the caller (see database.Migrate).
func NewGormItemRepository(db *gorm.DB) ItemRepository {
	return &gormItemRepository{db: db, now: time.Now}
}

func (r *gormItemRepository) List(ctx context.Context, userID string, filter domain.Filter) ([]*domain.Item, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	var items []*domain.Item
	err := applyFilter(r.db.WithContext(ctx).Model(&domain.Item{}), userID, filter).
		Find(&items).Error
	if err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

// applyFilter narrows query to one user's items and the filter's constraints.
// Default ordering is creation time, newest first.
func applyFilter(query *gorm.DB, userID string, f domain.Filter) *gorm.DB {
	query = query.Where("user_id = ?", userID)
	if f.Type != "" {
		query = query.Where("type = ?", string(f.Type))
	}
	if len(f.StatusIn) > 0 {
		query = query.Where("status IN ?", statusStrings(f.StatusIn))
	}
	if len(f.StatusNotIn) > 0 {
		query = query.Where("status NOT IN ?", statusStrings(f.StatusNotIn))
	}
	if f.Urgency != "" {
		query = query.Where("urgency = ?", string(f.Urgency))
	}
	if f.DueFrom != nil {
		query = query.Where("due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		query = query.Where("due_date <= ?", *f.DueTo)
	}
	query = query.Order("created_at DESC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	return query
}

func statusStrings(in []domain.ItemStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func (r *gormItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *gormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := r.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.StatusNotStarted
	}
	item.CompletedAt = domain.CompletedAtFor(item.Status, now)
	if item.PeopleMentioned == nil {
		item.PeopleMentioned = []string{}
	}
	if item.Links == nil {
		item.Links = []string{}
	}
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

func (r *gormItemRepository) Update(ctx context.Context, id string, upd domain.ItemUpdate) (*domain.Item, error) {
	var updated *domain.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Item
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if err := upd.Validate(&current); err != nil {
			return err
		}
		now := r.now()
		res := tx.Model(&domain.Item{}).Where("id = ?", id).Updates(upd.Columns(&current, now))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		upd.Apply(&current, now)
		updated = &current
		return nil
	})
	if err != nil {
		if isValidation(err) {
			return nil, err
		}
		return nil, translateError(err)
	}
	return updated, nil
}

func (r *gormItemRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Item{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormItemRepository) FindPendingReminders(ctx context.Context, now time.Time) ([]*domain.Item, error) {
	var items []*domain.Item
	err := r.db.WithContext(ctx).
		Where("reminder_at <= ? AND reminder_sent = ? AND status != ?", now, false, string(domain.StatusComplete)).
		Find(&items).Error
	if err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

func (r *gormItemRepository) MarkReminderSent(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&domain.Item{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reminder_sent": true,
			"updated_at":    r.now(),
		}).Error
	return translateError(err)
}
