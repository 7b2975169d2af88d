package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeos-backend/internal/item/domain"

	"github.com/google/uuid"
)

// MemoryItemRepository keeps items in process memory. It backs the
// --memory development mode and stands in for PostgreSQL in tests.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
	seq   map[string]int64 // insertion order breaks created_at ties
	next  int64
	err   error
	now   func() time.Time
}

// NewMemoryItemRepository creates an empty repository
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items: make(map[string]*domain.Item),
		seq:   make(map[string]int64),
		now:   time.Now,
	}
}

// FailWith makes every subsequent call return err; nil restores normal operation
func (r *MemoryItemRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// SetClock replaces the timestamp source
func (r *MemoryItemRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryItemRepository) List(_ context.Context, userID string, filter domain.Filter) ([]*domain.Item, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, r.err
	}

	out := make([]*domain.Item, 0)
	for _, item := range r.items {
		if userID != "" && item.UserID != userID {
			continue
		}
		if filter.Matches(item) {
			out = append(out, item.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryItemRepository) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *MemoryItemRepository) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, exists := r.items[item.ID]; exists {
		return domain.ErrStoreRejected
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
	r.next++
	r.seq[item.ID] = r.next
	r.items[item.ID] = item.Clone()
	return nil
}

func (r *MemoryItemRepository) Update(_ context.Context, id string, upd domain.ItemUpdate) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := upd.Validate(item); err != nil {
		return nil, err
	}
	upd.Apply(item, r.now())
	return item.Clone(), nil
}

func (r *MemoryItemRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	delete(r.seq, id)
	return nil
}

func (r *MemoryItemRepository) FindPendingReminders(_ context.Context, now time.Time) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Item
	for _, item := range r.items {
		if item.ReminderAt != nil && !item.ReminderAt.After(now) && !item.ReminderSent && !item.IsComplete() {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (r *MemoryItemRepository) MarkReminderSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if item, ok := r.items[id]; ok {
		item.ReminderSent = true
		item.UpdatedAt = r.now()
	}
	return nil
}
