package repository

import (
	"context"
	"testing"
	"time"

	"lifeos-backend/internal/item/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryItemRepository_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()
	clock := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return clock })

	first := &domain.Item{UserID: "u", Type: domain.ItemTypeTask, Title: "first"}
	second := &domain.Item{UserID: "u", Type: domain.ItemTypeIdea, Title: "second"}
	other := &domain.Item{UserID: "someone-else", Type: domain.ItemTypeTask, Title: "hidden"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second)) // same created_at as first
	require.NoError(t, repo.Create(ctx, other))

	items, err := repo.List(ctx, "u", domain.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Title, "newest first")

	tasks, err := repo.List(ctx, "u", domain.Filter{Type: domain.ItemTypeTask})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "first", tasks[0].Title)

	_, err = repo.List(ctx, "u", domain.Filter{Type: "chore"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryItemRepository_UpdateDerivesCompletedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()
	item := &domain.Item{UserID: "u", Type: domain.ItemTypeTask, Title: "x"}
	require.NoError(t, repo.Create(ctx, item))
	assert.Equal(t, domain.StatusNotStarted, item.Status)
	assert.Nil(t, item.CompletedAt)

	complete := domain.StatusComplete
	updated, err := repo.Update(ctx, item.ID, domain.ItemUpdate{Status: &complete})
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)

	// Returned values are copies
	updated.Title = "mutated"
	stored, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", stored.Title)

	_, err = repo.Update(ctx, "missing", domain.ItemUpdate{Status: &complete})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryItemRepository_Reminders(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := &domain.Item{UserID: "u", Type: domain.ItemTypeTask, Title: "due", ReminderAt: &past}
	later := &domain.Item{UserID: "u", Type: domain.ItemTypeTask, Title: "later", ReminderAt: &future}
	done := &domain.Item{UserID: "u", Type: domain.ItemTypeTask, Title: "done", ReminderAt: &past, Status: domain.StatusComplete}
	for _, it := range []*domain.Item{due, later, done} {
		require.NoError(t, repo.Create(ctx, it))
	}

	pending, err := repo.FindPendingReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "due", pending[0].Title)

	require.NoError(t, repo.MarkReminderSent(ctx, due.ID))
	pending, err = repo.FindPendingReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryItemRepository_FailWith(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()
	repo.FailWith(domain.ErrStoreUnreachable)

	_, err := repo.List(ctx, "u", domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrStoreUnreachable)
	assert.ErrorIs(t, repo.Create(ctx, &domain.Item{Title: "x"}), domain.ErrStoreUnreachable)

	repo.FailWith(nil)
	_, err = repo.List(ctx, "u", domain.Filter{})
	assert.NoError(t, err)
}
