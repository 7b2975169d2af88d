package repository

import (
	"errors"
	"net"
	"testing"
	"time"

	"lifeos-backend/internal/item/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=lifeos dbname=lifeos sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func listSQL(db *gorm.DB, userID string, f domain.Filter) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var items []*domain.Item
		return applyFilter(tx.Model(&domain.Item{}), userID, f).Find(&items)
	})
}

func TestApplyFilter(t *testing.T) {
	db := dryRunDB(t)

	t.Run("unfiltered read is newest first", func(t *testing.T) {
		sql := listSQL(db, "owner", domain.Filter{})
		assert.Contains(t, sql, "user_id = 'owner'")
		assert.Contains(t, sql, "ORDER BY created_at DESC")
		assert.NotContains(t, sql, "due_date")
	})

	t.Run("every constraint reaches the query", func(t *testing.T) {
		from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
		sql := listSQL(db, "owner", domain.Filter{
			Type:        domain.ItemTypeTask,
			StatusNotIn: []domain.ItemStatus{domain.StatusComplete},
			Urgency:     domain.UrgencyHigh,
			DueFrom:     &from,
			DueTo:       &to,
			Limit:       20,
		})
		assert.Contains(t, sql, "type = 'task'")
		assert.Contains(t, sql, "status NOT IN ('complete')")
		assert.Contains(t, sql, "urgency = 'high'")
		assert.Contains(t, sql, "due_date >=")
		assert.Contains(t, sql, "due_date <=")
		assert.Contains(t, sql, "LIMIT 20")
	})

	t.Run("status set", func(t *testing.T) {
		sql := listSQL(db, "owner", domain.Filter{
			StatusIn: []domain.ItemStatus{domain.StatusNotStarted, domain.StatusInProgress},
		})
		assert.Contains(t, sql, "status IN ('not_started','in_progress')")
	})
}

func TestList_InvalidFilterNeverReachesStore(t *testing.T) {
	repo := NewGormItemRepository(dryRunDB(t))
	_, err := repo.List(t.Context(), "owner", domain.Filter{Type: "chore"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrStoreRejected},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrStoreRejected},
		{"connection failure", &pgconn.PgError{Code: "08006"}, domain.ErrStoreUnreachable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, domain.ErrStoreUnreachable},
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, domain.ErrStoreUnreachable},
		{"unknown", errors.New("syntax error"), domain.ErrStoreRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tc.err), tc.want)
		})
	}
	assert.NoError(t, translateError(nil))
}
