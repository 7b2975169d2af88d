package usecase

import (
	"context"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/view"
	"lifeos-backend/pkg/calendar"
	"lifeos-backend/pkg/chroma"
)

// ItemUsecase defines the interface for item business logic.
// Every method scopes access to userID; other users' items are not found.
type ItemUsecase interface {
	// Capture classifies free text into a new item, falling back to an
	// uncategorised task when extraction is unavailable
	Capture(ctx context.Context, userID, text string) (*domain.Item, error)

	// ApplyInstruction edits an item from a natural-language instruction
	ApplyInstruction(ctx context.Context, userID, itemID, instruction string) (*domain.Item, error)

	// Create stores a manually entered item
	Create(ctx context.Context, userID string, req CreateItemRequest) (*domain.Item, error)

	Get(ctx context.Context, userID, itemID string) (*domain.Item, error)
	List(ctx context.Context, userID string, filter domain.Filter) ([]*domain.Item, error)
	Update(ctx context.Context, userID, itemID string, upd domain.ItemUpdate) (*domain.Item, error)
	SetStatus(ctx context.Context, userID, itemID string, status domain.ItemStatus) (*domain.Item, error)
	ToggleComplete(ctx context.Context, userID, itemID string) (*domain.Item, error)
	AddLink(ctx context.Context, userID, itemID, link string) (*domain.Item, error)
	RemoveLink(ctx context.Context, userID, itemID, link string) (*domain.Item, error)
	Delete(ctx context.Context, userID, itemID string) error

	// View derives a dashboard view. On a failed read the result carries an
	// inline error and the error is also returned.
	View(ctx context.Context, userID string, name view.Name) (view.Result, error)

	// Search ranks items by fuzzy match on title, people, description and notes
	Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)

	// SemanticSearch ranks items by embedding distance
	SemanticSearch(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)

	SetCalendar(c calendar.Syncer)
	SetVectorIndex(v VectorIndex)
	// SetBackgroundRunner replaces how post-commit side effects are started
	SetBackgroundRunner(run func(func()))
}

// CreateItemRequest carries a manually entered item. Dates are RFC 3339 or
// local date/time forms.
type CreateItemRequest struct {
	Type        string   `json:"type" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Urgency     string   `json:"urgency"`
	Status      string   `json:"status"`
	DueDate     string   `json:"due_date"`
	ReminderAt  string   `json:"reminder_at"`
	Notes       string   `json:"notes"`
	Links       []string `json:"links"`
	Location    string   `json:"location"`
}

// SearchResult is an item with its relevance; higher is better
type SearchResult struct {
	Item  *domain.Item `json:"item"`
	Score float64      `json:"score"`
}

// VectorIndex stores item embeddings for semantic search
type VectorIndex interface {
	Upsert(ctx context.Context, doc chroma.Document) error
	Search(ctx context.Context, userID, query string, limit int) ([]chroma.Match, error)
	Delete(ctx context.Context, itemID string) error
}
