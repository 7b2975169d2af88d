package delivery

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/usecase"
	"lifeos-backend/internal/item/view"

	"github.com/gin-gonic/gin"
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	itemUsecase usecase.ItemUsecase
	loc         *time.Location
}

// NewItemHandler creates a new ItemHandler. loc interprets dates without an offset.
func NewItemHandler(itemUsecase usecase.ItemUsecase, loc *time.Location) *ItemHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ItemHandler{
		itemUsecase: itemUsecase,
		loc:         loc,
	}
}

// CaptureRequest represents the request body for a capture
type CaptureRequest struct {
	Text string `json:"text" binding:"required"`
}

// InstructionRequest represents the request body for a conversational edit
type InstructionRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

// StatusRequest represents the request body for a status change
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LinkRequest represents the request body for adding or removing a link
type LinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// SemanticSearchRequest represents the request body for semantic search
type SemanticSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// UpdateItemRequest is a sparse update. An empty due_date or reminder_at clears it.
type UpdateItemRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Subcategory *string   `json:"subcategory,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Urgency     *string   `json:"urgency,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	Links       *[]string `json:"links,omitempty"`
	Location    *string   `json:"location,omitempty"`
	ReminderAt  *string   `json:"reminder_at,omitempty"`
}

// toUpdate converts the request into a domain update, rejecting bad values
func (r UpdateItemRequest) toUpdate(loc *time.Location) (domain.ItemUpdate, error) {
	var upd domain.ItemUpdate
	upd.Title = r.Title
	upd.Description = r.Description
	upd.Notes = r.Notes
	upd.Links = r.Links
	upd.Location = r.Location

	if r.Category != nil {
		c, err := domain.ParseCategory(*r.Category)
		if err != nil {
			return upd, err
		}
		upd.Category = &c
	}
	if r.Subcategory != nil {
		s, err := domain.ParseSubcategory(*r.Subcategory)
		if err != nil {
			return upd, err
		}
		upd.Subcategory = &s
	}
	if r.Status != nil {
		s, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return upd, err
		}
		upd.Status = &s
	}
	if r.Urgency != nil {
		u, err := domain.ParseUrgency(*r.Urgency)
		if err != nil {
			return upd, err
		}
		upd.Urgency = &u
	}
	if r.DueDate != nil {
		if strings.TrimSpace(*r.DueDate) == "" {
			upd.ClearDueDate = true
		} else {
			t, err := domain.ParseDueDate(*r.DueDate, loc)
			if err != nil {
				return upd, err
			}
			upd.DueDate = &t
		}
	}
	if r.ReminderAt != nil {
		if strings.TrimSpace(*r.ReminderAt) == "" {
			upd.ClearReminder = true
		} else {
			t, err := domain.ParseDueDate(*r.ReminderAt, loc)
			if err != nil {
				return upd, err
			}
			upd.ReminderAt = &t
		}
	}
	return upd, nil
}

// Capture classifies free text into a new item
// POST /api/capture
func (h *ItemHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.Capture(c.Request.Context(), c.GetString("userID"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems returns the user's items
// GET /api/items?type=task&status=not_started,in_progress&status_not=complete&urgency=high&due_from=...&due_to=...&limit=50
func (h *ItemHandler) ListItems(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.itemUsecase.List(c.Request.Context(), c.GetString("userID"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *ItemHandler) parseFilter(c *gin.Context) (domain.Filter, error) {
	var f domain.Filter
	if v := c.Query("type"); v != "" {
		t, err := domain.ParseItemType(v)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	var err error
	if f.StatusIn, err = parseStatuses(c.Query("status")); err != nil {
		return f, err
	}
	if f.StatusNotIn, err = parseStatuses(c.Query("status_not")); err != nil {
		return f, err
	}
	if v := c.Query("urgency"); v != "" {
		u, err := domain.ParseUrgency(v)
		if err != nil {
			return f, err
		}
		f.Urgency = u
	}
	if v := c.Query("due_from"); v != "" {
		t, err := domain.ParseDueDate(v, h.loc)
		if err != nil {
			return f, err
		}
		f.DueFrom = &t
	}
	if v := c.Query("due_to"); v != "" {
		t, err := domain.ParseDueDate(v, h.loc)
		if err != nil {
			return f, err
		}
		f.DueTo = &t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: limit must be a number", domain.ErrValidation)
		}
		f.Limit = n
	}
	return f, f.Validate()
}

func parseStatuses(raw string) ([]domain.ItemStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var out []domain.ItemStatus
	for _, part := range strings.Split(raw, ",") {
		s, err := domain.ParseStatus(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CreateItem stores a manually entered item
// POST /api/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req usecase.CreateItemRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem returns a specific item
// GET /api/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemUsecase.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem applies a sparse field update
// PATCH /api/items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if !bind(c, &req) {
		return
	}
	upd, err := req.toUpdate(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.itemUsecase.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// SetStatus changes an item's status
// PATCH /api/items/:id/status
func (h *ItemHandler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.SetStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), domain.ItemStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ToggleComplete flips an item between complete and not started
// POST /api/items/:id/toggle-complete
func (h *ItemHandler) ToggleComplete(c *gin.Context) {
	item, err := h.itemUsecase.ToggleComplete(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AddLink appends a URL to an item
// POST /api/items/:id/links
func (h *ItemHandler) AddLink(c *gin.Context) {
	var req LinkRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.AddLink(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveLink removes a URL from an item
// DELETE /api/items/:id/links
func (h *ItemHandler) RemoveLink(c *gin.Context) {
	var req LinkRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.RemoveLink(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ApplyInstruction edits an item from a natural-language instruction
// POST /api/items/:id/instruct
func (h *ItemHandler) ApplyInstruction(c *gin.Context) {
	var req InstructionRequest
	if !bind(c, &req) {
		return
	}

	item, err := h.itemUsecase.ApplyInstruction(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Instruction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem removes an item permanently
// DELETE /api/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.itemUsecase.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// GetView returns a derived dashboard view. A failed read still returns the
// view body, with its inline error, under the failure status.
// GET /api/views/:view
func (h *ItemHandler) GetView(c *gin.Context) {
	name, err := view.ParseName(c.Param("view"))
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.itemUsecase.View(c.Request.Context(), c.GetString("userID"), name)
	if err != nil {
		c.JSON(StatusFor(err), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Search runs a fuzzy search
// GET /api/search?q=dentist&limit=20
func (h *ItemHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.itemUsecase.Search(c.Request.Context(), c.GetString("userID"), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SemanticSearch runs an embedding search
// POST /api/search/semantic
func (h *ItemHandler) SemanticSearch(c *gin.Context) {
	var req SemanticSearchRequest
	if !bind(c, &req) {
		return
	}

	results, err := h.itemUsecase.SemanticSearch(c.Request.Context(), c.GetString("userID"), req.Query, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"reason":    domain.Reason(domain.ErrValidation),
			"retryable": false,
		})
		return false
	}
	return true
}
