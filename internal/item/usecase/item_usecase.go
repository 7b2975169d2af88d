package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/repository"
	"lifeos-backend/internal/item/view"
	"lifeos-backend/pkg/ai"
	"lifeos-backend/pkg/calendar"
	"lifeos-backend/pkg/chroma"
	"lifeos-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// DefaultReminderLead is how long before due_date a reminder is set on capture
const DefaultReminderLead = time.Hour

// sideEffectTimeout bounds calendar and index calls made after a response
const sideEffectTimeout = 30 * time.Second

// itemUsecase implements ItemUsecase interface
type itemUsecase struct {
	repo      repository.ItemRepository
	extractor ai.Extractor
	calendar  calendar.Syncer
	vectors   VectorIndex
	loc       *time.Location
	now       func() time.Time
	// background runs post-commit side effects
	background func(func())
}

// NewItemUsecase creates a new instance of itemUsecase. loc is the owner's
// timezone: it defines "today" and anchors relative dates.
func NewItemUsecase(repo repository.ItemRepository, extractor ai.Extractor, loc *time.Location) ItemUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &itemUsecase{
		repo:       repo,
		extractor:  extractor,
		loc:        loc,
		now:        time.Now,
		background: func(f func()) { go f() },
	}
}

func (u *itemUsecase) SetCalendar(c calendar.Syncer) {
	u.calendar = c
}

func (u *itemUsecase) SetVectorIndex(v VectorIndex) {
	u.vectors = v
}

func (u *itemUsecase) SetBackgroundRunner(run func(func())) {
	if run != nil {
		u.background = run
	}
}

func (u *itemUsecase) localNow() time.Time {
	return u.now().In(u.loc)
}

func (u *itemUsecase) Create(ctx context.Context, userID string, req CreateItemRequest) (*domain.Item, error) {
	item, err := newItemFromRequest(req, u.loc)
	if err != nil {
		return nil, err
	}
	item.UserID = userID
	if err := u.repo.Create(ctx, item); err != nil {
		return nil, u.storeErr(err)
	}
	u.afterSave(item)
	return item, nil
}

func (u *itemUsecase) Get(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	item, err := u.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, u.storeErr(err)
	}
	if item.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (u *itemUsecase) List(ctx context.Context, userID string, filter domain.Filter) ([]*domain.Item, error) {
	items, err := u.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, u.storeErr(err)
	}
	return items, nil
}

func (u *itemUsecase) Update(ctx context.Context, userID, itemID string, upd domain.ItemUpdate) (*domain.Item, error) {
	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return current, nil
	}
	if err := upd.Validate(current); err != nil {
		return nil, err
	}

	updated, err := u.repo.Update(ctx, itemID, upd)
	if err != nil {
		return nil, u.storeErr(err)
	}
	u.afterSave(updated)
	return updated, nil
}

func (u *itemUsecase) SetStatus(ctx context.Context, userID, itemID string, status domain.ItemStatus) (*domain.Item, error) {
	s, err := domain.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	return u.Update(ctx, userID, itemID, domain.ItemUpdate{Status: &s})
}

func (u *itemUsecase) ToggleComplete(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	next := domain.ToggledStatus(current)
	return u.Update(ctx, userID, itemID, domain.ItemUpdate{Status: &next})
}

func (u *itemUsecase) AddLink(ctx context.Context, userID, itemID, link string) (*domain.Item, error) {
	link = strings.TrimSpace(link)
	if err := validateLink(link); err != nil {
		return nil, err
	}
	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	for _, l := range current.Links {
		if l == link {
			return current, nil
		}
	}
	links := append(append([]string{}, current.Links...), link)
	return u.Update(ctx, userID, itemID, domain.ItemUpdate{Links: &links})
}

func (u *itemUsecase) RemoveLink(ctx context.Context, userID, itemID, link string) (*domain.Item, error) {
	link = strings.TrimSpace(link)
	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	links := make([]string, 0, len(current.Links))
	for _, l := range current.Links {
		if l != link {
			links = append(links, l)
		}
	}
	if len(links) == len(current.Links) {
		return current, nil
	}
	return u.Update(ctx, userID, itemID, domain.ItemUpdate{Links: &links})
}

func (u *itemUsecase) Delete(ctx context.Context, userID, itemID string) error {
	current, err := u.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, itemID); err != nil {
		return u.storeErr(err)
	}

	eventID := current.CalendarEventID
	u.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if u.calendar != nil && eventID != "" {
			if err := u.calendar.Delete(ctx, eventID); err != nil {
				log.Warn().Err(err).Str("item_id", itemID).Msg("[ItemUsecase] Calendar delete failed")
			}
		}
		if u.vectors != nil {
			if err := u.vectors.Delete(ctx, itemID); err != nil {
				log.Warn().Err(err).Str("item_id", itemID).Msg("[ItemUsecase] Embedding delete failed")
			}
		}
	})
	return nil
}

func (u *itemUsecase) View(ctx context.Context, userID string, name view.Name) (view.Result, error) {
	items, err := u.repo.List(ctx, userID, view.Filter(name))
	if err != nil {
		err = u.storeErr(err)
		return view.Failed(name, err), err
	}
	return view.Derive(name, items, u.localNow()), nil
}

// afterSave mirrors the item to the calendar and the vector index. Failures
// are logged only; the item is already stored.
func (u *itemUsecase) afterSave(item *domain.Item) {
	if u.calendar == nil && u.vectors == nil {
		return
	}
	snapshot := item.Clone()
	u.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		u.syncCalendar(ctx, snapshot)
		u.indexItem(ctx, snapshot)
	})
}

func (u *itemUsecase) syncCalendar(ctx context.Context, item *domain.Item) {
	if u.calendar == nil {
		return
	}

	if !item.SyncsToCalendar() {
		// An event whose due date was cleared loses its calendar entry
		if item.CalendarEventID == "" {
			return
		}
		if err := u.calendar.Delete(ctx, item.CalendarEventID); err != nil {
			log.Warn().Err(err).Str("item_id", item.ID).Msg("[ItemUsecase] Calendar delete failed")
			return
		}
		empty := ""
		if _, err := u.repo.Update(ctx, item.ID, domain.ItemUpdate{CalendarEventID: &empty}); err != nil {
			log.Warn().Err(err).Str("item_id", item.ID).Msg("[ItemUsecase] Failed to clear calendar event id")
		}
		return
	}

	eventID, err := u.calendar.Upsert(ctx, item.CalendarEventID, calendar.Event{
		Title:       item.Title,
		Description: item.Description,
		Category:    string(item.Category),
		Notes:       item.Notes,
		Location:    item.Location,
		Urgency:     string(item.Urgency),
		Start:       *item.DueDate,
	})
	if err != nil {
		log.Warn().Err(err).Str("item_id", item.ID).Msg("[ItemUsecase] Calendar sync failed")
		return
	}
	if eventID != item.CalendarEventID {
		if _, err := u.repo.Update(ctx, item.ID, domain.ItemUpdate{CalendarEventID: &eventID}); err != nil {
			log.Warn().Err(err).Str("item_id", item.ID).Msg("[ItemUsecase] Failed to store calendar event id")
		}
	}
}

func (u *itemUsecase) indexItem(ctx context.Context, item *domain.Item) {
	if u.vectors == nil {
		return
	}
	if err := u.vectors.Upsert(ctx, documentFor(item)); err != nil {
		log.Warn().Err(err).Str("item_id", item.ID).Msg("[ItemUsecase] Embedding upsert failed")
	}
}

func documentFor(item *domain.Item) chroma.Document {
	return chroma.Document{
		ItemID:      item.ID,
		UserID:      item.UserID,
		Type:        string(item.Type),
		Title:       item.Title,
		Description: item.Description,
		Notes:       item.Notes,
		Category:    string(item.Category),
		People:      item.PeopleMentioned,
	}
}

// storeErr counts store failures by reason and passes the error through
func (u *itemUsecase) storeErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnreachable) || errors.Is(err, domain.ErrStoreRejected) {
		metrics.StoreErrorsTotal.WithLabelValues(domain.Reason(err)).Inc()
		log.Error().Err(err).Msg("[ItemUsecase] Store failure")
	}
	return err
}

// defaultReminder returns due - DefaultReminderLead when that is still ahead
func defaultReminder(due *time.Time, now time.Time) *time.Time {
	if due == nil {
		return nil
	}
	r := due.Add(-DefaultReminderLead)
	if !r.After(now) {
		return nil
	}
	return &r
}

func validateLink(link string) error {
	if link == "" {
		return fmt.Errorf("%w: link must not be empty", domain.ErrValidation)
	}
	parsed, err := url.ParseRequestURI(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q is not an http(s) URL", domain.ErrValidation, link)
	}
	return nil
}

func newItemFromRequest(req CreateItemRequest, loc *time.Location) (*domain.Item, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	itemType, err := domain.ParseItemType(req.Type)
	if err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	subcategory, err := domain.ParseSubcategory(req.Subcategory)
	if err != nil {
		return nil, err
	}
	if subcategory != "" && itemType != domain.ItemTypeIdea {
		return nil, fmt.Errorf("%w: subcategory only applies to ideas", domain.ErrValidation)
	}
	urgency, err := domain.ParseUrgency(req.Urgency)
	if err != nil {
		return nil, err
	}
	status := domain.StatusNotStarted
	if req.Status != "" {
		if status, err = domain.ParseStatus(req.Status); err != nil {
			return nil, err
		}
	}

	item := &domain.Item{
		Type:        itemType,
		Title:       title,
		Description: req.Description,
		Category:    category,
		Subcategory: subcategory,
		Urgency:     urgency,
		Status:      status,
		Notes:       req.Notes,
		Location:    strings.TrimSpace(req.Location),
	}

	if strings.TrimSpace(req.DueDate) != "" {
		due, err := domain.ParseDueDate(req.DueDate, loc)
		if err != nil {
			return nil, err
		}
		item.DueDate = &due
	}
	if strings.TrimSpace(req.ReminderAt) != "" {
		r, err := domain.ParseDueDate(req.ReminderAt, loc)
		if err != nil {
			return nil, err
		}
		item.ReminderAt = &r
	}
	for _, l := range req.Links {
		l = strings.TrimSpace(l)
		if err := validateLink(l); err != nil {
			return nil, err
		}
		item.Links = append(item.Links, l)
	}
	return item, nil
}
