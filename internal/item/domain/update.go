package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ItemUpdate is a sparse, field-level mutation. Nil fields are left untouched.
// Type and ID have no entry: they are immutable after creation.
type ItemUpdate struct {
	Title           *string
	Description     *string
	Category        *Category
	Subcategory     *Subcategory
	Status          *ItemStatus
	Urgency         *Urgency
	DueDate         *time.Time
	ClearDueDate    bool
	Notes           *string
	Links           *[]string
	Location        *string
	CalendarEventID *string
	ReminderAt      *time.Time
	ClearReminder   bool
}

// IsEmpty reports whether the update would change nothing
func (u ItemUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil &&
		u.Subcategory == nil && u.Status == nil && u.Urgency == nil &&
		u.DueDate == nil && !u.ClearDueDate && u.Notes == nil && u.Links == nil &&
		u.Location == nil && u.CalendarEventID == nil && u.ReminderAt == nil && !u.ClearReminder
}

// Validate checks field values against the item they will be applied to
func (u ItemUpdate) Validate(target *Item) error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if u.Category != nil {
		if _, err := ParseCategory(string(*u.Category)); err != nil {
			return err
		}
	}
	if u.Subcategory != nil {
		if _, err := ParseSubcategory(string(*u.Subcategory)); err != nil {
			return err
		}
		if *u.Subcategory != "" && target != nil && target.Type != ItemTypeIdea {
			return fmt.Errorf("%w: subcategory only applies to ideas", ErrValidation)
		}
	}
	if u.Status != nil {
		if _, err := ParseStatus(string(*u.Status)); err != nil {
			return err
		}
	}
	if u.Urgency != nil {
		if _, err := ParseUrgency(string(*u.Urgency)); err != nil {
			return err
		}
	}
	if u.DueDate != nil && u.ClearDueDate {
		return fmt.Errorf("%w: due_date cannot be both set and cleared", ErrValidation)
	}
	return nil
}

// Apply mutates item in place, deriving completed_at from status and bumping updated_at.
func (u ItemUpdate) Apply(item *Item, now time.Time) {
	if u.Title != nil {
		item.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Subcategory != nil {
		item.Subcategory = *u.Subcategory
	}
	if u.Urgency != nil {
		item.Urgency = *u.Urgency
	}
	if u.DueDate != nil {
		t := *u.DueDate
		item.DueDate = &t
	}
	if u.ClearDueDate {
		item.DueDate = nil
	}
	if u.Notes != nil {
		item.Notes = *u.Notes
	}
	if u.Links != nil {
		item.Links = append([]string(nil), (*u.Links)...)
	}
	if u.Location != nil {
		item.Location = *u.Location
	}
	if u.CalendarEventID != nil {
		item.CalendarEventID = *u.CalendarEventID
	}
	if u.ReminderAt != nil {
		t := *u.ReminderAt
		item.ReminderAt = &t
		item.ReminderSent = false
	}
	if u.ClearReminder {
		item.ReminderAt = nil
		item.ReminderSent = false
	}
	if u.Status != nil {
		item.PreviousStatus = previousStatusFor(item, *u.Status)
		item.Status = *u.Status
		item.CompletedAt = CompletedAtFor(*u.Status, now)
	}
	item.UpdatedAt = now
}

// Columns renders the update as a column map for a single UPDATE statement.
// completed_at and previous_status are always derived here, never taken from
// the caller. current is the stored row; without it previous_status is only
// cleared, never set.
func (u ItemUpdate) Columns(current *Item, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": now}
	if u.Title != nil {
		cols["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Category != nil {
		cols["category"] = string(*u.Category)
	}
	if u.Subcategory != nil {
		cols["subcategory"] = string(*u.Subcategory)
	}
	if u.Urgency != nil {
		cols["urgency"] = string(*u.Urgency)
	}
	if u.DueDate != nil {
		cols["due_date"] = *u.DueDate
	}
	if u.ClearDueDate {
		cols["due_date"] = nil
	}
	if u.Notes != nil {
		cols["notes"] = *u.Notes
	}
	if u.Links != nil {
		// jsonb column; map updates bypass the field serializer
		raw, _ := json.Marshal(nonNil(*u.Links))
		cols["links"] = string(raw)
	}
	if u.Location != nil {
		cols["location"] = *u.Location
	}
	if u.CalendarEventID != nil {
		cols["calendar_event_id"] = *u.CalendarEventID
	}
	if u.ReminderAt != nil {
		cols["reminder_at"] = *u.ReminderAt
		cols["reminder_sent"] = false
	}
	if u.ClearReminder {
		cols["reminder_at"] = nil
		cols["reminder_sent"] = false
	}
	if u.Status != nil {
		cols["status"] = string(*u.Status)
		if c := CompletedAtFor(*u.Status, now); c != nil {
			cols["completed_at"] = *c
		} else {
			cols["completed_at"] = nil
		}
		if current != nil || *u.Status != StatusComplete {
			cols["previous_status"] = string(previousStatusFor(current, *u.Status))
		}
	}
	return cols
}

// CompletedAtFor returns the completed_at value implied by a status
func CompletedAtFor(status ItemStatus, now time.Time) *time.Time {
	if status != StatusComplete {
		return nil
	}
	t := now
	return &t
}

// previousStatusFor is the status to remember when item moves to next.
// Only a complete item remembers where it came from.
func previousStatusFor(item *Item, next ItemStatus) ItemStatus {
	if next != StatusComplete || item == nil {
		return ""
	}
	if item.Status == StatusComplete {
		return item.PreviousStatus
	}
	return item.Status
}

// ToggledStatus completes an open item, or reopens a complete one to the
// status it held before completion (not_started when unknown).
func ToggledStatus(item *Item) ItemStatus {
	if item.Status != StatusComplete {
		return StatusComplete
	}
	switch item.PreviousStatus {
	case StatusNotStarted, StatusInProgress:
		return item.PreviousStatus
	}
	return StatusNotStarted
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
