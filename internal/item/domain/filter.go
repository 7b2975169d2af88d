package domain

import (
	"fmt"
	"time"
)

// Filter narrows a List call. Zero values mean "no constraint".
// Due-date bounds are inclusive and independent; items without a due date
// never satisfy a bounded range.
type Filter struct {
	Type        ItemType
	StatusIn    []ItemStatus
	StatusNotIn []ItemStatus
	Urgency     Urgency
	DueFrom     *time.Time
	DueTo       *time.Time
	Limit       int
}

// Validate rejects filters the store should never see
func (f Filter) Validate() error {
	if f.Type != "" {
		if _, err := ParseItemType(string(f.Type)); err != nil {
			return err
		}
	}
	for _, s := range append(append([]ItemStatus{}, f.StatusIn...), f.StatusNotIn...) {
		if _, err := ParseStatus(string(s)); err != nil {
			return err
		}
	}
	if f.Urgency != "" {
		if _, err := ParseUrgency(string(f.Urgency)); err != nil {
			return err
		}
	}
	if f.DueFrom != nil && f.DueTo != nil && f.DueTo.Before(*f.DueFrom) {
		return fmt.Errorf("%w: due_to is before due_from", ErrValidation)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrValidation)
	}
	return nil
}

// Matches applies the filter to a single item in memory
func (f Filter) Matches(item *Item) bool {
	if f.Type != "" && item.Type != f.Type {
		return false
	}
	if len(f.StatusIn) > 0 && !containsStatus(f.StatusIn, item.Status) {
		return false
	}
	if len(f.StatusNotIn) > 0 && containsStatus(f.StatusNotIn, item.Status) {
		return false
	}
	if f.Urgency != "" && item.Urgency != f.Urgency {
		return false
	}
	if f.DueFrom != nil && (item.DueDate == nil || item.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (item.DueDate == nil || item.DueDate.After(*f.DueTo)) {
		return false
	}
	return true
}

func containsStatus(set []ItemStatus, s ItemStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
