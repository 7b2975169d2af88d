package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EditableFields are the only keys a conversational edit may touch
var EditableFields = []string{
	"title", "description", "category", "subcategory",
	"urgency", "due_date", "status", "notes",
}

func isEditable(key string) bool {
	for _, f := range EditableFields {
		if f == key {
			return true
		}
	}
	return false
}

// FilterEditableKeys drops every key outside EditableFields and returns the
// remaining set plus the sorted list of dropped keys.
func FilterEditableKeys(raw map[string]interface{}) (map[string]interface{}, []string) {
	kept := make(map[string]interface{}, len(raw))
	var dropped []string
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if !isEditable(key) {
			dropped = append(dropped, k)
			continue
		}
		kept[key] = v
	}
	sort.Strings(dropped)
	return kept, dropped
}

// EditSetToUpdate converts a filtered sparse update object into an ItemUpdate.
// Values that do not fit the field are malformed extraction output.
func EditSetToUpdate(set map[string]interface{}, loc *time.Location) (ItemUpdate, error) {
	var upd ItemUpdate
	for key, v := range set {
		str, isNull, err := asOptionalString(v)
		if err != nil {
			return ItemUpdate{}, fmt.Errorf("%w: field %s: %v", ErrExtractionMalformed, key, err)
		}
		switch key {
		case "title":
			if isNull || strings.TrimSpace(str) == "" {
				return ItemUpdate{}, fmt.Errorf("%w: title cannot be cleared", ErrExtractionMalformed)
			}
			upd.Title = &str
		case "description":
			upd.Description = &str
		case "notes":
			upd.Notes = &str
		case "category":
			c, err := ParseCategory(str)
			if err != nil {
				return ItemUpdate{}, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
			}
			upd.Category = &c
		case "subcategory":
			s, err := ParseSubcategory(str)
			if err != nil {
				return ItemUpdate{}, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
			}
			upd.Subcategory = &s
		case "urgency":
			u, err := ParseUrgency(str)
			if err != nil {
				return ItemUpdate{}, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
			}
			upd.Urgency = &u
		case "status":
			if isNull {
				return ItemUpdate{}, fmt.Errorf("%w: status cannot be cleared", ErrExtractionMalformed)
			}
			s, err := ParseStatus(normalizeStatusWord(str))
			if err != nil {
				return ItemUpdate{}, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
			}
			upd.Status = &s
		case "due_date":
			if isNull || strings.TrimSpace(str) == "" {
				upd.ClearDueDate = true
				continue
			}
			t, err := ParseDueDate(str, loc)
			if err != nil {
				return ItemUpdate{}, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
			}
			upd.DueDate = &t
		}
	}
	return upd, nil
}

// normalizeStatusWord tolerates the spellings models tend to produce
func normalizeStatusWord(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "done", "finished":
		return string(StatusComplete)
	case "pending", "todo", "not started":
		return string(StatusNotStarted)
	case "in progress", "started":
		return string(StatusInProgress)
	}
	return s
}

func asOptionalString(v interface{}) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return val, false, nil
	default:
		return "", false, fmt.Errorf("expected string, got %T", v)
	}
}
