package domain

import (
	"fmt"
	"strings"
)

func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ItemTypes {
		if v == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown item type %q", ErrValidation, s)
}

func ParseStatus(s string) (ItemStatus, error) {
	st := ItemStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Statuses {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// ParseUrgency accepts any case. An empty string means no urgency.
func ParseUrgency(s string) (Urgency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	u := Urgency(strings.ToLower(s))
	for _, v := range Urgencies {
		if v == u {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: unknown urgency %q", ErrValidation, s)
}

// ParseCategory matches case-insensitively against the fixed set and
// returns the canonical spelling. An empty string means no category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, v := range Categories {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// ParseSubcategory matches case-insensitively against the fixed set.
func ParseSubcategory(s string) (Subcategory, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, v := range Subcategories {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown subcategory %q", ErrValidation, s)
}
