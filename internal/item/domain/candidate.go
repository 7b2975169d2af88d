package domain

import (
	"fmt"
	"strings"
	"time"
)

// FallbackTitleLimit bounds the title of an item created without extraction
const FallbackTitleLimit = 100

// Candidate is an extraction result after schema validation, ready to become an Item
type Candidate struct {
	Type            ItemType
	Title           string
	Description     string
	Category        Category
	Subcategory     Subcategory
	Urgency         Urgency
	DueDate         *time.Time
	PeopleMentioned []string
	Location        string
}

// RawCandidate mirrors the untrusted extraction payload
type RawCandidate struct {
	Type            string
	Title           string
	Description     string
	Category        string
	Subcategory     string
	Urgency         string
	DueDate         string
	PeopleMentioned []string
	Location        string
}

// ValidateCandidate turns an untrusted extraction payload into a Candidate.
// Missing type/title or any enum outside the fixed sets is malformed.
func ValidateCandidate(raw RawCandidate, loc *time.Location) (*Candidate, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", ErrExtractionMalformed)
	}
	if strings.TrimSpace(raw.Type) == "" {
		return nil, fmt.Errorf("%w: missing type", ErrExtractionMalformed)
	}
	itemType, err := ParseItemType(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
	}
	category, err := ParseCategory(raw.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
	}
	subcategory, err := ParseSubcategory(raw.Subcategory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
	}
	if itemType != ItemTypeIdea {
		subcategory = ""
	}
	urgency, err := ParseUrgency(raw.Urgency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
	}
	var due *time.Time
	if strings.TrimSpace(raw.DueDate) != "" {
		t, err := ParseDueDate(raw.DueDate, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtractionMalformed, err)
		}
		due = &t
	}

	people := make([]string, 0, len(raw.PeopleMentioned))
	for _, p := range raw.PeopleMentioned {
		if p = strings.TrimSpace(p); p != "" {
			people = append(people, p)
		}
	}

	return &Candidate{
		Type:            itemType,
		Title:           title,
		Description:     strings.TrimSpace(raw.Description),
		Category:        category,
		Subcategory:     subcategory,
		Urgency:         urgency,
		DueDate:         due,
		PeopleMentioned: people,
		Location:        strings.TrimSpace(raw.Location),
	}, nil
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 or local date/time forms. Values without an
// offset are interpreted in loc.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable due date %q", ErrValidation, s)
}

// FallbackItem builds the uncategorised task used when extraction is unavailable
func FallbackItem(rawText string) *Item {
	text := strings.TrimSpace(rawText)
	runes := []rune(text)
	item := &Item{
		Type:   ItemTypeTask,
		Title:  text,
		Status: StatusNotStarted,
	}
	if len(runes) > FallbackTitleLimit {
		item.Title = string(runes[:FallbackTitleLimit])
		item.Description = text
	}
	return item
}

// NewItemFromCandidate builds an unsaved item from a validated candidate
func NewItemFromCandidate(c *Candidate) *Item {
	return &Item{
		Type:            c.Type,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Subcategory:     c.Subcategory,
		Urgency:         c.Urgency,
		DueDate:         c.DueDate,
		PeopleMentioned: c.PeopleMentioned,
		Location:        c.Location,
		Status:          StatusNotStarted,
	}
}
