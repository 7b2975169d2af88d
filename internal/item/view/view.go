// Package view derives the dashboard projections (Today, Tasks, Events,
// Ideas, Reference) from an in-memory item slice. Every function is pure:
// the input slice is never reordered and "now" is always passed in.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
)

// Name identifies a view
type Name string

const (
	NameToday     Name = "today"
	NameTasks     Name = "tasks"
	NameEvents    Name = "events"
	NameIdeas     Name = "ideas"
	NameReference Name = "reference"
)

// Names lists the views in navigation order
var Names = []Name{NameToday, NameTasks, NameEvents, NameIdeas, NameReference}

// ParseName validates a view name
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Names {
		if v == n {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown view %q", domain.ErrValidation, s)
}

// UncategorizedGroup is the residual Ideas partition for ideas without a subcategory
const UncategorizedGroup = "Uncategorized"

// StartOfDay returns local midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayWindow returns [start of day, start of next day) for t's local day
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

func inWindow(due *time.Time, start, end time.Time) bool {
	return due != nil && !due.Before(start) && due.Before(end)
}

// Today is the three-way partition shown on the Today view
type Today struct {
	DueToday    []*domain.Item `json:"due_today"`
	HighUrgency []*domain.Item `json:"high_urgency"`
	Events      []*domain.Item `json:"events"`
}

// Len counts items across all partitions
func (t Today) Len() int {
	return len(t.DueToday) + len(t.HighUrgency) + len(t.Events)
}

// DeriveToday partitions open tasks into "due today" and "high urgency, not
// due today", and collects today's events sorted ascending.
func DeriveToday(items []*domain.Item, now time.Time) Today {
	start, end := DayWindow(now)
	out := Today{
		DueToday:    []*domain.Item{},
		HighUrgency: []*domain.Item{},
		Events:      []*domain.Item{},
	}
	for _, item := range items {
		switch item.Type {
		case domain.ItemTypeTask:
			if item.IsComplete() {
				continue
			}
			if inWindow(item.DueDate, start, end) {
				out.DueToday = append(out.DueToday, item)
			} else if item.Urgency == domain.UrgencyHigh {
				out.HighUrgency = append(out.HighUrgency, item)
			}
		case domain.ItemTypeEvent:
			if inWindow(item.DueDate, start, end) {
				out.Events = append(out.Events, item)
			}
		}
	}
	sortByDue(out.DueToday)
	sortByDue(out.HighUrgency)
	sortByDue(out.Events)
	return out
}

// DeriveTasks returns open tasks ordered by urgency rank, then due date with
// undated tasks after dated ones.
func DeriveTasks(items []*domain.Item) []*domain.Item {
	out := []*domain.Item{}
	for _, item := range items {
		if item.Type == domain.ItemTypeTask && !item.IsComplete() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := domain.UrgencyRank(out[i].Urgency), domain.UrgencyRank(out[j].Urgency)
		if ri != rj {
			return ri < rj
		}
		return dueBefore(out[i].DueDate, out[j].DueDate)
	})
	return out
}

// DeriveEvents drops events that ended before today and sorts the rest
// ascending, undated last.
func DeriveEvents(items []*domain.Item, now time.Time) []*domain.Item {
	start := StartOfDay(now)
	out := []*domain.Item{}
	for _, item := range items {
		if item.Type != domain.ItemTypeEvent {
			continue
		}
		if item.DueDate != nil && item.DueDate.Before(start) {
			continue
		}
		out = append(out, item)
	}
	sortByDue(out)
	return out
}

// IdeaGroup is one non-empty Ideas partition
type IdeaGroup struct {
	Name  string         `json:"name"`
	Items []*domain.Item `json:"items"`
}

// DeriveIdeas groups ideas by subcategory in the fixed enumeration order,
// omitting empty groups, with a trailing Uncategorized group.
func DeriveIdeas(items []*domain.Item) []IdeaGroup {
	buckets := make(map[domain.Subcategory][]*domain.Item)
	var uncategorized []*domain.Item
	for _, item := range items {
		if item.Type != domain.ItemTypeIdea {
			continue
		}
		if item.Subcategory == "" {
			uncategorized = append(uncategorized, item)
			continue
		}
		buckets[item.Subcategory] = append(buckets[item.Subcategory], item)
	}

	groups := []IdeaGroup{}
	for _, sub := range domain.Subcategories {
		if len(buckets[sub]) > 0 {
			groups = append(groups, IdeaGroup{Name: string(sub), Items: buckets[sub]})
		}
	}
	if len(uncategorized) > 0 {
		groups = append(groups, IdeaGroup{Name: UncategorizedGroup, Items: uncategorized})
	}
	return groups
}

// DeriveReference keeps reference items in the order they were given
func DeriveReference(items []*domain.Item) []*domain.Item {
	out := []*domain.Item{}
	for _, item := range items {
		if item.Type == domain.ItemTypeReference {
			out = append(out, item)
		}
	}
	return out
}

func sortByDue(items []*domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return dueBefore(items[i].DueDate, items[j].DueDate)
	})
}

// dueBefore orders by due date ascending with nil after any set date
func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
