// Package digest builds the morning and night briefs and emails them on a schedule.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/view"
)

// Kind selects which brief to build
type Kind string

const (
	KindMorning Kind = "morning"
	KindNight   Kind = "night"
)

// MaxHighlights bounds focus lines and suggestions
const MaxHighlights = 3

// WeekAhead is how many days past today the night brief looks
const WeekAhead = 7

// ParseKind validates a brief kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMorning:
		return KindMorning, nil
	case KindNight:
		return KindNight, nil
	}
	return "", fmt.Errorf("%w: unknown digest kind %q", domain.ErrValidation, s)
}

// DayGroup is the set of items due on one local day
type DayGroup struct {
	Date  time.Time
	Items []*domain.Item
}

// Brief is the data behind one digest email
type Brief struct {
	Kind Kind
	Date time.Time

	// Morning
	Events       []*domain.Item
	Tasks        []*domain.Item
	HighPriority []*domain.Item
	Focus        []string

	// Night
	Tomorrow       time.Time
	TomorrowEvents []*domain.Item
	Week           []DayGroup
	Suggestions    []string
}

// BuildMorning collects today's events, open tasks due today or overdue, and
// open high-urgency tasks. now must already be in the user's location.
func BuildMorning(items []*domain.Item, now time.Time) *Brief {
	today := view.DeriveToday(items, now)
	_, end := view.DayWindow(now)

	var tasks []*domain.Item
	for _, item := range items {
		if item.Type != domain.ItemTypeTask || item.IsComplete() || item.DueDate == nil {
			continue
		}
		if item.DueDate.Before(end) {
			tasks = append(tasks, item)
		}
	}
	sortItems(tasks)

	var high []*domain.Item
	seen := make(map[string]bool)
	for _, item := range tasks {
		if item.Urgency == domain.UrgencyHigh {
			high = append(high, item)
			seen[item.ID] = true
		}
	}
	for _, item := range today.HighUrgency {
		if !seen[item.ID] {
			high = append(high, item)
		}
	}

	return &Brief{
		Kind:         KindMorning,
		Date:         view.StartOfDay(now),
		Events:       today.Events,
		Tasks:        tasks,
		HighPriority: high,
		Focus:        focusLines(today.Events, tasks, high),
	}
}

// IsOverdue reports whether item was due before the brief's day started
func (b *Brief) IsOverdue(item *domain.Item) bool {
	return item.DueDate != nil && item.DueDate.Before(b.Date)
}

// BuildNight collects tomorrow's events and every open item due between
// tomorrow and the end of the week ahead, grouped by day.
func BuildNight(items []*domain.Item, now time.Time) *Brief {
	day := view.StartOfDay(now)
	tomorrow := day.AddDate(0, 0, 1)
	tomorrowEnd := day.AddDate(0, 0, 2)
	weekEnd := day.AddDate(0, 0, WeekAhead+1)

	var events, week []*domain.Item
	for _, item := range items {
		if item.IsComplete() || item.DueDate == nil {
			continue
		}
		due := item.DueDate.In(now.Location())
		if due.Before(tomorrow) || !due.Before(weekEnd) {
			continue
		}
		week = append(week, item)
		if item.Type == domain.ItemTypeEvent && due.Before(tomorrowEnd) {
			events = append(events, item)
		}
	}
	sortItems(events)
	sortItems(week)

	return &Brief{
		Kind:           KindNight,
		Date:           day,
		Tomorrow:       tomorrow,
		TomorrowEvents: events,
		Week:           groupByDay(week, now.Location()),
		Suggestions:    suggestions(week),
	}
}

func focusLines(events, tasks, high []*domain.Item) []string {
	seen := make(map[string]bool)
	var lines []string
	add := func(item *domain.Item) {
		if len(lines) >= MaxHighlights || seen[item.ID] {
			return
		}
		seen[item.ID] = true
		lines = append(lines, item.Title)
	}

	for i := 0; i < len(high) && i < 2; i++ {
		add(high[i])
	}
	if len(events) > 0 {
		add(events[0])
	}
	if len(tasks) > 0 {
		add(tasks[0])
	}
	return lines
}

func suggestions(week []*domain.Item) []string {
	var out []string
	for _, item := range week {
		if len(out) >= MaxHighlights {
			break
		}
		if item.Type == domain.ItemTypeEvent {
			out = append(out, "Prepare for "+item.Title)
		} else {
			out = append(out, "Work on "+item.Title)
		}
	}
	return out
}

func groupByDay(items []*domain.Item, loc *time.Location) []DayGroup {
	var groups []DayGroup
	for _, item := range items {
		day := view.StartOfDay(item.DueDate.In(loc))
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(day) {
			groups[n-1].Items = append(groups[n-1].Items, item)
			continue
		}
		groups = append(groups, DayGroup{Date: day, Items: []*domain.Item{item}})
	}
	return groups
}

// sortItems orders by due date, then urgency
func sortItems(items []*domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
		return domain.UrgencyRank(a.Urgency) < domain.UrgencyRank(b.Urgency)
	})
}
