package digest

import (
	"fmt"
	"strings"
	"time"

	"lifeos-backend/internal/item/domain"
)

const (
	ruleHeavy = "=================================================="
	noteLimit = 60
)

// Subject renders the email subject line for a brief
func Subject(b *Brief) string {
	if b.Kind == KindNight {
		return "Night Brief: " + b.Date.Format("Monday, January 2")
	}
	return "Morning Brief: " + b.Date.Format("Monday, January 2")
}

// Format renders a brief as plain text
func Format(b *Brief) string {
	if b.Kind == KindNight {
		return formatNight(b)
	}
	return formatMorning(b)
}

func formatMorning(b *Brief) string {
	var w textWriter
	w.line("MORNING BRIEF: " + b.Date.Format("Monday, January 2"))
	w.line(ruleHeavy)
	w.blank()

	w.heading("TODAY'S SCHEDULE")
	if len(b.Events) == 0 {
		w.line("Nothing scheduled. Open day.")
		w.blank()
	}
	for _, ev := range b.Events {
		w.event(ev, b.Date.Location())
		if ev.Urgency == domain.UrgencyHigh {
			w.line("         ! high urgency")
		}
		w.blank()
	}

	w.blank()
	w.heading("MUST DO TODAY")
	highIDs := make(map[string]bool, len(b.HighPriority))
	for _, item := range b.HighPriority {
		highIDs[item.ID] = true
		w.line("!! " + item.Title)
		if item.DueDate != nil {
			w.line("   due " + formatDay(item.DueDate.In(b.Date.Location())))
		}
		w.blank()
	}
	other := 0
	for _, task := range b.Tasks {
		if highIDs[task.ID] {
			continue
		}
		other++
		if b.IsOverdue(task) {
			w.line("[ ] " + task.Title + " (overdue since " + formatDay(task.DueDate.In(b.Date.Location())) + ")")
		} else {
			w.line("[ ] " + task.Title)
		}
		if task.Notes != "" {
			w.line("    " + truncate(task.Notes, noteLimit))
		}
		w.blank()
	}
	if len(b.HighPriority) == 0 && other == 0 {
		w.line("No deadlines today.")
		w.blank()
	}

	w.blank()
	w.heading("TODAY'S FOCUS")
	w.line("Based on what's on your plate, here's what matters most:")
	w.blank()
	w.numbered(b.Focus, "Enjoy your open day!")

	w.blank()
	w.line(ruleHeavy)
	w.line("Have a good day.")
	return w.String()
}

func formatNight(b *Brief) string {
	loc := b.Date.Location()

	var w textWriter
	w.line("NIGHT BRIEF: " + b.Date.Format("Monday, January 2"))
	w.line(ruleHeavy)
	w.blank()

	w.heading("TOMORROW")
	w.line(b.Tomorrow.Format("Monday, January 2"))
	w.blank()
	if len(b.TomorrowEvents) == 0 {
		w.line("Nothing scheduled tomorrow.")
		w.blank()
	}
	for _, ev := range b.TomorrowEvents {
		w.event(ev, loc)
		w.blank()
	}

	if len(b.Week) > 0 {
		w.blank()
		w.heading("THIS WEEK")
		for _, group := range b.Week {
			w.line(group.Date.Format("Monday (Jan 02)"))
			for _, item := range group.Items {
				marker := ""
				if item.Urgency == domain.UrgencyHigh {
					marker = " !!"
				}
				w.line("  * " + item.Title + marker)
			}
			w.blank()
		}
	}

	w.blank()
	w.heading("CONSIDER FOR TOMORROW")
	w.line("Based on your week and what's coming up:")
	w.blank()
	w.numbered(b.Suggestions, "Rest up, tomorrow looks manageable!")

	w.blank()
	w.line(ruleHeavy)
	w.line("Rest well. Tomorrow's got a plan.")
	return w.String()
}

// FormatClock renders a time as "3 PM" or "3:30 PM"
func FormatClock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3 PM")
	}
	return t.Format("3:04 PM")
}

func formatDay(t time.Time) string {
	return t.Format("Mon Jan 2") + ", " + FormatClock(t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) line(s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}

func (w *textWriter) blank() {
	w.WriteByte('\n')
}

func (w *textWriter) heading(s string) {
	w.line(s)
	w.line(strings.Repeat("-", len(s)))
}

func (w *textWriter) event(ev *domain.Item, loc *time.Location) {
	when := "TBD"
	if ev.DueDate != nil {
		when = FormatClock(ev.DueDate.In(loc))
	}
	w.line(when + " - " + ev.Title)
	if ev.Location != "" {
		w.line("         @ " + ev.Location)
	}
}

func (w *textWriter) numbered(lines []string, empty string) {
	if len(lines) == 0 {
		w.line("1. " + empty)
		return
	}
	for i, l := range lines {
		w.line(fmt.Sprintf("%d. %s", i+1, l))
	}
}
