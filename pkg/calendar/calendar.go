package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// EventDuration is the length given to every mirrored event
const EventDuration = time.Hour

// maxReminders is the Calendar API limit on reminder overrides
const maxReminders = 5

// ErrNotConfigured is returned by NewService when no credentials are set
var ErrNotConfigured = errors.New("calendar is not configured")

// Event is the calendar projection of an item
type Event struct {
	Title       string
	Description string
	Category    string
	Notes       string
	Location    string
	Urgency     string // "high", "medium", "low" or empty
	Start       time.Time
}

// Syncer mirrors items to an external calendar. Upsert returns the event id,
// which is new when existingID is empty or the old event no longer exists.
type Syncer interface {
	Upsert(ctx context.Context, existingID string, ev Event) (string, error)
	Delete(ctx context.Context, eventID string) error
}

// Options configure the Google Calendar service
type Options struct {
	CalendarID      string
	Timezone        string
	CredentialsFile string // service account; takes precedence
	ClientID        string
	ClientSecret    string
	RefreshToken    string
}

type Service struct {
	events     *gcal.EventsService
	calendarID string
	timezone   string
}

// NewService builds a Calendar v3 client from a service account file or an
// OAuth refresh token.
func NewService(ctx context.Context, opts Options) (*Service, error) {
	var clientOpt option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpt = option.WithCredentialsFile(opts.CredentialsFile)
	case opts.RefreshToken != "" && opts.ClientID != "":
		conf := &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarEventsScope},
		}
		ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.RefreshToken})
		clientOpt = option.WithTokenSource(ts)
	default:
		return nil, ErrNotConfigured
	}

	srv, err := gcal.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return newService(srv.Events, calendarID, opts.Timezone), nil
}

func newService(events *gcal.EventsService, calendarID, timezone string) *Service {
	if timezone == "" {
		timezone = "UTC"
	}
	return &Service{events: events, calendarID: calendarID, timezone: timezone}
}

func (s *Service) Upsert(ctx context.Context, existingID string, ev Event) (string, error) {
	body := BuildEvent(ev, s.timezone)

	if existingID != "" {
		updated, err := s.events.Update(s.calendarID, existingID, body).Context(ctx).Do()
		if err == nil {
			log.Debug().Str("event_id", updated.Id).Msg("[Calendar] Event updated")
			return updated.Id, nil
		}
		if !isGone(err) {
			return "", fmt.Errorf("failed to update calendar event: %w", err)
		}
		log.Warn().Str("event_id", existingID).Msg("[Calendar] Event missing, recreating")
	}

	created, err := s.events.Insert(s.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	log.Info().Str("event_id", created.Id).Msg("[Calendar] Event created")
	return created.Id, nil
}

func (s *Service) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	err := s.events.Delete(s.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			log.Warn().Str("event_id", eventID).Msg("[Calendar] Event not found, may have been deleted")
			return nil
		}
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	log.Info().Str("event_id", eventID).Msg("[Calendar] Event deleted")
	return nil
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

// BuildEvent renders the Calendar API body for an event
func BuildEvent(ev Event, timezone string) *gcal.Event {
	var desc []string
	if ev.Description != "" {
		desc = append(desc, ev.Description)
	}
	if ev.Category != "" {
		desc = append(desc, "Category: "+ev.Category)
	}
	if ev.Notes != "" {
		desc = append(desc, "Notes: "+ev.Notes)
	}

	overrides := make([]*gcal.EventReminder, 0, maxReminders)
	for _, m := range Reminders(ev.Urgency, ev.Location != "") {
		overrides = append(overrides, &gcal.EventReminder{Method: "popup", Minutes: m})
	}

	return &gcal.Event{
		Summary:     ev.Title,
		Description: strings.Join(desc, "\n"),
		Location:    ev.Location,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.Start.Add(EventDuration).Format(time.RFC3339),
			TimeZone: timezone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

// Reminders returns popup offsets in minutes before start. Unknown or empty
// urgency is treated as low. A location adds a two hour travel buffer.
func Reminders(urgency string, hasLocation bool) []int64 {
	var mins []int64
	switch strings.ToLower(urgency) {
	case "high":
		mins = []int64{10080, 1440, 60}
	case "medium":
		mins = []int64{4320, 1440}
	default:
		mins = []int64{60}
	}
	if hasLocation {
		mins = append(mins, 120)
	}

	seen := make(map[int64]bool, len(mins))
	out := make([]int64, 0, len(mins))
	for _, m := range mins {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(out) > maxReminders {
		out = out[:maxReminders]
	}
	return out
}
