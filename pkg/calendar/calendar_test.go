package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestReminders(t *testing.T) {
	assert.Equal(t, []int64{10080, 1440, 60}, Reminders("high", false))
	assert.Equal(t, []int64{10080, 1440, 60, 120}, Reminders("HIGH", true))
	assert.Equal(t, []int64{4320, 1440}, Reminders("medium", false))
	assert.Equal(t, []int64{60}, Reminders("low", false))
	assert.Equal(t, []int64{60, 120}, Reminders("", true))
}

func TestBuildEvent(t *testing.T) {
	start := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	ev := BuildEvent(Event{
		Title:       "Dentist",
		Description: "cleaning",
		Category:    "Health",
		Location:    "Main St",
		Urgency:     "medium",
		Start:       start,
	}, "America/Los_Angeles")

	assert.Equal(t, "Dentist", ev.Summary)
	assert.Equal(t, "cleaning\nCategory: Health", ev.Description)
	assert.Equal(t, "2026-03-11T15:00:00Z", ev.Start.DateTime)
	assert.Equal(t, "2026-03-11T16:00:00Z", ev.End.DateTime)
	assert.Equal(t, "America/Los_Angeles", ev.Start.TimeZone)
	require.Len(t, ev.Reminders.Overrides, 3)
	assert.Equal(t, int64(120), ev.Reminders.Overrides[2].Minutes)
	assert.False(t, ev.Reminders.UseDefault)
}

// fakeCalendar serves the subset of the Events API used by Service
type fakeCalendar struct {
	mu     sync.Mutex
	events map[string]*gcal.Event
	nextID int
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// calendars/{calendarId}/events[/{eventId}]
	idx := -1
	for i, p := range parts {
		if p == "events" {
			idx = i
		}
	}
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	var eventID string
	if idx+1 < len(parts) {
		eventID = parts[idx+1]
	}

	notFound := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	}

	switch r.Method {
	case http.MethodPost:
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.nextID++
		ev.Id = "evt" + string(rune('0'+f.nextID))
		f.events[ev.Id] = &ev
		_ = json.NewEncoder(w).Encode(ev)
	case http.MethodPut:
		if _, ok := f.events[eventID]; !ok {
			notFound()
			return
		}
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		ev.Id = eventID
		f.events[eventID] = &ev
		_ = json.NewEncoder(w).Encode(ev)
	case http.MethodDelete:
		if _, ok := f.events[eventID]; !ok {
			notFound()
			return
		}
		delete(f.events, eventID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestService(t *testing.T) (*Service, *fakeCalendar) {
	t.Helper()
	fake := &fakeCalendar{events: map[string]*gcal.Event{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	api, err := gcal.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return newService(api.Events, "primary", "UTC"), fake
}

func TestService_UpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t)
	ev := Event{Title: "Dentist", Start: time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)}

	id, err := svc.Upsert(ctx, "", ev)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ev.Title = "Dentist (moved)"
	same, err := svc.Upsert(ctx, id, ev)
	require.NoError(t, err)
	assert.Equal(t, id, same)
	assert.Equal(t, "Dentist (moved)", fake.events[id].Summary)

	require.NoError(t, svc.Delete(ctx, id))
	assert.Empty(t, fake.events)

	// Deleting twice is not an error
	require.NoError(t, svc.Delete(ctx, id))

	// Updating a vanished event recreates it
	recreated, err := svc.Upsert(ctx, id, ev)
	require.NoError(t, err)
	assert.NotEqual(t, id, recreated)
}

func TestNewService_RequiresCredentials(t *testing.T) {
	_, err := NewService(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
