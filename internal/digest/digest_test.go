package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/internal/item/repository"
	"lifeos-backend/pkg/gmail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var la = mustLoad("America/Los_Angeles")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func at(day, hour, minute int) *time.Time {
	t := time.Date(2026, 3, day, hour, minute, 0, 0, la)
	return &t
}

func seed(t *testing.T, items ...*domain.Item) *repository.MemoryItemRepository {
	t.Helper()
	repo := repository.NewMemoryItemRepository()
	for _, item := range items {
		if item.UserID == "" {
			item.UserID = "owner"
		}
		require.NoError(t, repo.Create(context.Background(), item))
	}
	return repo
}

func fixtures() []*domain.Item {
	return []*domain.Item{
		{Type: domain.ItemTypeEvent, Title: "Dentist", DueDate: at(10, 15, 0), Location: "Main St", Urgency: domain.UrgencyHigh},
		{Type: domain.ItemTypeTask, Title: "Pay rent", DueDate: at(10, 17, 0), Notes: "landlord prefers transfer"},
		{Type: domain.ItemTypeTask, Title: "Renew passport", Urgency: domain.UrgencyHigh},
		{Type: domain.ItemTypeTask, Title: "Already done", DueDate: at(10, 9, 0), Status: domain.StatusComplete},
		{Type: domain.ItemTypeEvent, Title: "Standup", DueDate: at(11, 9, 30)},
		{Type: domain.ItemTypeTask, Title: "File taxes", DueDate: at(13, 12, 0), Urgency: domain.UrgencyHigh},
		{Type: domain.ItemTypeTask, Title: "Too far out", DueDate: at(18, 8, 0)},
		{Type: domain.ItemTypeIdea, Title: "Read Dune"},
		{Type: domain.ItemTypeTask, Title: "Someone else's", DueDate: at(10, 12, 0), UserID: "other"},
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	msgs []gmail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg gmail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func newTestService(t *testing.T, now time.Time, mailer gmail.Mailer) *Service {
	s := NewService(seed(t, fixtures()...), mailer, la, "brief@example.com", "me@example.com, you@example.com")
	s.now = func() time.Time { return now }
	return s
}

func titles(items []*domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestMorningBrief(t *testing.T) {
	s := newTestService(t, *at(10, 7, 0), nil)

	b, err := s.Build(context.Background(), "owner", KindMorning)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dentist"}, titles(b.Events))
	assert.Equal(t, []string{"Pay rent"}, titles(b.Tasks))
	// Dated high-urgency tasks sort ahead of undated ones
	assert.Equal(t, []string{"File taxes", "Renew passport"}, titles(b.HighPriority))
	assert.Equal(t, []string{"File taxes", "Renew passport", "Dentist"}, b.Focus)

	text := Format(b)
	assert.Contains(t, text, "MORNING BRIEF: Tuesday, March 10")
	assert.Contains(t, text, "3 PM - Dentist")
	assert.Contains(t, text, "@ Main St")
	assert.Contains(t, text, "!! Renew passport")
	assert.Contains(t, text, "!! File taxes\n   due Fri Mar 13, 12 PM")
	assert.Contains(t, text, "[ ] Pay rent")
	assert.Contains(t, text, "1. File taxes")
	assert.NotContains(t, text, "Already done")
	assert.NotContains(t, text, "Someone else's")
	assert.Equal(t, "Morning Brief: Tuesday, March 10", Subject(b))
}

func TestMorningBrief_Empty(t *testing.T) {
	b := BuildMorning(nil, *at(10, 7, 0))
	text := Format(b)
	assert.Contains(t, text, "Nothing scheduled. Open day.")
	assert.Contains(t, text, "No deadlines today.")
	assert.Contains(t, text, "1. Enjoy your open day!")
}

func TestMorningBrief_IncludesOverdueTasks(t *testing.T) {
	items := []*domain.Item{
		{ID: "a", Type: domain.ItemTypeTask, Title: "Pay rent", DueDate: at(10, 17, 0)},
		{ID: "b", Type: domain.ItemTypeTask, Title: "Return library books", DueDate: at(9, 12, 0), Urgency: domain.UrgencyMedium},
		{ID: "c", Type: domain.ItemTypeTask, Title: "Call insurer", DueDate: at(8, 9, 0), Urgency: domain.UrgencyHigh},
		{ID: "d", Type: domain.ItemTypeTask, Title: "Old and done", DueDate: at(7, 9, 0), Status: domain.StatusComplete},
	}
	b := BuildMorning(items, *at(10, 7, 0))

	assert.Equal(t, []string{"Call insurer", "Return library books", "Pay rent"}, titles(b.Tasks))
	assert.Equal(t, []string{"Call insurer"}, titles(b.HighPriority), "overdue high-urgency task is listed once")
	assert.Equal(t, []string{"Call insurer"}, b.Focus)
	assert.True(t, b.IsOverdue(items[1]))
	assert.False(t, b.IsOverdue(items[0]))

	text := Format(b)
	assert.Contains(t, text, "[ ] Return library books (overdue since Mon Mar 9, 12 PM)")
	assert.Contains(t, text, "[ ] Pay rent\n")
	assert.NotContains(t, text, "No deadlines today.")
	assert.NotContains(t, text, "Old and done")
}

func TestNightBrief(t *testing.T) {
	s := newTestService(t, *at(10, 21, 0), nil)

	b, err := s.Build(context.Background(), "owner", KindNight)
	require.NoError(t, err)
	assert.Equal(t, []string{"Standup"}, titles(b.TomorrowEvents))
	require.Len(t, b.Week, 2)
	assert.Equal(t, 11, b.Week[0].Date.Day())
	assert.Equal(t, []string{"File taxes"}, titles(b.Week[1].Items))
	assert.Equal(t, []string{"Prepare for Standup", "Work on File taxes"}, b.Suggestions)

	text := Format(b)
	assert.Contains(t, text, "NIGHT BRIEF: Tuesday, March 10")
	assert.Contains(t, text, "Wednesday, March 11")
	assert.Contains(t, text, "9:30 AM - Standup")
	assert.Contains(t, text, "Friday (Mar 13)")
	assert.Contains(t, text, "  * File taxes !!")
	assert.NotContains(t, text, "Too far out")
	assert.Equal(t, "Night Brief: Tuesday, March 10", Subject(b))
}

func TestSuggestionsCapped(t *testing.T) {
	var items []*domain.Item
	for i := 0; i < 5; i++ {
		items = append(items, &domain.Item{ID: string(rune('a' + i)), Type: domain.ItemTypeTask, Title: "t", DueDate: at(12, 8+i, 0)})
	}
	b := BuildNight(items, *at(10, 21, 0))
	assert.Len(t, b.Suggestions, MaxHighlights)
	require.Len(t, b.Week, 1)
	assert.Len(t, b.Week[0].Items, 5)
}

func TestSend(t *testing.T) {
	mailer := &recordingMailer{}
	s := newTestService(t, *at(10, 7, 0), mailer)

	body, err := s.Send(context.Background(), "owner", KindMorning)
	require.NoError(t, err)
	require.Len(t, mailer.msgs, 1)
	msg := mailer.msgs[0]
	assert.Equal(t, []string{"me@example.com", "you@example.com"}, msg.To)
	assert.Equal(t, "brief@example.com", msg.From)
	assert.Equal(t, "Morning Brief: Tuesday, March 10", msg.Subject)
	assert.Equal(t, body, msg.Body)
}

func TestSend_Failures(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("quota")}
	s := newTestService(t, *at(10, 7, 0), mailer)
	body, err := s.Send(context.Background(), "owner", KindNight)
	assert.Error(t, err)
	assert.NotEmpty(t, body)

	repo := repository.NewMemoryItemRepository()
	repo.FailWith(domain.ErrStoreUnreachable)
	s = NewService(repo, mailer, la, "", "")
	_, err = s.Send(context.Background(), "owner", KindMorning)
	assert.ErrorIs(t, err, domain.ErrStoreUnreachable)

	_, err = s.Build(context.Background(), "owner", Kind("noon"))
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Night ")
	require.NoError(t, err)
	assert.Equal(t, KindNight, k)
	_, err = ParseKind("noon")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "12 AM", FormatClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1:05 PM", FormatClock(time.Date(2026, 1, 1, 13, 5, 0, 0, time.UTC)))
}

func TestScheduler(t *testing.T) {
	mailer := &recordingMailer{}
	s := newTestService(t, *at(10, 7, 0), mailer)

	_, err := NewScheduler(s, la, "every morning", "", func() string { return "owner" })
	assert.Error(t, err)

	sched, err := NewScheduler(s, la, "0 0 7 * * *", "", func() string { return "owner" })
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Jobs())

	sched.run(KindMorning)
	assert.Len(t, mailer.msgs, 1)

	noOwner, err := NewScheduler(s, la, "0 0 7 * * *", "0 0 21 * * *", func() string { return "" })
	require.NoError(t, err)
	assert.Equal(t, 2, noOwner.Jobs())
	noOwner.run(KindNight)
	assert.Len(t, mailer.msgs, 1)

	sched.Start()
	sched.Stop()
}
