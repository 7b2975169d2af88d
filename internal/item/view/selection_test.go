package view

import (
	"testing"
	"time"

	"lifeos-backend/internal/item/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpansion_SingleExpandedItem(t *testing.T) {
	var e Expansion
	e.Toggle("a")
	assert.True(t, e.IsExpanded("a"))

	e.Toggle("b")
	assert.False(t, e.IsExpanded("a"))
	assert.True(t, e.IsExpanded("b"))

	e.Toggle("b")
	assert.Empty(t, e.Expanded())
}

func TestExpansion_ScopedPerList(t *testing.T) {
	var tasks, events Expansion
	tasks.Toggle("a")
	events.Toggle("b")
	assert.True(t, tasks.IsExpanded("a"))
	assert.True(t, events.IsExpanded("b"))
}

// manualTimer lets tests fire the grace callback explicitly
type manualTimer struct {
	fn      func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	m.stopped = true
	return true
}

type manualClock struct {
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, fn func()) Timer {
	t := &manualTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fireLast() {
	t := c.timers[len(c.timers)-1]
	if !t.stopped {
		t.fn()
	}
}

func TestDetailPanel_CloseKeepsSelectionUntilGraceElapses(t *testing.T) {
	clock := &manualClock{}
	panel := NewDetailPanel(0, clock.AfterFunc)
	item := &domain.Item{ID: "a"}

	var seen []PanelState
	cancel := panel.Subscribe(func(s PanelState) { seen = append(seen, s) })
	defer cancel()

	panel.Open(item)
	panel.Close()

	state := panel.State()
	assert.False(t, state.Open)
	assert.Same(t, item, state.Selected)

	clock.fireLast()
	assert.Nil(t, panel.State().Selected)
	require.Len(t, seen, 3)
	assert.True(t, seen[0].Open)
	assert.False(t, seen[1].Open)
	assert.Nil(t, seen[2].Selected)
}

func TestDetailPanel_ReopenCancelsPendingClear(t *testing.T) {
	clock := &manualClock{}
	panel := NewDetailPanel(time.Second, clock.AfterFunc)
	a := &domain.Item{ID: "a"}
	b := &domain.Item{ID: "b"}

	panel.Open(a)
	panel.HandleOutsideInteraction()
	pending := clock.timers[0]
	panel.Open(b)

	assert.True(t, pending.stopped)
	pending.fn() // a late fire must be ignored
	state := panel.State()
	assert.True(t, state.Open)
	assert.Same(t, b, state.Selected)
}

func TestDetailPanel_OutsideInteractionWhenClosedIsNoop(t *testing.T) {
	clock := &manualClock{}
	panel := NewDetailPanel(0, clock.AfterFunc)
	panel.HandleOutsideInteraction()
	assert.Empty(t, clock.timers)
}

func TestDetailPanel_StaleClearFromEarlierCloseIsIgnored(t *testing.T) {
	clock := &manualClock{}
	panel := NewDetailPanel(time.Second, clock.AfterFunc)
	a := &domain.Item{ID: "a"}

	panel.Open(a)
	panel.Close()
	panel.Open(a)
	panel.Close()
	require.Len(t, clock.timers, 2)

	clock.timers[0].fn()
	assert.Same(t, a, panel.State().Selected)

	clock.fireLast()
	assert.Nil(t, panel.State().Selected)
}

func TestDetailPanel_TimerFiringBeforeCloseReturns(t *testing.T) {
	immediate := func(_ time.Duration, fn func()) Timer {
		go fn()
		return &manualTimer{}
	}
	panel := NewDetailPanel(time.Nanosecond, immediate)
	panel.Open(&domain.Item{ID: "a"})
	panel.Close()
	assert.Eventually(t, func() bool { return panel.State().Selected == nil }, time.Second, time.Millisecond)
}

func TestDetailPanel_RealTimer(t *testing.T) {
	panel := NewDetailPanel(10*time.Millisecond, nil)
	panel.Open(&domain.Item{ID: "a"})
	panel.Close()
	assert.Eventually(t, func() bool { return panel.State().Selected == nil }, time.Second, 5*time.Millisecond)
}
