package view

import (
	"sync"
	"time"

	"lifeos-backend/internal/item/domain"
)

// Expansion tracks the single expanded item of one list. Each list owns its own.
type Expansion struct {
	mu       sync.Mutex
	expanded string
}

// Toggle expands id, collapsing whatever was expanded before. Toggling the
// expanded id collapses it.
func (e *Expansion) Toggle(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expanded == id {
		e.expanded = ""
		return
	}
	e.expanded = id
}

// Collapse clears the expansion
func (e *Expansion) Collapse() {
	e.mu.Lock()
	e.expanded = ""
	e.mu.Unlock()
}

// Expanded returns the expanded id, or "" when nothing is expanded
func (e *Expansion) Expanded() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded
}

// IsExpanded reports whether id is the expanded item
func (e *Expansion) IsExpanded(id string) bool {
	return id != "" && e.Expanded() == id
}

// DefaultCloseGrace is how long a closed panel keeps its selection
const DefaultCloseGrace = 300 * time.Millisecond

// PanelState is what subscribers of a DetailPanel observe
type PanelState struct {
	Open     bool
	Selected *domain.Item
}

// Timer is the subset of *time.Timer the panel needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via a wrapper.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DetailPanel holds at most one selected item. Closing hides the panel at
// once but keeps the selection for a grace period, unless reopened.
type DetailPanel struct {
	mu        sync.Mutex
	open      bool
	selected  *domain.Item
	grace     time.Duration
	afterFunc AfterFunc
	pending   Timer
	gen       uint64
	nextSub   int
	subs      map[int]func(PanelState)
}

// NewDetailPanel creates a closed panel. A zero grace uses DefaultCloseGrace
// and a nil afterFunc uses time.AfterFunc.
func NewDetailPanel(grace time.Duration, afterFunc AfterFunc) *DetailPanel {
	if grace <= 0 {
		grace = DefaultCloseGrace
	}
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &DetailPanel{
		grace:     grace,
		afterFunc: afterFunc,
		subs:      make(map[int]func(PanelState)),
	}
}

// Subscribe registers fn for state changes and returns a cancel func
func (p *DetailPanel) Subscribe(fn func(PanelState)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSub++
	id := p.nextSub
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// State returns a snapshot of the panel
func (p *DetailPanel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PanelState{Open: p.open, Selected: p.selected}
}

// Open selects item and shows the panel, cancelling any pending clear
func (p *DetailPanel) Open(item *domain.Item) {
	p.mu.Lock()
	p.stopPendingLocked()
	p.open = true
	p.selected = item
	p.notifyLocked()
}

// Close hides the panel and schedules the selection to be cleared
func (p *DetailPanel) Close() {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	p.open = false
	p.stopPendingLocked()
	gen := p.gen
	p.pending = p.afterFunc(p.grace, func() { p.clearSelection(gen) })
	p.notifyLocked()
}

// HandleOutsideInteraction closes the panel when it is open
func (p *DetailPanel) HandleOutsideInteraction() {
	p.Close()
}

func (p *DetailPanel) clearSelection(gen uint64) {
	p.mu.Lock()
	// a reopen or a newer close replaced this timer
	if p.open || p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.pending = nil
	p.selected = nil
	p.notifyLocked()
}

// stopPendingLocked cancels the pending clear and invalidates any callback
// that already fired.
func (p *DetailPanel) stopPendingLocked() {
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

// notifyLocked snapshots state and subscribers, then releases the lock
// before calling out.
func (p *DetailPanel) notifyLocked() {
	state := PanelState{Open: p.open, Selected: p.selected}
	subs := make([]func(PanelState), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}
