// Package changefeed fans table-wide item change notifications out to
// in-process subscribers. Notifications carry no item data: receivers are
// expected to refetch whatever view they display.
package changefeed

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Op is the kind of mutation that happened on the items table
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one committed mutation
type Change struct {
	Op     Op        `json:"op"`
	ItemID string    `json:"item_id"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
	// Origin identifies the instance that produced the change, used to
	// suppress echoes when changes are relayed between instances.
	Origin string `json:"origin,omitempty"`
}

// Handler receives changes. It runs on the publisher's goroutine and must not block.
type Handler func(Change)

// Subscription is returned by Subscribe
type Subscription struct {
	feed *Feed
	id   uint64
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.feed == nil {
		return
	}
	s.feed.remove(s.id)
}

// Feed is a synchronous publish/subscribe hub
type Feed struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler
	origin   string
}

// New creates a feed stamping locally published changes with origin
func New(origin string) *Feed {
	return &Feed{
		handlers: make(map[uint64]Handler),
		origin:   origin,
	}
}

// Origin returns the instance id of this feed
func (f *Feed) Origin() string {
	return f.origin
}

// Subscribe registers fn for every subsequent change
func (f *Feed) Subscribe(fn Handler) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.handlers[f.nextID] = fn
	return &Subscription{feed: f, id: f.nextID}
}

func (f *Feed) remove(id uint64) {
	f.mu.Lock()
	delete(f.handlers, id)
	f.mu.Unlock()
}

// Len returns the number of active subscribers
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.handlers)
}

// Publish delivers c to every subscriber. An empty Origin is filled with the
// feed's own, and a zero At with the current time.
func (f *Feed) Publish(c Change) {
	if c.Origin == "" {
		c.Origin = f.origin
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}

	f.mu.RLock()
	handlers := make([]Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, c)
	}
}

func deliver(h Handler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("op", string(c.Op)).
				Str("item_id", c.ItemID).
				Str("panic", fmt.Sprint(r)).
				Msg("[ChangeFeed] subscriber panicked")
		}
	}()
	h(c)
}
