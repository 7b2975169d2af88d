// Package sse streams server-sent events to connected dashboard clients.
package sse

import (
	"sync"
	"sync/atomic"
	"time"

	"lifeos-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Event is one named server-sent event
type Event struct {
	Name string
	Data interface{}
}

type subscription struct {
	userID string
	ch     chan Event
}

type message struct {
	userID string // empty means every client
	event  Event
}

// Manager is a hub owning every client channel. All channel sends and
// closes happen on the Run goroutine.
type Manager struct {
	clients    map[string]map[chan Event]struct{}
	register   chan subscription
	unregister chan subscription
	messages   chan message
	done       chan struct{}
	stopOnce   sync.Once
	connected  atomic.Int64
	heartbeat  time.Duration
}

// NewManager creates a hub. Call Run before serving clients.
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[chan Event]struct{}),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		messages:   make(chan message, 256),
		done:       make(chan struct{}),
		heartbeat:  30 * time.Second,
	}
}

// Run processes registrations and deliveries until Stop is called
func (m *Manager) Run() {
	for {
		select {
		case s := <-m.register:
			if m.clients[s.userID] == nil {
				m.clients[s.userID] = make(map[chan Event]struct{})
			}
			m.clients[s.userID][s.ch] = struct{}{}
			m.connected.Add(1)
			metrics.SSEClients.Inc()
			log.Debug().Str("user_id", s.userID).Msg("[SSE] client connected")

		case s := <-m.unregister:
			if set, ok := m.clients[s.userID]; ok {
				if _, ok := set[s.ch]; ok {
					delete(set, s.ch)
					close(s.ch)
					m.connected.Add(-1)
					metrics.SSEClients.Dec()
				}
				if len(set) == 0 {
					delete(m.clients, s.userID)
				}
			}
			log.Debug().Str("user_id", s.userID).Msg("[SSE] client disconnected")

		case msg := <-m.messages:
			for userID, set := range m.clients {
				if msg.userID != "" && msg.userID != userID {
					continue
				}
				for ch := range set {
					select {
					case ch <- msg.event:
					default:
						log.Warn().Str("user_id", userID).Str("event", msg.event.Name).Msg("[SSE] client buffer full, event dropped")
					}
				}
			}

		case <-m.done:
			for _, set := range m.clients {
				for ch := range set {
					close(ch)
				}
			}
			m.clients = make(map[string]map[chan Event]struct{})
			metrics.SSEClients.Sub(float64(m.connected.Swap(0)))
			return
		}
	}
}

// Stop ends Run and disconnects every client. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// Connected returns the number of open client streams
func (m *Manager) Connected() int {
	return int(m.connected.Load())
}

// SendToUser queues an event for every stream of userID. It never blocks;
// when the hub is saturated the event is dropped.
func (m *Manager) SendToUser(userID, event string, data interface{}) {
	m.enqueue(message{userID: userID, event: Event{Name: event, Data: data}})
}

// Broadcast queues an event for every connected stream
func (m *Manager) Broadcast(event string, data interface{}) {
	m.enqueue(message{event: Event{Name: event, Data: data}})
}

func (m *Manager) enqueue(msg message) {
	select {
	case m.messages <- msg:
	default:
		log.Warn().Str("event", msg.event.Name).Msg("[SSE] hub queue full, event dropped")
	}
}

// ServeHTTP streams events for userID until the client goes away
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	sub := subscription{userID: userID, ch: make(chan Event, 16)}
	select {
	case m.register <- sub:
	case <-m.done:
		c.Status(503)
		return
	}
	defer func() {
		select {
		case m.unregister <- sub:
		case <-m.done:
		}
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"user_id": userID})
	c.Writer.Flush()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.ch:
			if !ok {
				return
			}
			c.SSEvent(ev.Name, ev.Data)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}
