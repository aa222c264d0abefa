// Package realtime fans snapshot lifecycle events out to live sessions.
//
// Delivery is best effort: each listener has its own buffered channel and a
// full buffer drops the event for that listener only, so a slow WebSocket
// client never holds up a reload.
package realtime

import (
	"sync"
	"time"
)

// EventSnapshot is emitted each time a reloaded snapshot settles.
const EventSnapshot = "snapshot"

// Event describes a settled load.
type Event struct {
	Type   string    `json:"type"`
	Status string    `json:"status"`
	Tags   int       `json:"tags"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// NewSnapshotEvent builds the event for a settled load.
func NewSnapshotEvent(status string, tags int, err error) Event {
	ev := Event{
		Type:   EventSnapshot,
		Status: status,
		Tags:   tags,
		At:     time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Hub is an in-memory fan-out dispatcher. It is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 8 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener that has room for it.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// dropped for this listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
