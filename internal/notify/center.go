// Package notify queues user-facing notifications. Searches fired by
// alarms run with nobody watching, so their outcomes are held here
// until a client drains them.
package notify

import (
	"sync"
	"time"
)

// EventType labels what a notification is about.
type EventType string

const (
	EventSearchResult EventType = "SEARCH_RESULT"
	EventSearchError  EventType = "SEARCH_ERROR"
	EventEmail        EventType = "EMAIL"
	EventAlarmFired   EventType = "ALARM_FIRED"
)

// Event is one queued notification.
type Event struct {
	Type    EventType `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`

	// ResetFields tells clients to clear their search inputs, set
	// only on a successful seat match.
	ResetFields bool `json:"resetFields,omitempty"`
}

// Reasonable upper bound; far beyond what an unattended service
// accumulates between drains.
const maxQueued = 512

// Center is the in-memory notification queue. Publish never blocks the
// coordinator; Drain hands everything queued to the caller and clears.
type Center struct {
	mu     sync.Mutex
	events []Event
}

func NewCenter() *Center {
	return &Center{}
}

// Publish appends an event. When the queue is saturated the oldest
// event is dropped to make room.
func (c *Center) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) >= maxQueued {
		c.events = c.events[1:]
	}
	c.events = append(c.events, e)
}

// Drain returns all queued events in publish order and clears the
// queue.
func (c *Center) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.events
	c.events = nil
	return out
}

// Pending reports the number of queued events.
func (c *Center) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
