package notify

import (
	"fmt"
	"testing"
)

func TestPublishAndDrain(t *testing.T) {
	c := NewCenter()

	c.Publish(Event{Type: EventSearchResult, Title: "Result", Message: "first"})
	c.Publish(Event{Type: EventEmail, Title: "Email Sent", Message: "second"})

	if got := c.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	events := c.Drain()
	if len(events) != 2 {
		t.Fatalf("Drain() returned %d events, want 2", len(events))
	}
	if events[0].Message != "first" || events[1].Message != "second" {
		t.Errorf("events out of order: %v", events)
	}
	if events[0].At.IsZero() {
		t.Error("event not timestamped on publish")
	}

	// Draining is destructive.
	if got := c.Pending(); got != 0 {
		t.Errorf("Pending() after drain = %d, want 0", got)
	}
	if events := c.Drain(); len(events) != 0 {
		t.Errorf("second Drain() returned %d events", len(events))
	}
}

func TestPublishDropsOldestAtCapacity(t *testing.T) {
	c := NewCenter()

	for i := 0; i < maxQueued+10; i++ {
		c.Publish(Event{Type: EventSearchResult, Message: fmt.Sprintf("event-%d", i)})
	}

	if got := c.Pending(); got != maxQueued {
		t.Fatalf("Pending() = %d, want %d", got, maxQueued)
	}

	events := c.Drain()
	if events[0].Message != "event-10" {
		t.Errorf("oldest surviving event = %q, want event-10", events[0].Message)
	}
	if last := events[len(events)-1].Message; last != fmt.Sprintf("event-%d", maxQueued+9) {
		t.Errorf("newest event = %q", last)
	}
}
