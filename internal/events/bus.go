// Package events carries completion notifications out of the schedulers so
// producers (the planner, movement) can react without polling.
package events

import (
	"sync"

	"github.com/msageha/ecosim/internal/model"
)

// EventType represents the type of event being published.
type EventType string

const (
	// EventActionCompleted is published when an action finishes successfully.
	EventActionCompleted EventType = "action_completed"
	// EventActionFailed is published when an action fails validation or execution.
	EventActionFailed EventType = "action_failed"
	// EventPathFailed is published when a route computation fails.
	EventPathFailed EventType = "path_failed"
	// EventEntityDespawned is published when orphaned work is dropped.
	EventEntityDespawned EventType = "entity_despawned"
)

// Event is one simulation notification.
type Event struct {
	Type    EventType
	Subject model.EntityID
	Tick    model.Tick
	Detail  string
}

// Subscriber is a function that receives events.
type Subscriber func(Event)

// Bus is a non-blocking publish/subscribe bus. Events are delivered
// asynchronously via buffered channels; if a subscriber's channel is full
// the event is dropped silently so a slow consumer can never stall a tick.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
}

// NewBus creates an event bus with the given buffer size per subscriber.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a subscriber for one event type and returns an
// unsubscribe function. The subscriber runs on its own goroutine.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	go func() {
		for event := range ch {
			func() {
				defer func() {
					// A panicking subscriber must not take the bus down.
					_ = recover()
				}()
				fn(event)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subscribers[eventType]
		for i, subCh := range subs {
			if subCh == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish sends an event to all subscribers of its type without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// Channel full; drop rather than stall the tick.
		}
	}
}

// Close closes all subscriber channels and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, eventType)
	}
}
