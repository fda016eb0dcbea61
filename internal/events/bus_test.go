package events

import (
	"sync"
	"testing"
	"time"
)

func TestBusDeliverAndUnsubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{}, 1)

	unsub := bus.Subscribe(EventActionCompleted, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		done <- struct{}{}
	})

	bus.Publish(Event{Type: EventActionCompleted, Subject: 7, Tick: 12, Detail: "rest"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	mu.Lock()
	if len(got) != 1 || got[0].Subject != 7 || got[0].Tick != 12 {
		t.Errorf("got %+v", got)
	}
	mu.Unlock()

	unsub()
	// Publish after unsubscribe must not panic or deliver.
	bus.Publish(Event{Type: EventActionCompleted, Subject: 8})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	if len(got) != 1 {
		t.Errorf("received %d events after unsubscribe, want 1", len(got))
	}
	mu.Unlock()
}

func TestBusTypeFiltering(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	failed := make(chan Event, 1)
	bus.Subscribe(EventActionFailed, func(e Event) { failed <- e })

	bus.Publish(Event{Type: EventActionCompleted, Subject: 1})
	bus.Publish(Event{Type: EventActionFailed, Subject: 2})

	select {
	case e := <-failed:
		if e.Subject != 2 {
			t.Errorf("subject = %v, want 2", e.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("failed event not delivered")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	block := make(chan struct{})
	bus.Subscribe(EventPathFailed, func(Event) { <-block })

	// Flood well past the buffer; Publish must never block.
	for i := 0; i < 50; i++ {
		bus.Publish(Event{Type: EventPathFailed, Subject: 1})
	}
	close(block)
}

func TestBusPanickingSubscriberRecovered(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	ok := make(chan struct{}, 1)
	bus.Subscribe(EventEntityDespawned, func(Event) { panic("boom") })
	bus.Subscribe(EventEntityDespawned, func(Event) { ok <- struct{}{} })

	bus.Publish(Event{Type: EventEntityDespawned, Subject: 3})

	select {
	case <-ok:
	case <-time.After(time.Second):
		t.Fatal("second subscriber starved by panicking first")
	}
}
