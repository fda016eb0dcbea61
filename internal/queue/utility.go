package queue

import (
	"container/heap"

	"github.com/msageha/ecosim/internal/model"
)

// Item is one pending entry in a Utility queue.
type Item[P any] struct {
	ID         uint64
	Subject    model.EntityID
	Payload    P
	Priority   int
	Score      float64
	EnqueuedAt model.Tick
}

// Utility is a max-heap queue ordered lexicographically by
// (priority, score): higher priority first, ties broken by higher score,
// residual ties in unspecified heap order.
//
// Duplicate subjects are rejected at Push rather than merged. A
// replace-if-better policy would serve producers better, but the reject
// behavior is load-bearing for callers that probe the returned id, so it
// stays until the merge semantics are agreed. Note that the id counter
// advances even for rejected pushes; the fresh id is observable but inert.
type Utility[P any] struct {
	items   utilityHeap[P]
	pending map[model.EntityID]struct{}
	nextID  uint64
}

// NewUtility creates an empty utility queue.
func NewUtility[P any]() *Utility[P] {
	return &Utility[P]{
		pending: make(map[model.EntityID]struct{}),
		nextID:  1,
	}
}

// Push enqueues an item for subject. The returned id is fresh either way;
// ok is false when the subject already has a pending item.
func (q *Utility[P]) Push(subject model.EntityID, payload P, priority int, score float64, tick model.Tick) (id uint64, ok bool) {
	id = q.nextID
	q.nextID++

	if _, dup := q.pending[subject]; dup {
		return id, false
	}
	q.pending[subject] = struct{}{}
	heap.Push(&q.items, Item[P]{
		ID:         id,
		Subject:    subject,
		Payload:    payload,
		Priority:   priority,
		Score:      score,
		EnqueuedAt: tick,
	})
	return id, true
}

// Pop removes and returns the best pending item.
func (q *Utility[P]) Pop() (Item[P], bool) {
	if q.items.Len() == 0 {
		return Item[P]{}, false
	}
	item := heap.Pop(&q.items).(Item[P])
	delete(q.pending, item.Subject)
	return item, true
}

// Drain removes and returns up to max items in heap order. max <= 0 drains
// everything pending.
func (q *Utility[P]) Drain(max int) []Item[P] {
	if max <= 0 || max > q.items.Len() {
		max = q.items.Len()
	}
	out := make([]Item[P], 0, max)
	for len(out) < max {
		item, ok := q.Pop()
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}

// Contains reports whether the subject has a pending item.
func (q *Utility[P]) Contains(subject model.EntityID) bool {
	_, ok := q.pending[subject]
	return ok
}

// Len returns the number of pending items.
func (q *Utility[P]) Len() int {
	return q.items.Len()
}

// RemoveIf drops every pending item matching pred and restores heap order.
// Returns how many were removed.
func (q *Utility[P]) RemoveIf(pred func(Item[P]) bool) int {
	kept := q.items[:0]
	removed := 0
	for _, item := range q.items {
		if pred(item) {
			delete(q.pending, item.Subject)
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	if removed > 0 {
		heap.Init(&q.items)
	}
	return removed
}

type utilityHeap[P any] []Item[P]

func (h utilityHeap[P]) Len() int { return len(h) }

func (h utilityHeap[P]) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Score > h[j].Score
}

func (h utilityHeap[P]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *utilityHeap[P]) Push(x any) {
	*h = append(*h, x.(Item[P]))
}

func (h *utilityHeap[P]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
