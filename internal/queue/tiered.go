// Package queue provides the two pending-request queues used by the
// schedulers: a three-lane tiered FIFO with key deduplication, and a
// max-heap ordered by (priority, score).
//
// Both queues hold only not-yet-started requests; in-progress work lives in
// the scheduler's active table. Neither queue is safe for concurrent use —
// the tick loop owns them exclusively while draining.
package queue

import (
	"github.com/msageha/ecosim/internal/model"
)

// Request is one pending unit of work in a tiered queue. It is immutable
// once enqueued and consumed on drain.
type Request[P any] struct {
	Subject    model.EntityID
	Payload    P
	Tier       model.Tier
	EnqueuedAt model.Tick
}

// KeyFunc derives the deduplication key for a request.
type KeyFunc[P any, K comparable] func(subject model.EntityID, payload P) K

// Tiered is a three-lane FIFO queue with O(1) duplicate rejection.
// Urgent drains fully before Normal, Normal before Lazy; insertion order is
// preserved within a lane.
type Tiered[P any, K comparable] struct {
	lanes   [3][]Request[P]
	pending map[K]struct{}
	keyFn   KeyFunc[P, K]
}

// NewTiered creates an empty tiered queue deduplicating on keyFn.
func NewTiered[P any, K comparable](keyFn KeyFunc[P, K]) *Tiered[P, K] {
	return &Tiered[P, K]{
		pending: make(map[K]struct{}),
		keyFn:   keyFn,
	}
}

// Push enqueues a request. It returns false without queuing when a request
// with the same key is already pending.
func (q *Tiered[P, K]) Push(subject model.EntityID, payload P, tier model.Tier, tick model.Tick) bool {
	key := q.keyFn(subject, payload)
	if _, dup := q.pending[key]; dup {
		return false
	}
	q.pending[key] = struct{}{}
	q.lanes[tier] = append(q.lanes[tier], Request[P]{
		Subject:    subject,
		Payload:    payload,
		Tier:       tier,
		EnqueuedAt: tick,
	})
	return true
}

// Drain removes and returns up to max requests, urgent lane first, then
// normal, then lazy, FIFO within each lane. It never blocks; fewer than max
// pending requests yields a short batch.
func (q *Tiered[P, K]) Drain(max int) []Request[P] {
	if max <= 0 {
		return nil
	}
	out := make([]Request[P], 0, max)
	for lane := range q.lanes {
		for len(out) < max && len(q.lanes[lane]) > 0 {
			req := q.lanes[lane][0]
			q.lanes[lane] = q.lanes[lane][1:]
			delete(q.pending, q.keyFn(req.Subject, req.Payload))
			out = append(out, req)
		}
		if len(out) == max {
			break
		}
	}
	return out
}

// Contains reports whether a request with the given key is pending.
func (q *Tiered[P, K]) Contains(key K) bool {
	_, ok := q.pending[key]
	return ok
}

// TierSizes returns the pending counts per lane (urgent, normal, lazy).
func (q *Tiered[P, K]) TierSizes() (urgent, normal, lazy int) {
	return len(q.lanes[model.TierUrgent]), len(q.lanes[model.TierNormal]), len(q.lanes[model.TierLazy])
}

// Depth returns the per-tier depth as a model value.
func (q *Tiered[P, K]) Depth() model.QueueDepth {
	u, n, l := q.TierSizes()
	return model.QueueDepth{Urgent: u, Normal: n, Lazy: l}
}

// Len returns the total number of pending requests.
func (q *Tiered[P, K]) Len() int {
	return len(q.lanes[0]) + len(q.lanes[1]) + len(q.lanes[2])
}

// RemoveIf drops every pending request matching pred, keeping the dedupe set
// consistent, and returns how many were removed. Used by the periodic
// dead-reference sweep.
func (q *Tiered[P, K]) RemoveIf(pred func(Request[P]) bool) int {
	removed := 0
	for lane := range q.lanes {
		kept := q.lanes[lane][:0]
		for _, req := range q.lanes[lane] {
			if pred(req) {
				delete(q.pending, q.keyFn(req.Subject, req.Payload))
				removed++
				continue
			}
			kept = append(kept, req)
		}
		q.lanes[lane] = kept
	}
	return removed
}
