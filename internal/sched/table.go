// Package sched implements the three tick schedulers — decision triage,
// route computation, and action execution — on top of the shared queue and
// active-table primitives.
//
// All three follow the same drain-and-dispatch shape: advance in-progress
// work, drain a bounded batch from the pending queue, validate each request
// against current world state, and either complete it, fail it, or promote
// it to the active table for continuation on later ticks. Budgets are soft;
// work that does not fit a tick simply waits for the next drain.
package sched

import (
	"github.com/msageha/ecosim/internal/model"
)

// Outcome is the result of advancing one active entry by one tick-step.
type Outcome int

const (
	// OutcomeActive means the work continues next tick.
	OutcomeActive Outcome = iota
	// OutcomeCompleted means the work finished successfully.
	OutcomeCompleted
	// OutcomeFailed means the work can no longer succeed.
	OutcomeFailed
	// OutcomeOrphaned means the subject no longer exists; the entry is
	// dropped silently and counted apart from failures.
	OutcomeOrphaned
)

// Entry is one in-progress unit of work spanning multiple ticks.
type Entry[T any] struct {
	Subject   model.EntityID
	Work      T
	StartedAt model.Tick
}

// Table tracks in-progress multi-tick work, at most one entry per subject.
// It is the only state that persists work across tick boundaries; the
// pending queues hold only not-yet-started requests.
type Table[T any] struct {
	entries map[model.EntityID]*Entry[T]
}

// NewTable creates an empty active-task table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{entries: make(map[model.EntityID]*Entry[T])}
}

// Insert registers in-progress work for subject, replacing any prior entry.
func (t *Table[T]) Insert(subject model.EntityID, work T, tick model.Tick) {
	t.entries[subject] = &Entry[T]{Subject: subject, Work: work, StartedAt: tick}
}

// Has reports whether subject has in-progress work.
func (t *Table[T]) Has(subject model.EntityID) bool {
	_, ok := t.entries[subject]
	return ok
}

// Get returns the entry for subject.
func (t *Table[T]) Get(subject model.EntityID) (*Entry[T], bool) {
	e, ok := t.entries[subject]
	return e, ok
}

// Remove drops the entry for subject, reporting whether one existed.
func (t *Table[T]) Remove(subject model.EntityID) bool {
	if _, ok := t.entries[subject]; !ok {
		return false
	}
	delete(t.entries, subject)
	return true
}

// Len returns the number of in-progress entries.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// Advance steps every entry once and removes the terminal ones. fn may
// mutate the entry's work in place. Returns per-outcome counts.
func (t *Table[T]) Advance(fn func(*Entry[T]) Outcome) (completed, failed, orphaned int) {
	var done []model.EntityID
	for subject, entry := range t.entries {
		switch fn(entry) {
		case OutcomeActive:
		case OutcomeCompleted:
			completed++
			done = append(done, subject)
		case OutcomeFailed:
			failed++
			done = append(done, subject)
		case OutcomeOrphaned:
			orphaned++
			done = append(done, subject)
		}
	}
	for _, subject := range done {
		delete(t.entries, subject)
	}
	return completed, failed, orphaned
}

// RemoveIf drops every entry matching pred and returns how many.
func (t *Table[T]) RemoveIf(pred func(*Entry[T]) bool) int {
	removed := 0
	for subject, entry := range t.entries {
		if pred(entry) {
			delete(t.entries, subject)
			removed++
		}
	}
	return removed
}
