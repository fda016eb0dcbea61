package sched

import (
	"go.uber.org/zap"

	"github.com/msageha/ecosim/internal/events"
	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/queue"
	"github.com/msageha/ecosim/internal/world"
)

// recentKeepTicks bounds how far back the completion log reaches.
const recentKeepTicks model.Tick = 100

// Completion is one finished action in the recent log.
type Completion struct {
	Subject model.EntityID
	Kind    model.ActionKind
	Tick    model.Tick
	Success bool
}

// ActionScheduler executes behaviors. Pending requests sit in a utility
// heap ordered by (priority, score); dispatch validates against current
// world state, runs the first tick-step inline, and promotes unfinished
// actions to the active table for per-tick continuation.
//
// The pending heap drains until empty every tick; only one action may start
// or advance per subject per tick.
type ActionScheduler struct {
	queue  *queue.Utility[model.ActionSpec]
	active *Table[activeAction]

	// Cancellations requested mid-tick apply at the start of the next
	// RunTick, never mid-drain.
	cancels map[model.EntityID]struct{}

	recent []Completion
	stats  model.Stats
	logger *zap.Logger
	bus    *events.Bus
}

// NewActionScheduler creates the execution scheduler. bus may be nil.
func NewActionScheduler(logger *zap.Logger, bus *events.Bus) *ActionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionScheduler{
		queue:   queue.NewUtility[model.ActionSpec](),
		active:  NewTable[activeAction](),
		cancels: make(map[model.EntityID]struct{}),
		logger:  logger,
		bus:     bus,
	}
}

// Schedule enqueues an action for subject. Structurally invalid specs are
// rejected outright. A subject with a pending or active action keeps it;
// the new request is dropped, not merged. The returned id is fresh even for
// rejected pushes.
func (s *ActionScheduler) Schedule(subject model.EntityID, spec model.ActionSpec, priority int, score float64, tick model.Tick) (id uint64, ok bool) {
	if err := spec.Validate(); err != nil {
		s.logger.Warn("rejected malformed action",
			zap.Stringer("subject", subject),
			zap.Error(err),
		)
		return 0, false
	}
	if s.active.Has(subject) {
		s.stats.Deduped++
		return 0, false
	}
	id, ok = s.queue.Push(subject, spec, priority, score, tick)
	if !ok {
		s.stats.Deduped++
		return id, false
	}
	s.stats.Enqueued++
	return id, true
}

// Cancel marks the subject's action for cancellation at the next tick
// boundary. Both the active entry and any pending request are dropped.
func (s *ActionScheduler) Cancel(subject model.EntityID) {
	s.cancels[subject] = struct{}{}
}

// HasActive reports whether the subject has an in-progress action.
func (s *ActionScheduler) HasActive(subject model.EntityID) bool {
	return s.active.Has(subject)
}

// HasPending reports whether the subject has a queued action.
func (s *ActionScheduler) HasPending(subject model.EntityID) bool {
	return s.queue.Contains(subject)
}

// RunTick applies deferred cancellations, advances every active action one
// step, then drains the pending heap until empty. A subject touched by the
// continuation phase is skipped by dispatch until next tick.
func (s *ActionScheduler) RunTick(w *world.World, tick model.Tick) {
	s.applyCancellations(w)

	touched := make(map[model.EntityID]struct{})
	s.advanceActive(w, tick, touched)
	s.dispatchPending(w, tick, touched)
	s.pruneRecent(tick)
}

func (s *ActionScheduler) applyCancellations(w *world.World) {
	if len(s.cancels) == 0 {
		return
	}
	s.queue.RemoveIf(func(item queue.Item[model.ActionSpec]) bool {
		_, cancelled := s.cancels[item.Subject]
		return cancelled
	})
	for subject := range s.cancels {
		if s.active.Remove(subject) {
			if ent, ok := w.Get(subject); ok {
				ent.CurrentAction = ""
			}
		}
	}
	s.cancels = make(map[model.EntityID]struct{})
}

func (s *ActionScheduler) advanceActive(w *world.World, tick model.Tick, touched map[model.EntityID]struct{}) {
	completed, failed, orphaned := s.active.Advance(func(e *Entry[activeAction]) Outcome {
		touched[e.Subject] = struct{}{}
		ent, ok := w.Get(e.Subject)
		if !ok {
			s.publish(events.Event{Type: events.EventEntityDespawned, Subject: e.Subject, Tick: tick})
			return OutcomeOrphaned
		}
		out := advanceAction(w, ent, &e.Work)
		if out != OutcomeActive {
			s.finish(ent, e.Work.spec, tick, out == OutcomeCompleted)
		}
		return out
	})
	s.stats.Completed += uint64(completed)
	s.stats.Failed += uint64(failed)
	s.stats.Orphaned += uint64(orphaned)
}

func (s *ActionScheduler) dispatchPending(w *world.World, tick model.Tick, touched map[model.EntityID]struct{}) {
	for {
		item, ok := s.queue.Pop()
		if !ok {
			return
		}
		s.stats.Processed++
		subject := item.Subject

		if _, dup := touched[subject]; dup {
			// One execution per subject per tick; the request is dropped,
			// not re-queued.
			continue
		}
		if s.active.Has(subject) {
			continue
		}
		ent, live := w.Get(subject)
		if !live {
			s.stats.Orphaned++
			continue
		}
		touched[subject] = struct{}{}

		spec := item.Payload
		if !validateAction(w, ent, spec) {
			s.stats.Failed++
			s.record(Completion{Subject: subject, Kind: spec.Kind, Tick: tick, Success: false})
			s.publish(events.Event{Type: events.EventActionFailed, Subject: subject, Tick: tick, Detail: spec.String()})
			continue
		}

		ent.CurrentAction = string(spec.Kind)
		state := newActiveAction(spec)
		switch advanceAction(w, ent, &state) {
		case OutcomeActive:
			s.active.Insert(subject, state, tick)
		case OutcomeCompleted:
			s.stats.Completed++
			s.finish(ent, spec, tick, true)
		case OutcomeFailed:
			s.stats.Failed++
			s.finish(ent, spec, tick, false)
		case OutcomeOrphaned:
			s.stats.Orphaned++
		}
	}
}

// finish records a terminal outcome on the entity, the recent log, and the
// bus. The caller updates stats.
func (s *ActionScheduler) finish(ent *world.Entity, spec model.ActionSpec, tick model.Tick, success bool) {
	ent.CurrentAction = ""
	s.record(Completion{Subject: ent.ID, Kind: spec.Kind, Tick: tick, Success: success})
	typ := events.EventActionCompleted
	if !success {
		typ = events.EventActionFailed
	}
	s.publish(events.Event{Type: typ, Subject: ent.ID, Tick: tick, Detail: spec.String()})
}

func (s *ActionScheduler) record(c Completion) {
	s.recent = append(s.recent, c)
}

func (s *ActionScheduler) pruneRecent(tick model.Tick) {
	if tick < recentKeepTicks {
		return
	}
	cutoff := tick - recentKeepTicks
	kept := s.recent[:0]
	for _, c := range s.recent {
		if c.Tick > cutoff {
			kept = append(kept, c)
		}
	}
	s.recent = kept
}

// RecentCompletions returns completions at or after since, newest last.
func (s *ActionScheduler) RecentCompletions(since model.Tick) []Completion {
	var out []Completion
	for _, c := range s.recent {
		if c.Tick >= since {
			out = append(out, c)
		}
	}
	return out
}

// Sweep drops pending and active work whose subject no longer exists and
// returns how many entries were removed.
func (s *ActionScheduler) Sweep(w *world.World) int {
	removed := s.queue.RemoveIf(func(item queue.Item[model.ActionSpec]) bool {
		return !w.Exists(item.Subject)
	})
	removed += s.active.RemoveIf(func(e *Entry[activeAction]) bool {
		return !w.Exists(e.Subject)
	})
	s.stats.Orphaned += uint64(removed)
	return removed
}

// Snapshot returns the diagnostic view at tick. The action scheduler has no
// drain budget; the heap empties every tick.
func (s *ActionScheduler) Snapshot(tick model.Tick) model.SchedulerSnapshot {
	return model.SchedulerSnapshot{
		Name:   "action",
		Stats:  s.stats,
		Depth:  model.QueueDepth{Normal: s.queue.Len()},
		Active: s.active.Len(),
		AtTick: tick,
	}
}

// LogDiagnostics emits the periodic queue-health line.
func (s *ActionScheduler) LogDiagnostics(tick model.Tick) {
	s.logger.Info("action scheduler",
		zap.Uint64("tick", uint64(tick)),
		zap.Int("pending", s.queue.Len()),
		zap.Int("active", s.active.Len()),
		zap.Uint64("completed", s.stats.Completed),
		zap.Uint64("failed", s.stats.Failed),
		zap.Uint64("orphaned", s.stats.Orphaned),
	)
}

func (s *ActionScheduler) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
