package sched

import (
	"go.uber.org/zap"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/queue"
	"github.com/msageha/ecosim/internal/world"
)

// ThinkScheduler triages re-plan triggers. Each request marks one entity as
// due for full re-planning; processing is synchronous and the marker itself
// is the whole result, so there is no active table here.
//
// Deduplication is per subject: a second trigger for an entity that is
// already pending is dropped even when the new reason maps to a higher tier.
// Producers that need the escalation must wait out the pending drain.
type ThinkScheduler struct {
	queue  *queue.Tiered[model.ThinkReason, model.EntityID]
	budget int
	stats  model.Stats
	logger *zap.Logger
}

// NewThinkScheduler creates the triage scheduler with the given per-tick
// drain budget.
func NewThinkScheduler(budget int, logger *zap.Logger) *ThinkScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThinkScheduler{
		queue: queue.NewTiered(func(subject model.EntityID, _ model.ThinkReason) model.EntityID {
			return subject
		}),
		budget: budget,
		logger: logger,
	}
}

// SetBudget adjusts the per-tick drain budget. Takes effect next tick.
func (s *ThinkScheduler) SetBudget(budget int) {
	s.budget = budget
}

// Schedule enqueues a re-plan trigger; the reason fixes the tier. Returns
// false when the subject already has a pending trigger.
func (s *ThinkScheduler) Schedule(subject model.EntityID, reason model.ThinkReason, tick model.Tick) bool {
	if !s.queue.Push(subject, reason, reason.Tier(), tick) {
		s.stats.Deduped++
		return false
	}
	s.stats.Enqueued++
	return true
}

// Pending reports whether the subject has a queued trigger.
func (s *ThinkScheduler) Pending(subject model.EntityID) bool {
	return s.queue.Contains(subject)
}

// RunTick drains up to the budget and stamps each live subject with a
// re-plan marker. Requests for despawned subjects are dropped silently.
func (s *ThinkScheduler) RunTick(w *world.World, tick model.Tick) {
	for _, req := range s.queue.Drain(s.budget) {
		s.stats.Processed++
		ent, ok := w.Get(req.Subject)
		if !ok {
			s.stats.Orphaned++
			continue
		}
		ent.Think = &model.ThinkMarker{Reason: req.Payload, FlaggedAt: tick}
		s.stats.Completed++
	}
}

// Sweep drops queued triggers whose subject no longer exists and returns how
// many were removed.
func (s *ThinkScheduler) Sweep(w *world.World) int {
	removed := s.queue.RemoveIf(func(req queue.Request[model.ThinkReason]) bool {
		return !w.Exists(req.Subject)
	})
	s.stats.Orphaned += uint64(removed)
	return removed
}

// Snapshot returns the diagnostic view at tick.
func (s *ThinkScheduler) Snapshot(tick model.Tick) model.SchedulerSnapshot {
	return model.SchedulerSnapshot{
		Name:   "think",
		Stats:  s.stats,
		Depth:  s.queue.Depth(),
		Budget: s.budget,
		AtTick: tick,
	}
}

// LogDiagnostics emits the periodic queue-health line.
func (s *ThinkScheduler) LogDiagnostics(tick model.Tick) {
	u, n, l := s.queue.TierSizes()
	s.logger.Info("think scheduler",
		zap.Uint64("tick", uint64(tick)),
		zap.Int("urgent", u),
		zap.Int("normal", n),
		zap.Int("lazy", l),
		zap.Uint64("processed", s.stats.Processed),
		zap.Uint64("deduped", s.stats.Deduped),
		zap.Uint64("orphaned", s.stats.Orphaned),
	)
}
