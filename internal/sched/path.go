package sched

import (
	"go.uber.org/zap"

	"github.com/msageha/ecosim/internal/events"
	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/pathfind"
	"github.com/msageha/ecosim/internal/queue"
	"github.com/msageha/ecosim/internal/world"
)

// pathWork is the payload of one queued route request.
type pathWork struct {
	id     uint64
	from   model.TileCoord
	to     model.TileCoord
	reason model.PathReason
}

// pathKey deduplicates identical route requests. Same subject, same
// endpoints: drop. Different endpoints for the same subject queue
// independently.
type pathKey struct {
	subject model.EntityID
	from    model.TileCoord
	to      model.TileCoord
}

// PathScheduler queues route requests and computes them synchronously
// within the drain, writing PathReady or PathFailed onto the subject.
// Routes are computed against the endpoints captured at enqueue time, not
// the subject's current position.
type PathScheduler struct {
	queue    *queue.Tiered[pathWork, pathKey]
	budget   int
	maxNodes int
	nextID   uint64
	stats    model.Stats
	logger   *zap.Logger
	bus      *events.Bus
}

// NewPathScheduler creates the route scheduler. bus may be nil.
func NewPathScheduler(budget, maxNodes int, logger *zap.Logger, bus *events.Bus) *PathScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PathScheduler{
		queue: queue.NewTiered(func(subject model.EntityID, p pathWork) pathKey {
			return pathKey{subject: subject, from: p.from, to: p.to}
		}),
		budget:   budget,
		maxNodes: maxNodes,
		nextID:   1,
		logger:   logger,
		bus:      bus,
	}
}

// SetBudget adjusts the per-tick drain budget. Takes effect next tick.
func (s *PathScheduler) SetBudget(budget int) {
	s.budget = budget
}

// Schedule enqueues a route request and returns its id. The id is allocated
// before the duplicate check, so a rejected request still consumes one; the
// returned id of a rejected request matches nothing and resolves never.
// ok reports whether the request was actually queued.
func (s *PathScheduler) Schedule(w *world.World, subject model.EntityID, from, to model.TileCoord, tier model.Tier, reason model.PathReason, tick model.Tick) (id uint64, ok bool) {
	id = s.nextID
	s.nextID++

	work := pathWork{id: id, from: from, to: to, reason: reason}
	if !s.queue.Push(subject, work, tier, tick) {
		s.stats.Deduped++
		return id, false
	}
	s.stats.Enqueued++

	if ent, live := w.Get(subject); live {
		ent.PathPending = &model.PathRequested{
			RequestID:   id,
			Target:      to,
			Tier:        tier,
			RequestedAt: tick,
		}
	}
	return id, true
}

// Pending reports whether an identical request is queued.
func (s *PathScheduler) Pending(subject model.EntityID, from, to model.TileCoord) bool {
	return s.queue.Contains(pathKey{subject: subject, from: from, to: to})
}

// RunTick drains up to the budget, computing each route inline. Failures
// increment the subject's consecutive-retry count; a later success clears
// it. Requests whose subject despawned are dropped silently.
func (s *PathScheduler) RunTick(w *world.World, tick model.Tick) {
	for _, req := range s.queue.Drain(s.budget) {
		s.stats.Processed++
		work := req.Payload

		ent, ok := w.Get(req.Subject)
		if !ok {
			s.stats.Orphaned++
			continue
		}
		if ent.PathPending != nil && ent.PathPending.RequestID == work.id {
			ent.PathPending = nil
		}

		path, failure := pathfind.Find(w.Grid(), work.from, work.to, s.maxNodes)
		if failure == "" {
			ent.PathReady = &model.PathReady{Path: path, ComputedAt: tick}
			ent.PathFailed = nil
			s.stats.Completed++
			continue
		}

		retries := 1
		if ent.PathFailed != nil {
			retries = ent.PathFailed.Retries + 1
		}
		ent.PathFailed = &model.PathFailed{Reason: failure, Retries: retries}
		s.stats.Failed++
		s.publish(events.Event{
			Type:    events.EventPathFailed,
			Subject: req.Subject,
			Tick:    tick,
			Detail:  string(failure),
		})
		s.logger.Debug("route failed",
			zap.Stringer("subject", req.Subject),
			zap.Stringer("goal", work.to),
			zap.String("reason", string(failure)),
			zap.Int("retries", retries),
		)
	}
}

// Sweep drops queued requests whose subject no longer exists and returns
// how many were removed.
func (s *PathScheduler) Sweep(w *world.World) int {
	removed := s.queue.RemoveIf(func(req queue.Request[pathWork]) bool {
		return !w.Exists(req.Subject)
	})
	s.stats.Orphaned += uint64(removed)
	return removed
}

// Snapshot returns the diagnostic view at tick.
func (s *PathScheduler) Snapshot(tick model.Tick) model.SchedulerSnapshot {
	return model.SchedulerSnapshot{
		Name:   "path",
		Stats:  s.stats,
		Depth:  s.queue.Depth(),
		Budget: s.budget,
		AtTick: tick,
	}
}

// LogDiagnostics emits the periodic queue-health line.
func (s *PathScheduler) LogDiagnostics(tick model.Tick) {
	u, n, l := s.queue.TierSizes()
	s.logger.Info("path scheduler",
		zap.Uint64("tick", uint64(tick)),
		zap.Int("urgent", u),
		zap.Int("normal", n),
		zap.Int("lazy", l),
		zap.Uint64("completed", s.stats.Completed),
		zap.Uint64("failed", s.stats.Failed),
		zap.Uint64("deduped", s.stats.Deduped),
	)
}

func (s *PathScheduler) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
