package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msageha/ecosim/internal/events"
	"github.com/msageha/ecosim/internal/lock"
	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/snapshot"
	"github.com/msageha/ecosim/internal/store/sqlite"
	"github.com/msageha/ecosim/internal/uds"
)

// Daemon runs the simulation until the context is cancelled: the tick loop,
// the config watcher, and the periodic stats flusher.
type Daemon struct {
	// mu guards cfg: the watcher goroutine rewrites the reloadable subset
	// while the tick loop reads the flush interval.
	mu      sync.Mutex
	cfg     model.Config
	cfgPath string

	engine   *Engine
	bus      *events.Bus
	store    *sqlite.Store
	runID    string
	fileLock *lock.FileLock
	logger   *zap.Logger
}

// NewDaemon assembles the daemon. cfgPath may be empty, which disables
// config hot-reload.
func NewDaemon(cfgPath string, cfg model.Config, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := events.NewBus(256)
	engine, err := NewEngine(cfg, logger, bus)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return &Daemon{
		cfg:      cfg,
		cfgPath:  cfgPath,
		engine:   engine,
		bus:      bus,
		fileLock: lock.New(cfg.Store.Path + ".lock"),
		logger:   logger,
	}, nil
}

// Engine exposes the engine for inspection and tests.
func (d *Daemon) Engine() *Engine {
	return d.engine
}

// Run blocks until ctx is cancelled, a shutdown command arrives, or a
// fatal error occurs.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.fileLock.TryLock(); err != nil {
		return fmt.Errorf("daemon lock: %w", err)
	}
	defer d.fileLock.Unlock()
	defer d.bus.Close()

	unsubscribe := d.bus.Subscribe(events.EventEntityDespawned, func(ev events.Event) {
		d.logger.Debug("dropped work for despawned entity",
			zap.Stringer("subject", ev.Subject),
			zap.Uint64("tick", uint64(ev.Tick)),
		)
	})
	defer unsubscribe()

	server := uds.NewServer(d.cfg.Control.SocketPath, d.logger)
	registerControlHandlers(server, d.engine, cancel)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start control server: %w", err)
	}
	defer server.Stop()

	store, err := sqlite.Open(d.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	runID, err := store.StartRun(ctx, d.cfg.World)
	if err != nil {
		return err
	}
	d.store = store
	d.runID = runID
	d.logger.Info("daemon starting",
		zap.Int("pid", os.Getpid()),
		zap.String("run_id", runID),
		zap.Bool("paused", d.engine.Clock().Paused()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.tickLoop(gctx) })
	if d.cfgPath != "" {
		g.Go(func() error { return d.watchConfig(gctx) })
	}

	err = g.Wait()
	if finishErr := store.FinishRun(context.Background(), runID); finishErr != nil {
		d.logger.Warn("finish run", zap.Error(finishErr))
	}
	d.logger.Info("daemon stopped", zap.Uint64("tick", uint64(d.engine.Clock().Current())))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tickLoop advances the simulation at the clock's interval. The timer is
// re-armed each tick so speed changes take effect on the next tick.
func (d *Daemon) tickLoop(ctx context.Context) error {
	timer := time.NewTimer(d.engine.TickInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			tick, advanced := d.engine.Step()
			if advanced && d.shouldFlush(tick) {
				d.flush(ctx, tick)
			}
			timer.Reset(d.engine.TickInterval())
		}
	}
}

func (d *Daemon) shouldFlush(tick model.Tick) bool {
	interval := d.flushInterval()
	return interval > 0 && tick%interval == 0
}

func (d *Daemon) flushInterval() model.Tick {
	d.mu.Lock()
	defer d.mu.Unlock()
	return model.Tick(d.cfg.Store.FlushIntervalTicks)
}

// applyReload installs the reloadable config subset. The engine applies its
// own share under its own lock.
func (d *Daemon) applyReload(cfg model.Config) {
	d.mu.Lock()
	d.cfg.Simulation = cfg.Simulation
	d.cfg.Store.FlushIntervalTicks = cfg.Store.FlushIntervalTicks
	d.mu.Unlock()
	d.engine.ApplyConfig(cfg)
}

// flush writes the YAML snapshot and appends a stats interval to sqlite.
// Flush failures are logged, never fatal; the simulation outlives its
// recorder.
func (d *Daemon) flush(ctx context.Context, tick model.Tick) {
	snaps := d.engine.Snapshots()
	entities := d.engine.EntityCount()
	metrics := d.engine.Metrics()

	snap := snapshot.Snapshot{
		RunID:      d.runID,
		WrittenAt:  time.Now().UTC(),
		Tick:       tick,
		Entities:   entities,
		Schedulers: snaps,
	}
	if err := snapshot.Write(d.cfg.Store.SnapshotPath, snap); err != nil {
		d.logger.Warn("write snapshot", zap.Error(err))
	}
	if err := d.store.RecordInterval(ctx, d.runID, tick, entities, snaps, metrics.Average(), metrics.Max()); err != nil {
		d.logger.Warn("record stats interval", zap.Error(err))
	}
}

// watchConfig reloads the reloadable config subset when the file changes.
// Editors replace files rather than writing in place, so both write and
// create events trigger a reload.
func (d *Daemon) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(d.cfgPath)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	target := filepath.Clean(d.cfgPath)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := model.LoadConfig(d.cfgPath)
			if err != nil {
				d.logger.Warn("reload config", zap.Error(err))
				continue
			}
			d.applyReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Error("fsnotify", zap.Error(err))
		}
	}
}
