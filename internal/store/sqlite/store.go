// Package sqlite persists per-run scheduler statistics so finished runs can
// be inspected after the daemon exits.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msageha/ecosim/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NULL,
	seed INTEGER NOT NULL,
	world_width INTEGER NOT NULL,
	world_height INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scheduler_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	tick INTEGER NOT NULL,
	scheduler TEXT NOT NULL,
	enqueued INTEGER NOT NULL,
	deduped INTEGER NOT NULL,
	processed INTEGER NOT NULL,
	completed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	orphaned INTEGER NOT NULL,
	depth_urgent INTEGER NOT NULL,
	depth_normal INTEGER NOT NULL,
	depth_lazy INTEGER NOT NULL,
	active INTEGER NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_scheduler_stats_run ON scheduler_stats(run_id, tick);

CREATE TABLE IF NOT EXISTS tick_samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	tick INTEGER NOT NULL,
	entities INTEGER NOT NULL,
	avg_tick_ns INTEGER NOT NULL,
	max_tick_ns INTEGER NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_tick_samples_run ON tick_samples(run_id, tick);
`

// Store records scheduler statistics for one or more simulation runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if absent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// StartRun registers a new run and returns its id.
func (s *Store) StartRun(ctx context.Context, cfg model.WorldConfig) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs(id, started_at, seed, world_width, world_height)
		VALUES(?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Unix(), cfg.Seed, cfg.Width, cfg.Height,
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's end time.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Unix(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordInterval writes one flush interval: the three scheduler snapshots
// plus the tick-timing sample, in a single transaction.
func (s *Store) RecordInterval(ctx context.Context, runID string, tick model.Tick, entities int, snaps []model.SchedulerSnapshot, avgTick, maxTick time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx record interval: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, snap := range snaps {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO scheduler_stats(
				run_id, tick, scheduler, enqueued, deduped, processed,
				completed, failed, orphaned, depth_urgent, depth_normal,
				depth_lazy, active
			) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, uint64(tick), snap.Name,
			snap.Stats.Enqueued, snap.Stats.Deduped, snap.Stats.Processed,
			snap.Stats.Completed, snap.Stats.Failed, snap.Stats.Orphaned,
			snap.Depth.Urgent, snap.Depth.Normal, snap.Depth.Lazy, snap.Active,
		)
		if err != nil {
			return fmt.Errorf("insert scheduler stats: %w", err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO tick_samples(run_id, tick, entities, avg_tick_ns, max_tick_ns)
		VALUES(?, ?, ?, ?, ?)`,
		runID, uint64(tick), entities, avgTick.Nanoseconds(), maxTick.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert tick sample: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record interval: %w", err)
	}
	return nil
}

// RunSummary is the condensed view of one run used by the stats command.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	LastTick   model.Tick
	Entities   int
	Schedulers []model.SchedulerSnapshot
}

// LatestRunSummary returns the most recent run with the last recorded stats
// per scheduler. sql.ErrNoRows surfaces when no runs exist.
func (s *Store) LatestRunSummary(ctx context.Context) (RunSummary, error) {
	var summary RunSummary
	var started int64
	var finished sql.NullInt64
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT 1`,
	)
	if err := row.Scan(&summary.RunID, &started, &finished); err != nil {
		return RunSummary{}, fmt.Errorf("latest run: %w", err)
	}
	summary.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		summary.FinishedAt = &t
	}

	row = s.db.QueryRowContext(
		ctx,
		`SELECT tick, entities FROM tick_samples
		WHERE run_id = ? ORDER BY tick DESC LIMIT 1`,
		summary.RunID,
	)
	var lastTick uint64
	if err := row.Scan(&lastTick, &summary.Entities); err != nil && err != sql.ErrNoRows {
		return RunSummary{}, fmt.Errorf("latest tick sample: %w", err)
	}
	summary.LastTick = model.Tick(lastTick)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT scheduler, enqueued, deduped, processed, completed, failed,
			orphaned, depth_urgent, depth_normal, depth_lazy, active, tick
		FROM scheduler_stats
		WHERE run_id = ? AND tick = (
			SELECT MAX(tick) FROM scheduler_stats WHERE run_id = ?
		)`,
		summary.RunID, summary.RunID,
	)
	if err != nil {
		return RunSummary{}, fmt.Errorf("latest scheduler stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var snap model.SchedulerSnapshot
		var tick uint64
		if err := rows.Scan(
			&snap.Name, &snap.Stats.Enqueued, &snap.Stats.Deduped,
			&snap.Stats.Processed, &snap.Stats.Completed, &snap.Stats.Failed,
			&snap.Stats.Orphaned, &snap.Depth.Urgent, &snap.Depth.Normal,
			&snap.Depth.Lazy, &snap.Active, &tick,
		); err != nil {
			return RunSummary{}, fmt.Errorf("scan scheduler stats: %w", err)
		}
		snap.AtTick = model.Tick(tick)
		summary.Schedulers = append(summary.Schedulers, snap)
	}
	if err := rows.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("iterate scheduler stats: %w", err)
	}
	return summary, nil
}
