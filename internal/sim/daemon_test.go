package sim

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/ecosim/internal/model"
)

func daemonFixture(t *testing.T) *Daemon {
	t.Helper()
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Store.Path = filepath.Join(dir, "ecosim.db")
	cfg.Store.SnapshotPath = filepath.Join(dir, "metrics.yaml")
	cfg.Control.SocketPath = filepath.Join(dir, "ecosim.sock")
	d, err := NewDaemon("", cfg, nil)
	require.NoError(t, err)
	return d
}

func TestDaemonReloadChangesFlushInterval(t *testing.T) {
	d := daemonFixture(t)

	cfg := testConfig()
	cfg.Store.FlushIntervalTicks = 7
	d.applyReload(cfg)

	assert.True(t, d.shouldFlush(14))
	assert.False(t, d.shouldFlush(15))
	assert.Equal(t, model.Tick(7), d.flushInterval())
}

// Reloads land on the watcher goroutine while the tick loop polls the flush
// interval; both sides must go through the daemon lock (run with -race).
func TestDaemonReloadConcurrentWithFlushChecks(t *testing.T) {
	d := daemonFixture(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cfg := testConfig()
		for i := 0; i < 500; i++ {
			cfg.Store.FlushIntervalTicks = 50 + i%2
			d.applyReload(cfg)
		}
	}()
	go func() {
		defer wg.Done()
		for tick := model.Tick(1); tick <= 500; tick++ {
			d.shouldFlush(tick)
		}
	}()
	wg.Wait()

	assert.Contains(t, []model.Tick{50, 51}, d.flushInterval())
}
