package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/config"
	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/driftbox/driftbox/internal/daemon/settings"
	"github.com/driftbox/driftbox/internal/daemon/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	return &config.Config{
		DataDir:     filepath.Join(tmp, "DriftBox"),
		ProjectsDir: filepath.Join(tmp, "projects"),
	}
}

func TestNew_WiresSubsystems(t *testing.T) {
	d, err := New(testConfig(t))
	require.NoError(t, err)
	defer d.Close()

	assert.NotNil(t, d.Engine)
	assert.NotNil(t, d.Scheduler)
	assert.NotNil(t, d.Settings)
	assert.DirExists(t, d.LogDir())
}

func TestNew_SecondInstanceRejected(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg)
	require.NoError(t, err)
	defer first.Close()

	_, err = New(&config.Config{DataDir: cfg.DataDir, ProjectsDir: cfg.ProjectsDir})
	assert.ErrorIs(t, err, workspace.ErrWorkspaceLocked)
}

func TestDaemon_SyncThroughEngine(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	defer d.Close()

	projDir := filepath.Join(cfg.ProjectsDir, "Notes App")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "readme.md"), []byte("hello"), 0o644))

	tree, err := d.Source.Tree("Notes App")
	require.NoError(t, err)

	entry, err := d.Engine.Sync(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, history.StatusSuccess, entry.Status)
	assert.Equal(t, 1, entry.Stats.TotalFiles)

	mirrored := filepath.Join(cfg.DataDir, "mirror", "notes-app", "readme.md")
	data, err := os.ReadFile(mirrored)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := d.Recorder.Query(history.WindowAll)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDaemon_SyncOnSaveDebounce(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Settings.Update(func(s *settings.Settings) {
		s.SyncOnSave = true
	}))

	projDir := filepath.Join(cfg.ProjectsDir, "scratch")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "note.txt"), []byte("v1"), 0o644))

	d.debounceDelay = 20 * time.Millisecond

	ctx := context.Background()
	// a burst of saves coalesces into one run
	d.scheduleSave(ctx, "scratch")
	d.scheduleSave(ctx, "scratch")
	d.scheduleSave(ctx, "scratch")

	require.Eventually(t, func() bool {
		entries, err := d.Recorder.Query(history.WindowAll)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// quiet period, then another save triggers a second run
	d.scheduleSave(ctx, "scratch")
	require.Eventually(t, func() bool {
		entries, err := d.Recorder.Query(history.WindowAll)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
