// Package daemon wires the sync subsystem together: workspace, database,
// settings, registry, engine, scheduler and the sync-on-save watcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/config"
	"github.com/driftbox/driftbox/internal/daemon/engine"
	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/driftbox/driftbox/internal/daemon/kv"
	"github.com/driftbox/driftbox/internal/daemon/project"
	"github.com/driftbox/driftbox/internal/daemon/registry"
	"github.com/driftbox/driftbox/internal/daemon/scheduler"
	"github.com/driftbox/driftbox/internal/daemon/settings"
	"github.com/driftbox/driftbox/internal/daemon/workspace"
	"github.com/driftbox/driftbox/internal/db"
	"github.com/driftbox/driftbox/internal/utils"
	"github.com/jmoiron/sqlx"
)

// saveDebounce coalesces editor write bursts into one sync-on-save run.
const saveDebounce = 2 * time.Second

type Daemon struct {
	config    *config.Config
	workspace *workspace.Workspace
	database  *sqlx.DB

	Settings  *settings.Store
	Registry  *registry.Registry
	Recorder  *history.Recorder
	Engine    *engine.Engine
	Source    *project.DirSource
	Scheduler *scheduler.Scheduler

	watcher *project.Watcher

	mu            sync.Mutex
	debounce      map[string]*time.Timer
	debounceDelay time.Duration
}

type Option func(*options)

type options struct {
	engineOpts []engine.Option
}

// WithDecider forwards an ask-mode decider to the engine.
func WithDecider(d engine.Decider) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, engine.WithDecider(d))
	}
}

// New builds a fully wired daemon. It takes the workspace lock, so a second
// daemon on the same data dir fails with workspace.ErrWorkspaceLocked.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ws, err := workspace.NewWorkspace(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := ws.Setup(); err != nil {
		return nil, fmt.Errorf("setup workspace: %w", err)
	}

	database, err := db.NewSqliteDB(db.WithPath(ws.DBPath))
	if err != nil {
		ws.Unlock()
		return nil, fmt.Errorf("open database: %w", err)
	}

	d, err := assemble(cfg, ws, database, o.engineOpts)
	if err != nil {
		database.Close()
		ws.Unlock()
		return nil, err
	}
	return d, nil
}

func assemble(cfg *config.Config, ws *workspace.Workspace, database *sqlx.DB, engineOpts []engine.Option) (*Daemon, error) {
	kvStore, err := kv.NewStore(database)
	if err != nil {
		return nil, fmt.Errorf("init kv store: %w", err)
	}
	store, err := settings.NewStore(kvStore)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}
	recorder, err := history.NewRecorder(database)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	root, err := ws.MirrorRoot()
	if err != nil {
		return nil, fmt.Errorf("open mirror root: %w", err)
	}

	if err := utils.EnsureDir(cfg.ProjectsDir); err != nil {
		return nil, fmt.Errorf("create projects dir: %w", err)
	}
	source, err := project.NewDirSource(cfg.ProjectsDir)
	if err != nil {
		return nil, err
	}

	reg := registry.New(store)
	eng := engine.New(root, reg, store, recorder, engineOpts...)

	return &Daemon{
		config:        cfg,
		workspace:     ws,
		database:      database,
		Settings:      store,
		Registry:      reg,
		Recorder:      recorder,
		Engine:        eng,
		Source:        source,
		Scheduler:     scheduler.New(eng, source, store, reg),
		watcher:       project.NewWatcher(source.Root()),
		debounce:      make(map[string]*time.Timer),
		debounceDelay: saveDebounce,
	}, nil
}

// Start runs the scheduler and the sync-on-save watcher until ctx is
// cancelled, then releases the daemon's resources.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("daemon start",
		"data", d.config.DataDir,
		"projects", d.config.ProjectsDir,
	)

	if err := d.watcher.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		d.Scheduler.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		d.watchLoop(ctx)
	}()

	<-ctx.Done()
	d.watcher.Stop()
	wg.Wait()

	return d.Close()
}

// watchLoop turns filesystem writes into debounced per-project sync runs
// when sync-on-save is enabled.
func (d *Daemon) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			name, ok := d.Source.ProjectOf(event.Path())
			if !ok {
				continue
			}
			if !d.Settings.Get().SyncOnSave {
				continue
			}
			d.scheduleSave(ctx, name)
		}
	}
}

func (d *Daemon) scheduleSave(ctx context.Context, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.debounce[name]; ok {
		timer.Reset(d.debounceDelay)
		return
	}
	d.debounce[name] = time.AfterFunc(d.debounceDelay, func() {
		d.mu.Lock()
		delete(d.debounce, name)
		d.mu.Unlock()
		d.syncOnSave(ctx, name)
	})
}

func (d *Daemon) syncOnSave(ctx context.Context, name string) {
	if ctx.Err() != nil {
		return
	}
	tree, err := d.Source.Tree(name)
	if err != nil {
		slog.Error("sync-on-save load project", "project", name, "error", err)
		return
	}
	if _, err := d.Engine.Sync(ctx, tree); err != nil {
		if errors.Is(err, engine.ErrSyncAlreadyRunning) {
			return
		}
		slog.Error("sync-on-save", "project", name, "error", err)
	}
}

// LogDir returns where the daemon writes its log files.
func (d *Daemon) LogDir() string {
	return d.workspace.LogsDir
}

// Close releases the database and the workspace lock.
func (d *Daemon) Close() error {
	var errs []error
	if err := d.database.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.workspace.Unlock(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
