// Package scheduler triggers automatic sync runs. A fixed-cadence poll
// checks whether each project is due based on the configured interval and
// the time of its last completed run.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/engine"
	"github.com/driftbox/driftbox/internal/daemon/project"
	"github.com/driftbox/driftbox/internal/daemon/registry"
	"github.com/driftbox/driftbox/internal/daemon/settings"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is the wall-clock cadence at which due-ness is
// re-evaluated.
const DefaultPollInterval = 30 * time.Second

// Scheduler owns the auto-sync loop.
type Scheduler struct {
	engine   *engine.Engine
	source   project.Source
	settings *settings.Store
	registry *registry.Registry

	pollInterval time.Duration
	now          func() time.Time
	startedAt    time.Time
}

type Option func(*Scheduler)

// WithPollInterval overrides the polling cadence, for tests.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.pollInterval = d
	}
}

// WithClock overrides the scheduler's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func New(eng *engine.Engine, source project.Source, store *settings.Store, reg *registry.Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:       eng,
		source:       source,
		settings:     store,
		registry:     reg,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the polling loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.startedAt = s.now()
	slog.Info("scheduler start", "poll", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stop")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates due-ness once and triggers runs for every due project.
// Different projects sync concurrently; the engine's per-project lock keeps
// runs for the same project from overlapping.
func (s *Scheduler) Tick(ctx context.Context) {
	cfg := s.settings.Get()
	if !cfg.AutoSync {
		return
	}

	names, err := s.source.Projects()
	if err != nil {
		slog.Error("scheduler list projects", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if !s.due(name, cfg.AutoSyncInterval) {
			continue
		}
		name := name
		g.Go(func() error {
			s.run(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
}

// due reports whether the elapsed time since the later of the project's last
// completed run and the scheduler start reached the interval.
func (s *Scheduler) due(name string, interval time.Duration) bool {
	ref := s.startedAt
	if info, ok := s.registry.FindExisting(name); ok && info.LastSync.After(ref) {
		ref = info.LastSync
	}
	return s.now().Sub(ref) >= interval
}

func (s *Scheduler) run(ctx context.Context, name string) {
	tree, err := s.source.Tree(name)
	if err != nil {
		slog.Error("scheduler load project", "project", name, "error", err)
		return
	}

	if _, err := s.engine.Sync(ctx, tree); err != nil {
		if errors.Is(err, engine.ErrSyncAlreadyRunning) {
			slog.Debug("scheduler run suppressed", "project", name)
			return
		}
		slog.Error("scheduled sync", "project", name, "error", err)
	}
}
