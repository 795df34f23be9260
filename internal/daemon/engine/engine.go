// Package engine executes sync runs: it mirrors a project's file tree into
// its registered destination folder, applying exclude patterns and the
// configured conflict policy, and commits every run's outcome to history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/driftbox/driftbox/internal/daemon/project"
	"github.com/driftbox/driftbox/internal/daemon/registry"
	"github.com/driftbox/driftbox/internal/daemon/settings"
	"github.com/driftbox/driftbox/internal/daemon/vfs"
)

var (
	ErrSyncAlreadyRunning = errors.New("sync already running for project")
)

// Engine runs one synchronization pass at a time per project. Different
// projects may sync concurrently.
type Engine struct {
	root     vfs.Dir
	registry *registry.Registry
	settings *settings.Store
	recorder *history.Recorder

	sink       Sink
	decider    Decider
	askTimeout time.Duration
	now        func() time.Time

	mu      sync.Mutex
	running map[string]*sync.Mutex
}

type Option func(*Engine)

// WithSink sets the notification sink. Defaults to LogSink.
func WithSink(sink Sink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithDecider sets the ask-mode decision channel. Without one, ask behaves
// like skip.
func WithDecider(d Decider) Option {
	return func(e *Engine) {
		e.decider = d
	}
}

// WithAskTimeout overrides how long ask mode waits per file.
func WithAskTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.askTimeout = d
	}
}

// WithClock overrides the engine's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(root vfs.Dir, reg *registry.Registry, store *settings.Store, recorder *history.Recorder, opts ...Option) *Engine {
	e := &Engine{
		root:       root,
		registry:   reg,
		settings:   store,
		recorder:   recorder,
		sink:       LogSink{},
		askTimeout: DefaultAskTimeout,
		now:        time.Now,
		running:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync performs exactly one run for the given project tree. A run already in
// progress for the same project rejects the call with ErrSyncAlreadyRunning.
// Every started run, including aborted and failed ones, produces exactly one
// history entry and one terminal notification.
func (e *Engine) Sync(ctx context.Context, tree project.Tree) (*history.Entry, error) {
	projectName := tree.Name()

	lock := e.projectLock(projectName)
	if !lock.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrSyncAlreadyRunning, projectName)
	}
	defer lock.Unlock()

	session := NewSession(projectName, e.now())
	cfg := e.settings.Get()

	files, err := tree.Files()
	if err != nil {
		return e.finish(session, false, true), fmt.Errorf("read project tree: %w", err)
	}

	dest, info, err := e.registry.Resolve(e.root, projectName, true)
	if err != nil {
		// no writes attempted, the run fails as a whole
		return e.finish(session, false, true), fmt.Errorf("resolve folder: %w", err)
	}
	session.FolderName = info.FolderName

	paths := e.traversalSet(files, cfg.ExcludePatterns)
	e.sink.SyncStarted(projectName, len(paths))

	aborted := false
	dirs := map[string]vfs.Dir{"": dest}

	for _, relPath := range paths {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		if !session.MarkProcessed(relPath) {
			continue
		}

		outcome := e.syncFile(ctx, dirs, session, cfg, relPath, files[relPath])
		e.sink.SyncProgress(projectName, relPath, outcome)
	}

	entry := e.finish(session, aborted, false)
	if aborted {
		return entry, ctx.Err()
	}
	return entry, nil
}

// traversalSet filters excluded paths and fixes the file order.
func (e *Engine) traversalSet(files map[string]project.File, patterns []string) []string {
	excludes := NewExcludeList(patterns)

	paths := make([]string, 0, len(files))
	for relPath := range files {
		if excludes.Match(relPath) {
			continue
		}
		paths = append(paths, relPath)
	}
	sort.Strings(paths)
	return paths
}

// syncFile transfers a single file, applying the conflict policy when the
// destination already exists. An I/O failure is recorded and does not abort
// the run.
func (e *Engine) syncFile(ctx context.Context, dirs map[string]vfs.Dir, session *Session, cfg *settings.Settings, relPath string, file project.File) FileOutcome {
	dir, name, err := e.destDir(dirs, relPath)
	if err != nil {
		slog.Error("sync file", "project", session.ProjectName, "path", relPath, "error", err)
		session.RecordFailed(relPath)
		return OutcomeFailed
	}

	if dir.Exists(name) {
		switch cfg.SyncMode {
		case settings.ModeSkip:
			session.RecordSkipped(relPath)
			return OutcomeSkipped
		case settings.ModeAsk:
			if ask(ctx, e.decider, e.askTimeout, session.ProjectName, relPath) != DecisionOverwrite {
				session.RecordSkipped(relPath)
				return OutcomeSkipped
			}
		}
	}

	if err := dir.WriteFile(name, file.Content, file.ModTime); err != nil {
		slog.Error("sync file", "project", session.ProjectName, "path", relPath, "error", err)
		session.RecordFailed(relPath)
		return OutcomeFailed
	}

	session.RecordWritten(relPath, int64(len(file.Content)))
	return OutcomeWritten
}

// destDir walks (and creates) the intermediate directories for relPath,
// caching handles per directory prefix within the run.
func (e *Engine) destDir(dirs map[string]vfs.Dir, relPath string) (vfs.Dir, string, error) {
	segments := strings.Split(relPath, "/")
	name := segments[len(segments)-1]

	prefix := ""
	dir := dirs[""]
	for _, segment := range segments[:len(segments)-1] {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}
		if cached, ok := dirs[prefix]; ok {
			dir = cached
			continue
		}
		child, err := dir.Subdir(segment, true)
		if err != nil {
			return nil, "", err
		}
		dirs[prefix] = child
		dir = child
	}
	return dir, name, nil
}

// finish commits the session to history, stamps the project's last sync time
// and emits the terminal notification.
func (e *Engine) finish(session *Session, aborted, fatal bool) *history.Entry {
	entry := session.Finish(e.now(), aborted, fatal)

	if session.FolderName != "" {
		if err := e.registry.Touch(session.ProjectName, entry.Timestamp); err != nil {
			slog.Error("update last sync", "project", session.ProjectName, "error", err)
		}
	}
	if err := e.recorder.Record(entry); err != nil {
		slog.Error("record history", "project", session.ProjectName, "error", err)
	}

	e.sink.SyncCompleted(session.ProjectName, entry)
	return entry
}

func (e *Engine) projectLock(projectName string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := registry.NormalizeName(projectName)
	lock, ok := e.running[key]
	if !ok {
		lock = &sync.Mutex{}
		e.running[key] = lock
	}
	return lock
}
