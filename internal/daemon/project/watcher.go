package project

import (
	"log/slog"

	"github.com/rjeczalik/notify"
)

// Watcher reports file writes under the projects root. The daemon uses it to
// trigger sync-on-save runs.
type Watcher struct {
	watchDir string
	events   chan notify.EventInfo
}

func NewWatcher(watchDir string) *Watcher {
	return &Watcher{
		watchDir: watchDir,
		events:   make(chan notify.EventInfo, 64),
	}
}

func (w *Watcher) Start() error {
	slog.Info("project watcher start", "dir", w.watchDir)

	recursivePath := w.watchDir + "/..."
	if err := notify.Watch(recursivePath, w.events, notify.Write, notify.Create); err != nil {
		return err
	}
	return nil
}

func (w *Watcher) Stop() {
	notify.Stop(w.events)
	close(w.events)
	slog.Info("project watcher stop")
}

func (w *Watcher) Events() <-chan notify.EventInfo {
	return w.events
}
