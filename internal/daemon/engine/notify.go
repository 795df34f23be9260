package engine

import (
	"log/slog"

	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/dustin/go-humanize"
)

// Sink receives fire-and-forget progress notifications from the engine.
// Implementations must not block.
type Sink interface {
	SyncStarted(project string, totalFiles int)
	SyncProgress(project, relPath string, outcome FileOutcome)
	SyncCompleted(project string, entry *history.Entry)
}

// LogSink renders notifications to the default logger.
type LogSink struct{}

func (LogSink) SyncStarted(project string, totalFiles int) {
	slog.Info("sync started", "project", project, "files", totalFiles)
}

func (LogSink) SyncProgress(project, relPath string, outcome FileOutcome) {
	slog.Debug("sync progress", "project", project, "path", relPath, "outcome", outcome)
}

func (LogSink) SyncCompleted(project string, entry *history.Entry) {
	slog.Info("sync completed",
		"project", project,
		"status", entry.Status,
		"files", entry.Stats.TotalFiles,
		"skipped", entry.Stats.SkippedFiles,
		"size", humanize.Bytes(uint64(entry.Stats.TotalBytes)),
		"took", entry.Stats.Duration,
	)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) SyncStarted(string, int)                  {}
func (NopSink) SyncProgress(string, string, FileOutcome) {}
func (NopSink) SyncCompleted(string, *history.Entry)     {}
