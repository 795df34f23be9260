package engine

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/google/uuid"
)

// FileOutcome is the per-file result within one run.
type FileOutcome string

const (
	OutcomeWritten FileOutcome = "written"
	OutcomeSkipped FileOutcome = "skipped"
	OutcomeFailed  FileOutcome = "failed"
)

// Session is the transient state of one sync run. It is created when the run
// starts and discarded once its result is committed to history.
type Session struct {
	ID          string
	ProjectName string
	FolderName  string
	StartedAt   time.Time

	processed mapset.Set[string]
	written   []string
	bytes     int64
	skipped   int
	failed    int
}

func NewSession(projectName string, startedAt time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		ProjectName: projectName,
		StartedAt:   startedAt,
		processed:   mapset.NewSet[string](),
	}
}

// MarkProcessed records that a path was handled in this run. Returns false
// when the path was already processed, so no file is handled twice.
func (s *Session) MarkProcessed(relPath string) bool {
	return s.processed.Add(relPath)
}

func (s *Session) RecordWritten(relPath string, size int64) {
	s.written = append(s.written, relPath)
	s.bytes += size
}

func (s *Session) RecordSkipped(relPath string) {
	s.skipped++
}

func (s *Session) RecordFailed(relPath string) {
	s.failed++
}

// status derives the overall run outcome. Skips by policy do not degrade a
// run; failures do. A fatal run (destination unresolvable) is always failed.
func (s *Session) status(aborted, fatal bool) history.Status {
	switch {
	case fatal:
		return history.StatusFailed
	case s.failed == 0 && !aborted:
		return history.StatusSuccess
	case len(s.written) > 0:
		return history.StatusPartial
	default:
		return history.StatusFailed
	}
}

// Finish freezes the session into an immutable history entry.
func (s *Session) Finish(completedAt time.Time, aborted, fatal bool) *history.Entry {
	return &history.Entry{
		ID:          s.ID,
		ProjectName: s.ProjectName,
		Timestamp:   completedAt,
		Stats: history.Statistics{
			TotalFiles:   len(s.written),
			TotalBytes:   s.bytes,
			SkippedFiles: s.skipped,
			Duration:     completedAt.Sub(s.StartedAt),
			Timestamp:    completedAt,
		},
		Files:  append([]string(nil), s.written...),
		Status: s.status(aborted, fatal),
	}
}
