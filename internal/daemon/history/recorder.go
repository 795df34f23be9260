// Package history persists sync run outcomes and computes derived metrics
// over time windows.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/driftbox/driftbox/internal/jsonutil"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_history (
    id TEXT PRIMARY KEY,
    project TEXT NOT NULL,
    ts TEXT NOT NULL, -- UTC, fixed-width (see tsFormat)
    total_files INTEGER NOT NULL,
    total_bytes INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    status TEXT NOT NULL,
    files TEXT NOT NULL -- JSON array of relative paths
);

CREATE INDEX IF NOT EXISTS idx_history_ts ON sync_history(ts);
CREATE INDEX IF NOT EXISTS idx_history_project ON sync_history(project);
`

// tsFormat keeps the nanosecond field fixed-width, unlike RFC3339Nano which
// drops trailing zeros. Timestamps are always stored in UTC, so the string
// order matches the time order and sqlite can sort and filter on it directly.
const tsFormat = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultRetention caps the number of persisted entries.
const DefaultRetention = 500

// Recorder appends run outcomes to a bounded, persisted log.
type Recorder struct {
	db        *sqlx.DB
	mu        sync.Mutex
	retention int
	now       func() time.Time
}

type RecorderOption func(*Recorder)

// WithRetention overrides the entry count cap.
func WithRetention(n int) RecorderOption {
	return func(r *Recorder) {
		r.retention = n
	}
}

// WithClock overrides the recorder's clock, for tests.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder initializes the history schema on the given database.
func NewRecorder(db *sqlx.DB, opts ...RecorderOption) (*Recorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	r := &Recorder{
		db:        db,
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type entryRow struct {
	ID         string `db:"id"`
	Project    string `db:"project"`
	TS         string `db:"ts"`
	TotalFiles int    `db:"total_files"`
	TotalBytes int64  `db:"total_bytes"`
	Skipped    int    `db:"skipped"`
	DurationMS int64  `db:"duration_ms"`
	Status     string `db:"status"`
	Files      string `db:"files"`
}

// Record appends an entry and prunes the oldest entries beyond the
// retention cap.
func (r *Recorder) Record(entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := jsonutil.Marshal(entry.Files)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO sync_history (id, project, ts, total_files, total_bytes, skipped, duration_ms, status, files)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ProjectName,
		entry.Timestamp.UTC().Format(tsFormat),
		entry.Stats.TotalFiles,
		entry.Stats.TotalBytes,
		entry.Stats.SkippedFiles,
		entry.Stats.Duration.Milliseconds(),
		string(entry.Status),
		string(files),
	)
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}

	// evict oldest entries beyond the cap
	_, err = r.db.Exec(
		`DELETE FROM sync_history WHERE id NOT IN (
		    SELECT id FROM sync_history ORDER BY ts DESC LIMIT ?
		 )`, r.retention)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Query returns the entries within the window, most recent first.
func (r *Recorder) Query(window Window) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := window.cutoff(r.now())

	var rows []entryRow
	err := r.db.Select(&rows,
		`SELECT id, project, ts, total_files, total_bytes, skipped, duration_ms, status, files
		 FROM sync_history WHERE ts >= ? ORDER BY ts DESC`,
		cutoff.UTC().Format(tsFormat))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(tsFormat, row.TS)
		if err != nil {
			return nil, fmt.Errorf("parse history timestamp %q: %w", row.TS, err)
		}

		var files []string
		if err := jsonutil.Unmarshal([]byte(row.Files), &files); err != nil {
			return nil, fmt.Errorf("decode files for entry %s: %w", row.ID, err)
		}

		entries = append(entries, Entry{
			ID:          row.ID,
			ProjectName: row.Project,
			Timestamp:   ts,
			Stats: Statistics{
				TotalFiles:   row.TotalFiles,
				TotalBytes:   row.TotalBytes,
				SkippedFiles: row.Skipped,
				Duration:     time.Duration(row.DurationMS) * time.Millisecond,
				Timestamp:    ts,
			},
			Files:  files,
			Status: Status(row.Status),
		})
	}
	return entries, nil
}

// Aggregate computes totals over the window. AverageDuration is zero when
// the window holds no entries.
func (r *Recorder) Aggregate(window Window) (Aggregate, error) {
	entries, err := r.Query(window)
	if err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{TotalSyncs: len(entries)}
	var totalDuration time.Duration
	for _, e := range entries {
		agg.TotalFiles += e.Stats.TotalFiles
		agg.TotalBytes += e.Stats.TotalBytes
		totalDuration += e.Stats.Duration
	}
	if len(entries) > 0 {
		agg.AverageDuration = totalDuration / time.Duration(len(entries))
	}
	return agg, nil
}
