package history

import (
	"fmt"
	"time"
)

// Status is the overall outcome of one sync run.
type Status string

const (
	// StatusSuccess means no file failed (skips by policy are still success).
	StatusSuccess Status = "success"
	// StatusPartial means at least one file failed but at least one succeeded.
	StatusPartial Status = "partial"
	// StatusFailed means no file succeeded, or the run aborted before writing.
	StatusFailed Status = "failed"
)

// Statistics aggregates one completed run. TotalFiles counts written files
// only; files skipped by the conflict policy are reported separately.
type Statistics struct {
	TotalFiles   int           `json:"total_files"`
	TotalBytes   int64         `json:"total_bytes"`
	SkippedFiles int           `json:"skipped_files"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Entry is the immutable record of one sync run.
type Entry struct {
	ID          string     `json:"id"`
	ProjectName string     `json:"project_name"`
	Timestamp   time.Time  `json:"timestamp"`
	Stats       Statistics `json:"statistics"`
	Files       []string   `json:"files"`
	Status      Status     `json:"status"`
}

// Window filters history queries by age.
type Window string

const (
	WindowDay   Window = "24h"
	WindowWeek  Window = "7d"
	WindowMonth Window = "30d"
	WindowAll   Window = "all"
)

// ParseWindow validates a window label.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowDay, WindowWeek, WindowMonth, WindowAll:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown history window %q", s)
}

// cutoff returns the earliest timestamp included in the window. The zero
// time means no lower bound.
func (w Window) cutoff(now time.Time) time.Time {
	switch w {
	case WindowDay:
		return now.Add(-24 * time.Hour)
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour)
	case WindowMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// Aggregate holds derived metrics over a window of entries.
type Aggregate struct {
	TotalSyncs      int           `json:"total_syncs"`
	TotalFiles      int           `json:"total_files"`
	TotalBytes      int64         `json:"total_bytes"`
	AverageDuration time.Duration `json:"average_duration"`
}
