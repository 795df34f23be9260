package settings

import (
	"time"
)

// SyncMode decides what happens when a file already exists at the destination.
type SyncMode string

const (
	// ModeAsk requests a per-file decision from the user, falling back to
	// skip when no answer arrives in time.
	ModeAsk SyncMode = "ask"
	// ModeOverwrite always writes.
	ModeOverwrite SyncMode = "overwrite"
	// ModeSkip leaves existing destination files untouched.
	ModeSkip SyncMode = "skip"
)

func (m SyncMode) Valid() bool {
	switch m {
	case ModeAsk, ModeOverwrite, ModeSkip:
		return true
	}
	return false
}

// Auto sync interval bounds.
const (
	MinAutoSyncInterval = 1 * time.Minute
	MaxAutoSyncInterval = 60 * time.Minute
)

// ProjectSyncInfo associates a project with its destination folder. One per
// known project, keyed by the normalized project name. Never deleted
// automatically.
type ProjectSyncInfo struct {
	ProjectName string    `json:"project_name"`
	FolderName  string    `json:"folder_name"`
	LastSync    time.Time `json:"last_sync"`
}

// Settings is the process-wide sync configuration. Loaded at startup,
// persisted on every mutation.
type Settings struct {
	AutoSync         bool                       `json:"auto_sync"`
	AutoSyncInterval time.Duration              `json:"auto_sync_interval"`
	SyncOnSave       bool                       `json:"sync_on_save"`
	ExcludePatterns  []string                   `json:"exclude_patterns"`
	SyncMode         SyncMode                   `json:"sync_mode"`
	ProjectFolders   map[string]ProjectSyncInfo `json:"project_folders"`
}

// Default returns the settings used when nothing has been persisted yet.
func Default() *Settings {
	return &Settings{
		AutoSync:         false,
		AutoSyncInterval: 5 * time.Minute,
		SyncOnSave:       false,
		ExcludePatterns:  []string{"**/.git/**", "*.tmp", "*.log"},
		SyncMode:         ModeOverwrite,
		ProjectFolders:   make(map[string]ProjectSyncInfo),
	}
}

// Clamp normalizes out-of-range or missing values in place. AutoSyncInterval
// is clamped to [1m, 60m].
func (s *Settings) Clamp() {
	if s.AutoSyncInterval < MinAutoSyncInterval {
		s.AutoSyncInterval = MinAutoSyncInterval
	}
	if s.AutoSyncInterval > MaxAutoSyncInterval {
		s.AutoSyncInterval = MaxAutoSyncInterval
	}
	if !s.SyncMode.Valid() {
		s.SyncMode = ModeOverwrite
	}
	if s.ProjectFolders == nil {
		s.ProjectFolders = make(map[string]ProjectSyncInfo)
	}
}

// clone returns a deep copy so callers never share mutable state with the
// store.
func (s *Settings) clone() *Settings {
	dup := *s
	dup.ExcludePatterns = append([]string(nil), s.ExcludePatterns...)
	dup.ProjectFolders = make(map[string]ProjectSyncInfo, len(s.ProjectFolders))
	for k, v := range s.ProjectFolders {
		dup.ProjectFolders[k] = v
	}
	return &dup
}
