// Package registry maintains the durable mapping from a project's logical
// identity to the physical folder it syncs into. The mapping survives
// restarts and tolerates cosmetic differences in project names.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/settings"
	"github.com/driftbox/driftbox/internal/daemon/vfs"
)

var (
	ErrProjectNotFound = errors.New("no folder registered for project")
)

// Registry resolves project names to destination folders under a sync root.
// State lives in the settings store's project_folders map, so every mutation
// is persisted immediately.
type Registry struct {
	settings *settings.Store
}

func New(store *settings.Store) *Registry {
	return &Registry{settings: store}
}

// FindExisting looks up a mapping by normalized project name.
func (r *Registry) FindExisting(name string) (settings.ProjectSyncInfo, bool) {
	info, ok := r.settings.Get().ProjectFolders[NormalizeName(name)]
	return info, ok
}

// VerifyFolder confirms the folder still exists under root and is writable.
// It never creates the folder.
func (r *Registry) VerifyFolder(root vfs.Dir, folderName string) bool {
	dir, err := root.Subdir(folderName, false)
	if err != nil {
		return false
	}
	return dir.TestWrite() == nil
}

// Register inserts or updates the mapping for a project and persists it.
func (r *Registry) Register(name, folderName string) (settings.ProjectSyncInfo, error) {
	info := settings.ProjectSyncInfo{
		ProjectName: name,
		FolderName:  folderName,
		LastSync:    time.Now(),
	}
	err := r.settings.Update(func(s *settings.Settings) {
		s.ProjectFolders[NormalizeName(name)] = info
	})
	if err != nil {
		return settings.ProjectSyncInfo{}, err
	}
	return info, nil
}

// Touch updates a project's last sync timestamp.
func (r *Registry) Touch(name string, at time.Time) error {
	key := NormalizeName(name)
	return r.settings.Update(func(s *settings.Settings) {
		info, ok := s.ProjectFolders[key]
		if !ok {
			return
		}
		info.LastSync = at
		s.ProjectFolders[key] = info
	})
}

// Resolve returns the destination folder handle for a project. An existing
// mapping is reused when its folder still verifies; otherwise a folder named
// after the project is created (or matched), disambiguated with a numeric
// suffix when the slug is already claimed by a different project.
func (r *Registry) Resolve(root vfs.Dir, name string, createIfMissing bool) (vfs.Dir, settings.ProjectSyncInfo, error) {
	info, found := r.FindExisting(name)

	if found && r.VerifyFolder(root, info.FolderName) {
		dir, err := root.Subdir(info.FolderName, false)
		if err != nil {
			return nil, settings.ProjectSyncInfo{}, err
		}
		return dir, info, nil
	}

	if found {
		// mapping exists but the folder is gone or unwritable, fall back to
		// creating/matching a folder named after the project
		slog.Warn("registered folder no longer verifies", "project", name, "folder", info.FolderName)
	} else if !createIfMissing {
		return nil, settings.ProjectSyncInfo{}, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}

	folderName, err := r.pickFolderName(root, name)
	if err != nil {
		return nil, settings.ProjectSyncInfo{}, err
	}

	dir, err := root.Subdir(folderName, true)
	if err != nil {
		return nil, settings.ProjectSyncInfo{}, fmt.Errorf("create folder %s: %w", folderName, err)
	}

	registered, err := r.Register(name, folderName)
	if err != nil {
		return nil, settings.ProjectSyncInfo{}, err
	}
	return dir, registered, nil
}

// pickFolderName finds an unused folder name for a project: the slug itself,
// or slug-2, slug-3, ... on collision. A folder registered to a different
// project is never reused, even if it exists on disk.
func (r *Registry) pickFolderName(root vfs.Dir, name string) (string, error) {
	slug := SlugifyFolder(name)
	key := NormalizeName(name)

	candidate := slug
	for n := 2; ; n++ {
		if !r.claimedByOther(candidate, key) {
			return candidate, nil
		}
		if n > 10000 {
			return "", fmt.Errorf("no free folder name for slug %s", slug)
		}
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
}

// claimedByOther reports whether folderName is registered to a project with
// a different normalized key.
func (r *Registry) claimedByOther(folderName, key string) bool {
	for otherKey, info := range r.settings.Get().ProjectFolders {
		if otherKey != key && info.FolderName == folderName {
			return true
		}
	}
	return false
}
