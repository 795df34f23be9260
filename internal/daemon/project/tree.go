// Package project exposes project file trees to the sync core. A tree is a
// read-only mapping of slash-separated relative paths to file contents.
package project

import (
	"sync"
	"time"
)

// File is one file of a project tree.
type File struct {
	Content []byte
	ModTime time.Time
}

// Tree is the read-only view of a project's files.
type Tree interface {
	// Name returns the project's display name.
	Name() string

	// Files returns the current files keyed by slash-separated relative path.
	Files() (map[string]File, error)
}

// Source enumerates the projects available for syncing.
type Source interface {
	Projects() ([]string, error)
	Tree(name string) (Tree, error)
}

// MemTree is an in-memory Tree, used by editor integrations and tests.
type MemTree struct {
	name  string
	mu    sync.RWMutex
	files map[string]File
}

func NewMemTree(name string) *MemTree {
	return &MemTree{
		name:  name,
		files: make(map[string]File),
	}
}

func (t *MemTree) Name() string {
	return t.name
}

// Put adds or replaces a file.
func (t *MemTree) Put(relPath string, content []byte, modTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[relPath] = File{Content: content, ModTime: modTime}
}

// Delete removes a file. Removing an absent path is a no-op.
func (t *MemTree) Delete(relPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, relPath)
}

func (t *MemTree) Files() (map[string]File, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]File, len(t.files))
	for path, file := range t.files {
		snapshot[path] = file
	}
	return snapshot, nil
}
