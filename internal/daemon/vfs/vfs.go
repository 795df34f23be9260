// Package vfs models a revocable directory capability handle. The sync core
// only ever touches the filesystem through a Dir, never through raw paths
// outside the granted root.
package vfs

import (
	"errors"
	"time"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotExists        = errors.New("entry does not exist")
)

// Entry describes a single child of a directory.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Dir is a capability handle to one directory. Subdir handles are scoped to
// the parent: there is no way to navigate above the handle's root.
type Dir interface {
	// Name returns the base name of the directory.
	Name() string

	// List enumerates the direct children of the directory.
	List() ([]Entry, error)

	// Subdir returns a handle to a child directory, creating it when create
	// is true. Returns ErrNotExists when absent and create is false.
	Subdir(name string, create bool) (Dir, error)

	// Exists reports whether a direct child with the given name exists.
	Exists(name string) bool

	// ReadFile reads the contents of a direct child file.
	ReadFile(name string) ([]byte, error)

	// WriteFile creates or replaces a direct child file and stamps modTime
	// when non-zero.
	WriteFile(name string, data []byte, modTime time.Time) error

	// Remove deletes a direct child file.
	Remove(name string) error

	// TestWrite probes that the directory is still writable by creating and
	// deleting a marker file. Returns ErrPermissionDenied if the handle was
	// revoked or the directory is read-only.
	TestWrite() error
}
