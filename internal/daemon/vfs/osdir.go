package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/driftbox/driftbox/internal/utils"
	"github.com/google/uuid"
)

// OSDir binds the Dir capability interface to a directory on the local
// filesystem.
type OSDir struct {
	path string
}

// NewOSDir creates a handle rooted at path. The directory must already exist.
func NewOSDir(path string) (*OSDir, error) {
	resolved, err := utils.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if !utils.DirExists(resolved) {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, resolved)
	}
	return &OSDir{path: resolved}, nil
}

// Path returns the absolute path the handle is bound to.
func (d *OSDir) Path() string {
	return d.path
}

func (d *OSDir) Name() string {
	return filepath.Base(d.path)
}

func (d *OSDir) List() ([]Entry, error) {
	dirents, err := os.ReadDir(d.path)
	if err != nil {
		return nil, mapFsError(err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (d *OSDir) Subdir(name string, create bool) (Dir, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	child := filepath.Join(d.path, name)
	info, err := os.Stat(child)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", name)
		}
	case errors.Is(err, fs.ErrNotExist):
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrNotExists, name)
		}
		if err := os.Mkdir(child, 0o755); err != nil {
			return nil, mapWriteError(err)
		}
	default:
		return nil, mapFsError(err)
	}

	return &OSDir{path: child}, nil
}

func (d *OSDir) Exists(name string) bool {
	if validName(name) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(d.path, name))
	return err == nil
}

func (d *OSDir) ReadFile(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.path, name))
	if err != nil {
		return nil, mapFsError(err)
	}
	return data, nil
}

func (d *OSDir) WriteFile(name string, data []byte, modTime time.Time) error {
	if err := validName(name); err != nil {
		return err
	}

	target := filepath.Join(d.path, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return mapWriteError(err)
	}
	if !modTime.IsZero() {
		// best effort, content is already on disk
		_ = os.Chtimes(target, modTime, modTime)
	}
	return nil
}

func (d *OSDir) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.path, name)); err != nil {
		return mapFsError(err)
	}
	return nil
}

func (d *OSDir) TestWrite() error {
	probe := filepath.Join(d.path, ".driftbox-probe-"+uuid.NewString())
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return nil
}

// validName rejects names that would escape the directory the handle is
// scoped to.
func validName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid entry name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("entry name %q must not contain path separators", name)
	}
	return nil
}

func mapFsError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotExists, err)
	}
	return err
}

// mapWriteError maps failures on the write path. A missing parent here means
// the directory the handle points at is gone, i.e. the handle was revoked.
func mapWriteError(err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
