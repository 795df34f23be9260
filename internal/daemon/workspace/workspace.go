// Package workspace owns the on-disk layout of the DriftBox data directory
// and guarantees a single process works against it at a time.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftbox/driftbox/internal/daemon/vfs"
	"github.com/driftbox/driftbox/internal/utils"
	"github.com/gofrs/flock"
)

const (
	mirrorDir   = "mirror"
	logsDir     = "logs"
	metadataDir = ".data"
	lockFile    = "driftbox.lock"
	dbFile      = "driftbox.db"
)

var (
	ErrWorkspaceLocked = errors.New("workspace locked by another process")
)

// Workspace is the root data directory: project mirrors live under
// mirror/, logs under logs/ and internal state under .data/.
type Workspace struct {
	Root        string
	MirrorDir   string
	LogsDir     string
	MetadataDir string
	DBPath      string

	flock *flock.Flock
}

func NewWorkspace(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path %s: %w", rootDir, err)
	}

	metadata := filepath.Join(root, metadataDir)
	return &Workspace{
		Root:        root,
		MirrorDir:   filepath.Join(root, mirrorDir),
		LogsDir:     filepath.Join(root, logsDir),
		MetadataDir: metadata,
		DBPath:      filepath.Join(metadata, dbFile),
		flock:       flock.New(filepath.Join(metadata, lockFile)),
	}, nil
}

// Setup creates the workspace directories and takes the process lock.
func (w *Workspace) Setup() error {
	for _, dir := range []string{w.MirrorDir, w.LogsDir, w.MetadataDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return w.Lock()
}

// Lock takes the workspace lock so other instances cannot touch the same
// mirror root.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.MetadataDir); err != nil {
		return fmt.Errorf("create directory %s: %w", w.MetadataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

// Unlock releases the workspace lock if this process holds it.
func (w *Workspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}
	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock workspace: %w", err)
	}
	return os.Remove(w.flock.Path())
}

// MirrorRoot returns the capability handle projects sync into.
func (w *Workspace) MirrorRoot() (vfs.Dir, error) {
	return vfs.NewOSDir(w.MirrorDir)
}
