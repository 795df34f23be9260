package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_Setup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "DriftBox")
	ws, err := NewWorkspace(root)
	require.NoError(t, err)

	require.NoError(t, ws.Setup())
	defer ws.Unlock()

	assert.DirExists(t, ws.MirrorDir)
	assert.DirExists(t, ws.LogsDir)
	assert.DirExists(t, ws.MetadataDir)

	handle, err := ws.MirrorRoot()
	require.NoError(t, err)
	assert.NoError(t, handle.TestWrite())
}

func TestWorkspace_LockExcludesSecondInstance(t *testing.T) {
	root := filepath.Join(t.TempDir(), "DriftBox")

	first, err := NewWorkspace(root)
	require.NoError(t, err)
	require.NoError(t, first.Setup())
	defer first.Unlock()

	second, err := NewWorkspace(root)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Lock(), ErrWorkspaceLocked)
}

func TestWorkspace_UnlockWithoutLockIsNoop(t *testing.T) {
	ws, err := NewWorkspace(filepath.Join(t.TempDir(), "DriftBox"))
	require.NoError(t, err)
	assert.NoError(t, ws.Unlock())
}
