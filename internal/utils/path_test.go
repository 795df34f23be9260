package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := ResolvePath("")
		assert.Error(t, err)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := ResolvePath("~/DriftBox")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "DriftBox"), got)
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		got, err := ResolvePath("./some/dir")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()
	nested := filepath.Join(tmp, "a", "b", "c")

	require.NoError(t, EnsureDir(nested))
	assert.True(t, DirExists(nested))

	// idempotent
	require.NoError(t, EnsureDir(nested))
}

func TestEnsureParent(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "x", "y", "file.db")

	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Dir(file)))
	assert.False(t, FileExists(file))
}
