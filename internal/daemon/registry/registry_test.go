package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/kv"
	"github.com/driftbox/driftbox/internal/daemon/settings"
	"github.com/driftbox/driftbox/internal/daemon/vfs"
	"github.com/driftbox/driftbox/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, vfs.Dir) {
	t.Helper()
	database, err := db.NewSqliteDB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	kvStore, err := kv.NewStore(database)
	require.NoError(t, err)
	store, err := settings.NewStore(kvStore)
	require.NoError(t, err)

	root, err := vfs.NewOSDir(t.TempDir())
	require.NoError(t, err)
	return New(store), root
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Cool App", "my cool app"},
		{"my-cool-app ", "my cool app"},
		{"MY__cool--APP", "my cool app"},
		{"  spaced   out  ", "spaced out"},
		{"v2.0 (beta)", "v2 0 beta"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	for _, name := range []string{"My Cool App", "a--b__c", "  x  ", "déjà vu"} {
		once := NormalizeName(name)
		assert.Equal(t, once, NormalizeName(once), "input %q", name)
	}
}

func TestSlugifyFolder(t *testing.T) {
	assert.Equal(t, "my-cool-app", SlugifyFolder("My Cool App"))
	assert.Equal(t, "my-cool-app", SlugifyFolder("my-cool-app "))
	assert.Equal(t, "project", SlugifyFolder("!!!"))

	long := strings.Repeat("a", 60)
	assert.Len(t, SlugifyFolder(long), 40)
}

func TestResolve_CreatesAndReuses(t *testing.T) {
	reg, root := newTestRegistry(t)

	dir, info, err := reg.Resolve(root, "My Cool App", true)
	require.NoError(t, err)
	assert.Equal(t, "my-cool-app", info.FolderName)
	assert.Equal(t, "my-cool-app", dir.Name())
	assert.True(t, root.Exists("my-cool-app"))

	// cosmetic rename resolves to the same folder
	dir2, info2, err := reg.Resolve(root, "my-cool-app ", true)
	require.NoError(t, err)
	assert.Equal(t, info.FolderName, info2.FolderName)
	assert.Equal(t, dir.Name(), dir2.Name())
}

func TestResolve_NotFoundWithoutCreate(t *testing.T) {
	reg, root := newTestRegistry(t)

	_, _, err := reg.Resolve(root, "unknown", false)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.False(t, root.Exists("unknown"))
}

func TestResolve_StableAcrossCalls(t *testing.T) {
	reg, root := newTestRegistry(t)

	_, first, err := reg.Resolve(root, "Stable Project", true)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, again, err := reg.Resolve(root, "Stable Project", true)
		require.NoError(t, err)
		assert.Equal(t, first.FolderName, again.FolderName, "folder name must not drift")
	}
}

func TestResolve_SlugCollisionGetsSuffix(t *testing.T) {
	reg, root := newTestRegistry(t)

	// distinct normalized keys whose slugs collide after length capping
	prefix := strings.Repeat("x", 40)
	nameA := prefix + " alpha"
	nameB := prefix + " beta"
	require.NotEqual(t, NormalizeName(nameA), NormalizeName(nameB))
	require.Equal(t, SlugifyFolder(nameA), SlugifyFolder(nameB))

	dirA, a, err := reg.Resolve(root, nameA, true)
	require.NoError(t, err)
	dirB, b, err := reg.Resolve(root, nameB, true)
	require.NoError(t, err)

	assert.NotEqual(t, a.FolderName, b.FolderName)
	assert.True(t, root.Exists(a.FolderName))
	assert.True(t, root.Exists(b.FolderName))

	// both remain independently resolvable
	dirA2, a2, err := reg.Resolve(root, nameA, true)
	require.NoError(t, err)
	dirB2, b2, err := reg.Resolve(root, nameB, true)
	require.NoError(t, err)
	assert.Equal(t, a.FolderName, a2.FolderName)
	assert.Equal(t, b.FolderName, b2.FolderName)
	assert.Equal(t, dirA.Name(), dirA2.Name())
	assert.Equal(t, dirB.Name(), dirB2.Name())
}

func TestResolve_NeverReusesFolderOfOtherProject(t *testing.T) {
	reg, root := newTestRegistry(t)

	// register a project whose folder name equals another project's slug
	_, err := reg.Register("alpha", "shared-name")
	require.NoError(t, err)
	_, err = root.Subdir("shared-name", true)
	require.NoError(t, err)

	dir, info, err := reg.Resolve(root, "Shared Name", true)
	require.NoError(t, err)
	assert.Equal(t, "shared-name-2", info.FolderName)
	assert.Equal(t, "shared-name-2", dir.Name())

	// both resolvable independently afterwards
	alphaInfo, ok := reg.FindExisting("alpha")
	require.True(t, ok)
	assert.Equal(t, "shared-name", alphaInfo.FolderName)
}

func TestResolve_RecreatesWhenFolderGone(t *testing.T) {
	reg, root := newTestRegistry(t)
	osRoot := root.(*vfs.OSDir)

	_, info, err := reg.Resolve(root, "comeback", true)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(osRoot.Path(), info.FolderName)))
	assert.False(t, reg.VerifyFolder(root, info.FolderName))

	dir, again, err := reg.Resolve(root, "comeback", true)
	require.NoError(t, err)
	assert.Equal(t, info.FolderName, again.FolderName)
	assert.Equal(t, info.FolderName, dir.Name())
	assert.True(t, root.Exists(info.FolderName))
}

func TestVerifyFolder_DoesNotCreate(t *testing.T) {
	reg, root := newTestRegistry(t)

	assert.False(t, reg.VerifyFolder(root, "ghost"))
	assert.False(t, root.Exists("ghost"))
}

func TestTouch_UpdatesLastSync(t *testing.T) {
	reg, root := newTestRegistry(t)

	_, info, err := reg.Resolve(root, "touched", true)
	require.NoError(t, err)

	at := time.Now().Add(time.Hour)
	require.NoError(t, reg.Touch("touched", at))

	updated, ok := reg.FindExisting("touched")
	require.True(t, ok)
	assert.True(t, updated.LastSync.After(info.LastSync))

	// touching an unknown project is a no-op
	require.NoError(t, reg.Touch("nobody", at))
}
