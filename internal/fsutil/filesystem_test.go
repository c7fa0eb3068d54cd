package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fsys FileSystem, name, body string) {
	t.Helper()
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readFile(t *testing.T, fsys FileSystem, name string) string {
	t.Helper()
	f, err := fsys.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

// exercise runs the same checks against any implementation.
func exercise(t *testing.T, fsys FileSystem, root string) {
	dir := filepath.Join(root, "a", "b")
	require.NoError(t, fsys.MkdirAll(dir, 0755))
	assert.True(t, fsys.Exists(dir))

	tmp := filepath.Join(dir, "grid.gob.gz.tmp")
	final := filepath.Join(dir, "grid.gob.gz")
	writeFile(t, fsys, tmp, "hello")

	info, err := fsys.Stat(tmp)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	require.NoError(t, fsys.Rename(tmp, final))
	assert.False(t, fsys.Exists(tmp))
	assert.Equal(t, "hello", readFile(t, fsys, final))

	writeFile(t, fsys, tmp, "replaced")
	require.NoError(t, fsys.Rename(tmp, final))
	assert.Equal(t, "replaced", readFile(t, fsys, final))

	f, err := fsys.Open(final)
	require.NoError(t, err)
	st, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "grid.gob.gz", st.Name())
	require.NoError(t, f.Close())

	require.NoError(t, fsys.Remove(final))
	assert.False(t, fsys.Exists(final))

	_, err = fsys.Open(final)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = fsys.Stat(final)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Error(t, fsys.Rename(final, tmp))
}

func TestOSFileSystem(t *testing.T) {
	exercise(t, OSFileSystem{}, t.TempDir())
}

func TestMemoryFileSystem(t *testing.T) {
	exercise(t, NewMemoryFileSystem(), "/vol")
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()
	w, err := mfs.Create("/x")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	info, err := mfs.Stat("/x")
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	require.NoError(t, w.Close())
	info, err = mfs.Stat("/x")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.Equal(t, []string{"/x"}, mfs.Files())
}

func TestMemoryFileSystem_RemoveNonEmptyDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/d", 0755))
	writeFile(t, mfs, "/d/f", "x")

	assert.Error(t, mfs.Remove("/d"))
	require.NoError(t, mfs.Remove("/d/f"))
	require.NoError(t, mfs.Remove("/d"))
	assert.False(t, mfs.Exists("/d"))
	assert.Error(t, mfs.Remove("/d"))
}
