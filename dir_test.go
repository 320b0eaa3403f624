package bundlefs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertwitch/bundlefs/bundle"
	"github.com/stretchr/testify/require"
)

// drainDir iterates a directory handle to exhaustion.
func drainDir(t *testing.T, dir *Dir) []Dirent {
	t.Helper()

	var entries []Dirent

	for {
		ent, err := dir.ReadNext()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)

			return entries
		}
		entries = append(entries, ent)
	}
}

// Expectation: Bundle iteration should yield exactly the statically
// defined children, in their defined order, with their defined kinds.
func Test_Dir_ReadNext_Bundle_Success(t *testing.T) {
	fsys := NewFS(testTree(t))

	dir, err := fsys.OpenDir("webroot")
	require.NoError(t, err)
	defer dir.Close()

	entries := drainDir(t, dir)
	require.Equal(t, []Dirent{
		{Name: "index.html", Kind: bundle.KindFile},
		{Name: "static", Kind: bundle.KindDir},
	}, entries)

	// single pass, no restart
	_, err = dir.ReadNext()
	require.ErrorIs(t, err, io.EOF)
}

// Expectation: Direct iteration should enumerate the OS directory
// contents (set-equal, order OS-defined) with stat-derived kinds.
func Test_Dir_ReadNext_Direct_Success(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "plain.txt"), []byte("x"), 0o644))

	fsys := NewFS(nil, WithDataRoot(tmpDir))

	dir, err := fsys.OpenDir("")
	require.NoError(t, err)
	defer dir.Close()

	kinds := make(map[string]bundle.Kind)
	for _, ent := range drainDir(t, dir) {
		kinds[ent.Name] = ent.Kind
	}

	require.Len(t, kinds, 2)
	require.Equal(t, bundle.KindDir, kinds["sub"])
	require.Equal(t, bundle.KindFile, kinds["plain.txt"])
}

// Expectation: An empty directory should report end-of-sequence on the
// very first iteration for both backends.
func Test_Dir_ReadNext_Empty_EOF(t *testing.T) {
	fsys := NewFS(bundle.NewDir("", bundle.NewDir("empty")))

	dir, err := fsys.OpenDir("empty")
	require.NoError(t, err)
	defer dir.Close()

	_, err = dir.ReadNext()
	require.ErrorIs(t, err, io.EOF)

	direct := NewFS(nil, WithDataRoot(t.TempDir()))

	dd, err := direct.OpenDir("")
	require.NoError(t, err)
	defer dd.Close()

	_, err = dd.ReadNext()
	require.ErrorIs(t, err, io.EOF)
}

// Expectation: Using a closed directory handle should fail with
// [ErrClosed]; closing twice should be a no-op.
func Test_Dir_Closed_Error(t *testing.T) {
	fsys := NewFS(testTree(t))

	dir, err := fsys.OpenDir("conf")
	require.NoError(t, err)
	require.NoError(t, dir.Close())
	require.NoError(t, dir.Close())

	_, err = dir.ReadNext()
	require.ErrorIs(t, err, ErrClosed)

	_, err = dir.Open("service.conf", false, false)
	require.ErrorIs(t, err, ErrClosed)
}
