package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// Expectation: ls against the compiled-in bundle should list the
// top-level bundle directories.
func Test_Ls_Bundle_Success(t *testing.T) {
	fsys, err := newFS(&programOpts{})
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, runLs(&out, fsys, ""))

	require.Contains(t, out.String(), "conf/")
	require.Contains(t, out.String(), "webroot/")
}

// Expectation: ls against a data root should list the real directory.
func Test_Ls_DataRoot_Success(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "real.txt"), []byte("x"), 0o644))

	fsys, err := newFS(&programOpts{dataRoot: tmpDir})
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, runLs(&out, fsys, ""))
	require.Contains(t, out.String(), "real.txt")
}

// Expectation: cat --gunzip should print the original contents of a
// pre-compressed bundle entry.
func Test_Cat_Gunzip_Success(t *testing.T) {
	fsys, err := newFS(&programOpts{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runCat(&out, fsys, "webroot/index.html", true, false))
	require.Contains(t, out.String(), "resource bundle")
}

// Expectation: cat --gzip output should inflate back to the original.
func Test_Cat_Gzip_RoundTrip_Success(t *testing.T) {
	fsys, err := newFS(&programOpts{})
	require.NoError(t, err)

	var plain bytes.Buffer
	require.NoError(t, runCat(&plain, fsys, "conf/bundlefs.conf", false, false))

	var gz bytes.Buffer
	require.NoError(t, runCat(&gz, fsys, "conf/bundlefs.conf", false, true))

	zr, err := gzip.NewReader(&gz)
	require.NoError(t, err)
	orig, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, plain.Bytes(), orig)
}

// Expectation: cat on a missing path should surface a not-found error.
func Test_Cat_NotExist_Error(t *testing.T) {
	fsys, err := newFS(&programOpts{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.Error(t, runCat(&out, fsys, "webroot/missing.html", false, false))
	require.Zero(t, out.Len())
}
