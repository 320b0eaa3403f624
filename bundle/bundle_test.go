package bundle

import (
	"bytes"
	"io"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// Expectation: Constructors should produce entries with the correct
// kind, payload and compression sentinel.
func Test_Entry_Constructors_Success(t *testing.T) {
	plain := NewFile("a.txt", []byte("abc"))
	require.Equal(t, KindFile, plain.Kind)
	require.False(t, plain.Gzipped())
	require.Equal(t, int64(3), plain.Size())

	gz := NewGzipFile("b.gz", []byte{0x1f, 0x8b}, 100)
	require.True(t, gz.Gzipped())
	require.Equal(t, int64(100), gz.Orig)

	dir := NewDir("d", plain, gz)
	require.Equal(t, KindDir, dir.Kind)
	require.Len(t, dir.Children(), 2)
	require.Same(t, plain, dir.Find("a.txt"))
	require.Nil(t, dir.Find("missing"))
}

// Expectation: Kind should render as a human-readable string.
func Test_Kind_String_Success(t *testing.T) {
	require.Equal(t, "dir", KindDir.String())
	require.Equal(t, "file", KindFile.String())
	require.Equal(t, "unknown", KindUnknown.String())
}

// Expectation: FromFS should mirror the source tree with lexical child
// order and keep small files uncompressed.
func Test_FromFS_Structure_Success(t *testing.T) {
	src := fstest.MapFS{
		"conf/tiny.conf":     {Data: []byte("k=v")},
		"webroot/index.html": {Data: bytes.Repeat([]byte("<p>text</p>"), 200)},
		"webroot/z.txt":      {Data: []byte("z")},
	}

	root, err := FromFS(src, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, KindDir, root.Kind)
	require.Len(t, root.Children(), 2)

	conf := root.Find("conf")
	require.NotNil(t, conf)
	require.Equal(t, KindDir, conf.Kind)

	tiny := conf.Find("tiny.conf")
	require.NotNil(t, tiny)
	require.False(t, tiny.Gzipped(), "below the compression size floor")
	require.Equal(t, []byte("k=v"), tiny.Data)

	webroot := root.Find("webroot")
	require.NotNil(t, webroot)
	require.Equal(t, []string{"index.html", "z.txt"}, []string{
		webroot.Children()[0].Name, webroot.Children()[1].Name,
	})
}

// Expectation: FromFS pre-compression should round-trip back to the
// original bytes and record the original size.
func Test_FromFS_Compression_RoundTrip_Success(t *testing.T) {
	content := bytes.Repeat([]byte("compressible line of text\n"), 100)
	src := fstest.MapFS{
		"big.txt": {Data: content},
	}

	root, err := FromFS(src, DefaultOptions())
	require.NoError(t, err)

	entry := root.Find("big.txt")
	require.NotNil(t, entry)
	require.True(t, entry.Gzipped())
	require.Equal(t, int64(len(content)), entry.Orig)
	require.Less(t, entry.Size(), int64(len(content)))

	zr, err := gzip.NewReader(bytes.NewReader(entry.Data))
	require.NoError(t, err)
	orig, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, content, orig)
}

// Expectation: Skipped extensions and disabled compression should both
// store files as plain bytes.
func Test_FromFS_Compression_Skipped_Success(t *testing.T) {
	content := bytes.Repeat([]byte{0x42}, 4096)
	src := fstest.MapFS{
		"logo.png": {Data: content},
		"big.txt":  {Data: content},
	}

	root, err := FromFS(src, DefaultOptions())
	require.NoError(t, err)
	require.False(t, root.Find("logo.png").Gzipped())
	require.True(t, root.Find("big.txt").Gzipped())

	opts := DefaultOptions()
	opts.Compress = false

	root, err = FromFS(src, opts)
	require.NoError(t, err)
	require.False(t, root.Find("big.txt").Gzipped())
}
