package bundle

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const defaultCompressMinSize = 256

// Options controls how [FromFS] builds a resource tree.
type Options struct {
	// Compress enables gzip pre-compression of eligible files, matching
	// what a build-time bundling step would have produced.
	Compress bool

	// CompressMinSize is the minimum file size for pre-compression.
	// Smaller files are stored as plain bytes.
	CompressMinSize int64

	// SkipExtensions lists filename extensions (with leading dot) that
	// are never pre-compressed, e.g. ".png" or ".gz".
	SkipExtensions []string
}

// DefaultOptions returns [Options] with the default values.
func DefaultOptions() Options {
	return Options{
		Compress:        true,
		CompressMinSize: defaultCompressMinSize,
		SkipExtensions:  []string{".gz", ".png", ".jpg", ".woff", ".woff2"},
	}
}

// FromFS builds a resource tree from an existing filesystem, typically
// an embed.FS compiled into the binary. Child order follows [fs.ReadDir],
// which is lexical. The returned root is an unnamed directory entry
// holding the top-level entries of fsys.
func FromFS(fsys fs.FS, opts Options) (*Entry, error) {
	return fromDir(fsys, ".", "", opts)
}

func fromDir(fsys fs.FS, dir, name string, opts Options) (*Entry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", dir, err)
	}

	node := NewDir(name)

	for _, de := range entries {
		full := path.Join(dir, de.Name())

		if de.IsDir() {
			child, err := fromDir(fsys, full, de.Name(), opts)
			if err != nil {
				return nil, err
			}
			node.Append(child)

			continue
		}

		data, err := fs.ReadFile(fsys, full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", full, err)
		}

		node.Append(fileEntry(de.Name(), data, opts))
	}

	return node, nil
}

// fileEntry stores data for name, gzip-compressing it when the options
// ask for it and the compressed form is actually smaller.
func fileEntry(name string, data []byte, opts Options) *Entry {
	if !opts.Compress || int64(len(data)) < opts.CompressMinSize {
		return NewFile(name, data)
	}
	if slices.Contains(opts.SkipExtensions, strings.ToLower(path.Ext(name))) {
		return NewFile(name, data)
	}

	gzdata, err := gzipBytes(data)
	if err != nil || len(gzdata) >= len(data) {
		return NewFile(name, data)
	}

	return NewGzipFile(name, gzdata, int64(len(data)))
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err := zw.Close(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return buf.Bytes(), nil
}
