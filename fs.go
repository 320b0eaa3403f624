// Package bundlefs implements a dual-backend virtual filesystem. Files
// are served either from a statically compiled-in resource tree (the
// bundle backend, for embedded deployments) or from a real on-disk
// directory (the direct backend, when a data root is configured).
// Callers open directories and files by logical path without knowing
// which backend resolves them. Content can be inflated or deflated
// (gzip) on the fly at open time.
package bundlefs

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/desertwitch/bundlefs/bundle"
)

// Metrics contains all counters which are collected within the
// filesystem. All fields are atomics and safe for concurrent use.
type Metrics struct {
	// OpenDirs is the amount of currently open directory handles.
	OpenDirs atomic.Int64

	// OpenFiles is the amount of currently open file handles.
	OpenFiles atomic.Int64

	// TotalOpenedDirs is the amount of opened directory handles.
	TotalOpenedDirs atomic.Int64

	// TotalOpenedFiles is the amount of opened file handles.
	TotalOpenedFiles atomic.Int64

	// TotalInflates is the amount of decompressions at open time.
	TotalInflates atomic.Int64

	// TotalInflatedBytes is the amount of bytes produced by inflation.
	TotalInflatedBytes atomic.Int64

	// TotalDeflates is the amount of compressions at open time.
	TotalDeflates atomic.Int64

	// TotalDeflatedBytes is the amount of bytes produced by deflation.
	TotalDeflatedBytes atomic.Int64

	// TotalReadBytes is the amount of bytes handed out by reads.
	TotalReadBytes atomic.Int64

	// Errors is the amount of failed opens and transformations.
	Errors atomic.Int64
}

// Reset returns all counters to zero.
func (m *Metrics) Reset() {
	m.OpenDirs.Store(0)
	m.OpenFiles.Store(0)
	m.TotalOpenedDirs.Store(0)
	m.TotalOpenedFiles.Store(0)
	m.TotalInflates.Store(0)
	m.TotalInflatedBytes.Store(0)
	m.TotalDeflates.Store(0)
	m.TotalDeflatedBytes.Store(0)
	m.TotalReadBytes.Store(0)
	m.Errors.Store(0)
}

// FS is the core implementation of the dual-backend filesystem.
//
// The zero value is not usable; construct with [NewFS]. An FS itself
// is safe for concurrent use, the handles it produces are not and must
// be confined to one caller at a time.
type FS struct {
	// Metrics are the counters collected within the filesystem.
	Metrics Metrics

	tree     *bundle.Entry
	dataRoot string
}

// Option configures an [FS].
type Option func(*FS)

// WithDataRoot makes relative paths resolve against root on the real
// filesystem (the direct backend) instead of the bundle tree. An empty
// root keeps the filesystem in bundle mode.
func WithDataRoot(root string) Option {
	return func(fsys *FS) {
		fsys.dataRoot = root
	}
}

// NewFS returns a pointer to a new [FS] serving the given resource
// tree. The tree must be a directory entry and must not be modified
// afterwards; it may be nil when a data root is configured and only
// the direct backend will ever be used.
func NewFS(tree *bundle.Entry, opts ...Option) *FS {
	fsys := &FS{tree: tree}
	for _, opt := range opts {
		opt(fsys)
	}

	return fsys
}

// DataRoot returns the configured direct-backend root, or the empty
// string in bundle mode.
func (fsys *FS) DataRoot() string {
	return fsys.dataRoot
}

// OpenDir opens the directory at the given logical path.
//
// An absolute path always targets the real filesystem and bypasses the
// bundle. A relative path resolves against the data root when one is
// configured, and walks the bundle tree otherwise. [ErrNotExist] is
// returned when the path does not resolve in the active backend.
func (fsys *FS) OpenDir(dirpath string) (*Dir, error) {
	if strings.HasPrefix(dirpath, "/") {
		return fsys.openDirect(dirpath)
	}
	if fsys.dataRoot != "" {
		return fsys.openDirect(filepath.Join(fsys.dataRoot, dirpath))
	}

	return fsys.openBundle(dirpath)
}

// openBundle walks the bundle tree segment by segment, requiring every
// segment to match a directory node by name.
func (fsys *FS) openBundle(dirpath string) (*Dir, error) {
	node := fsys.tree
	if node == nil || node.Kind != bundle.KindDir {
		return nil, fmt.Errorf("bundle %q: %w", dirpath, ErrNotExist)
	}

	for _, seg := range strings.Split(dirpath, "/") {
		if seg == "" || seg == "." {
			continue
		}

		child := node.Find(seg)
		if child == nil || child.Kind != bundle.KindDir {
			return nil, fmt.Errorf("bundle %q: %w", dirpath, ErrNotExist)
		}
		node = child
	}

	fsys.Metrics.OpenDirs.Add(1)
	fsys.Metrics.TotalOpenedDirs.Add(1)

	return &Dir{fsys: fsys, node: node, cursor: 0}, nil
}

// Open opens the file at the given logical path, splitting it into a
// directory part and a final component. The intermediate directory
// handle is closed transparently regardless of the outcome. See
// [Dir.Open] for the transformation flags.
func (fsys *FS) Open(fpath string, decompress, compress bool) (*File, error) {
	dirpath, name := path.Split(fpath)

	dir, err := fsys.OpenDir(strings.TrimSuffix(dirpath, "/"))
	if err != nil {
		return nil, err
	}
	defer dir.Close() //nolint:errcheck

	return dir.Open(name, decompress, compress)
}
