package bundlefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertwitch/bundlefs/bundle"
)

// Dirent is a single directory iteration result. The fields are only
// valid until the next [Dir.ReadNext] call or until the directory
// handle is closed.
type Dirent struct {
	// Name is the entry name, without any path separators.
	Name string

	// Kind is the entry type. For the direct backend it comes from a
	// stat of the candidate path, [bundle.KindUnknown] on stat failure.
	Kind bundle.Kind
}

// Dir is a handle on an open directory of either backend.
//
// A Dir is a single-pass iterator, it cannot be rewound. It is not
// safe for concurrent use.
type Dir struct {
	fsys *FS

	// bundle backend: resolved tree node and child cursor
	node   *bundle.Entry
	cursor int

	// direct backend: resolved path and open directory stream
	path   string
	stream *os.File

	closed bool
}

// openDirect opens an already-resolved on-disk path as a directory
// handle. Any failure to open folds into [ErrNotExist].
func (fsys *FS) openDirect(dirpath string) (*Dir, error) {
	stream, err := os.Open(dirpath)
	if err != nil {
		return nil, fmt.Errorf("direct %q: %w", dirpath, ErrNotExist)
	}

	fsys.Metrics.OpenDirs.Add(1)
	fsys.Metrics.TotalOpenedDirs.Add(1)

	return &Dir{fsys: fsys, path: dirpath, stream: stream}, nil
}

// direct reports whether the handle is bound to the direct backend.
func (d *Dir) direct() bool {
	return d.stream != nil
}

// Path returns the resolved on-disk path of a direct handle, or the
// empty string for a bundle handle.
func (d *Dir) Path() string {
	return d.path
}

// ReadNext returns the next entry of the directory, or [io.EOF] once
// the sequence is exhausted. The sequence is finite, lazy and in
// backend order: defined child order for the bundle backend, operating
// system order for the direct backend.
func (d *Dir) ReadNext() (Dirent, error) {
	if d.closed {
		return Dirent{}, ErrClosed
	}

	if !d.direct() {
		children := d.node.Children()
		if d.cursor >= len(children) {
			return Dirent{}, io.EOF
		}

		child := children[d.cursor]
		d.cursor++

		return Dirent{Name: child.Name, Kind: child.Kind}, nil
	}

	names, err := d.stream.Readdirnames(1)
	if err != nil || len(names) == 0 {
		// Stream errors fold into end-of-sequence.
		return Dirent{}, io.EOF
	}

	ent := Dirent{Name: names[0], Kind: bundle.KindUnknown}
	if info, err := os.Lstat(filepath.Join(d.path, names[0])); err == nil {
		if info.IsDir() {
			ent.Kind = bundle.KindDir
		} else {
			ent.Kind = bundle.KindFile
		}
	}

	return ent, nil
}

// Close releases the handle and, for the direct backend, the
// underlying directory stream. Close is idempotent.
func (d *Dir) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.fsys.Metrics.OpenDirs.Add(-1)

	if d.stream != nil {
		if err := d.stream.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("failed to close directory stream: %w", err)
		}
	}

	return nil
}
