package bundlefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertwitch/bundlefs/bundle"
)

// File is a handle on an open file of either backend.
//
// Whenever a transformation materialized new bytes at open time, the
// handle owns that buffer and all reads source from it. Without a
// buffer, reads source from the backend directly: the bundle entry's
// stored payload, or the open file stream. A File is not safe for
// concurrent use.
type File struct {
	fsys *FS

	size    int64
	gzipped bool
	pos     int64

	// buf holds materialized bytes after an inflate or deflate step.
	// nil means reads go to the backend source below.
	buf []byte

	// bundle backend: the located file entry
	entry *bundle.Entry

	// direct backend: open stream, nil once consumed by a deflate
	// step or closed
	stream *os.File

	closed bool
}

// Open opens the named file within the directory.
//
// With decompress set, a bundle entry stored gzip-compressed is
// inflated into memory at open time, so reads yield the original
// bytes; the flag is ignored for anything not stored compressed. With
// compress set, content not already gzipped is deflated into memory at
// open time, so reads yield gzip bytes. The two flags are mutually
// exclusive, asking for both is a caller bug and panics.
//
// [ErrNotExist] is returned when the name does not resolve to a file,
// [ErrTransform] when a requested transformation fails. On any failure
// every partially acquired resource is released.
func (d *Dir) Open(name string, decompress, compress bool) (*File, error) {
	if decompress && compress {
		panic("bundlefs: decompress and compress are mutually exclusive")
	}
	if d.closed {
		return nil, ErrClosed
	}

	var f *File

	if !d.direct() {
		entry := d.node.Find(name)
		if entry == nil || entry.Kind != bundle.KindFile {
			return nil, fmt.Errorf("bundle %q: %w", name, ErrNotExist)
		}

		f = &File{
			fsys:    d.fsys,
			size:    entry.Size(),
			gzipped: entry.Gzipped(),
			entry:   entry,
		}

		if f.gzipped && decompress {
			buf, err := inflate(entry.Data, entry.Orig)
			if err != nil {
				d.fsys.Metrics.Errors.Add(1)

				return nil, fmt.Errorf("bundle %q: %w", name, err)
			}

			f.buf = buf
			f.size = entry.Orig
			f.gzipped = false

			d.fsys.Metrics.TotalInflates.Add(1)
			d.fsys.Metrics.TotalInflatedBytes.Add(entry.Orig)
		}
	} else {
		path := filepath.Join(d.path, name)

		stream, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("direct %q: %w", name, ErrNotExist)
		}

		info, err := stream.Stat()
		if err != nil {
			stream.Close() //nolint:errcheck,gosec

			return nil, fmt.Errorf("direct %q: %w", name, ErrNotExist)
		}

		f = &File{
			fsys:   d.fsys,
			size:   info.Size(),
			stream: stream,
		}
	}

	if compress && !f.gzipped {
		if err := f.deflate(); err != nil {
			f.release()
			d.fsys.Metrics.Errors.Add(1)

			return nil, fmt.Errorf("%q: %w", name, err)
		}
	}

	d.fsys.Metrics.OpenFiles.Add(1)
	d.fsys.Metrics.TotalOpenedFiles.Add(1)

	return f, nil
}

// deflate replaces the handle's readable content with its gzip form.
// For the direct backend the stream is fully consumed and closed, the
// handle owns the compressed buffer afterwards.
func (f *File) deflate() error {
	var raw []byte

	if f.entry != nil {
		raw = f.entry.Data
	} else {
		data, err := io.ReadAll(f.stream)

		f.stream.Close() //nolint:errcheck,gosec
		f.stream = nil

		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransform, err)
		}
		if int64(len(data)) != f.size {
			return fmt.Errorf("%w: short read of source content", ErrTransform)
		}
		raw = data
	}

	buf, err := deflate(raw)
	if err != nil {
		return err
	}

	f.buf = buf
	f.size = int64(len(buf))
	f.gzipped = true

	f.fsys.Metrics.TotalDeflates.Add(1)
	f.fsys.Metrics.TotalDeflatedBytes.Add(f.size)

	return nil
}

// Size returns the current total readable size of the file, after any
// transformation that was applied at open time.
func (f *File) Size() int64 {
	return f.size
}

// Gzipped reports whether the readable content is gzip-compressed.
func (f *File) Gzipped() bool {
	return f.gzipped
}

// EOF reports whether the read cursor has reached the end.
func (f *File) EOF() bool {
	return f.pos >= f.size
}

// Read reads up to len(p) bytes into p, advancing the cursor. It
// returns [io.EOF] once the content is exhausted; reads past the end
// do not move the cursor. Backend stream errors end the sequence
// rather than surfacing, the recorded size bounds the content.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if f.EOF() {
		return 0, io.EOF
	}

	switch {
	case f.buf != nil:
		n := copy(p, f.buf[f.pos:f.size])
		f.pos += int64(n)
		f.fsys.Metrics.TotalReadBytes.Add(int64(n))

		return n, nil

	case f.stream != nil:
		n, err := f.stream.Read(p)
		f.pos += int64(n)
		f.fsys.Metrics.TotalReadBytes.Add(int64(n))
		if n == 0 && err != nil {
			return 0, io.EOF
		}

		return n, nil

	default:
		n := copy(p, f.entry.Data[f.pos:])
		f.pos += int64(n)
		f.fsys.Metrics.TotalReadBytes.Add(int64(n))

		return n, nil
	}
}

// ReadLine reads a single line of at most limit bytes, stopping after
// a newline or NUL byte. The terminator is consumed but not returned.
// It returns [io.EOF] only when no bytes at all could be read; a final
// unterminated line is returned as-is. ReadLine is a byte-at-a-time
// convenience built on [File.Read] and keeps no buffering of its own.
func (f *File) ReadLine(limit int) ([]byte, error) {
	line := make([]byte, 0, max(0, min(limit, 128)))
	b := make([]byte, 1)

	for len(line) < limit-1 {
		if _, err := f.Read(b); err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return line, nil
			}

			return nil, err
		}
		if b[0] == '\n' || b[0] == 0x00 {
			break
		}
		line = append(line, b[0])
	}

	return line, nil
}

// release frees backend resources without touching the metrics.
func (f *File) release() {
	if f.stream != nil {
		f.stream.Close() //nolint:errcheck,gosec
		f.stream = nil
	}
	f.buf = nil
}

// Close releases the owned buffer, if any, and closes any still-open
// backend stream. Close is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.release()
	f.fsys.Metrics.OpenFiles.Add(-1)

	return nil
}
