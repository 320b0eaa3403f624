package bundlefs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// inflate decompresses gzip-stored bytes into a newly allocated buffer
// of exactly orig bytes. A stream that yields fewer or more bytes than
// recorded fails the whole operation.
func inflate(data []byte, orig int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	defer zr.Close() //nolint:errcheck

	buf := make([]byte, orig)
	if _, err := io.ReadFull(zr, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	// The recorded original size must consume the stream entirely.
	var trail [1]byte
	if n, _ := zr.Read(trail[:]); n != 0 {
		return nil, fmt.Errorf("%w: excess decompressed content", ErrTransform)
	}

	return buf, nil
}

// deflate compresses raw bytes into a newly allocated gzip buffer at
// the maximum compression level.
func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	if _, err := zw.Write(raw); err != nil {
		zw.Close() //nolint:errcheck,gosec

		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	return buf.Bytes(), nil
}
