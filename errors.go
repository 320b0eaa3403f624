package bundlefs

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotExist occurs when a path or name does not resolve in the
	// active backend. It matches [fs.ErrNotExist] under [errors.Is].
	ErrNotExist = fs.ErrNotExist

	// ErrTransform occurs when gzip inflation or deflation fails, or
	// produces a byte count inconsistent with the recorded sizes.
	ErrTransform = errors.New("content transformation failed")

	// ErrClosed occurs when a handle is used after being closed.
	ErrClosed = errors.New("handle is closed")
)
