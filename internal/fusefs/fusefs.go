// Package fusefs exposes a [bundlefs.FS] as a read-only FUSE mount.
// Pre-compressed bundle entries are inflated on demand, so the mount
// always shows the plain file contents.
package fusefs

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/desertwitch/bundlefs"
	"github.com/desertwitch/bundlefs/bundle"
	"github.com/desertwitch/bundlefs/internal/logging"
)

const (
	fileBasePerm = 0o444 // RO
	dirBasePerm  = 0o555 // RO
)

var _ fs.FS = (*FS)(nil)

// FS is the FUSE frontend of a virtual filesystem.
type FS struct {
	fsys  *bundlefs.FS
	rbuf  *logging.RingBuffer
	start time.Time
}

// New returns a pointer to a new FUSE frontend over fsys.
func New(fsys *bundlefs.FS, rbuf *logging.RingBuffer) *FS {
	return &FS{fsys: fsys, rbuf: rbuf, start: time.Now()}
}

// Root returns the topmost [fs.Node] of the filesystem.
func (f *FS) Root() (fs.Node, error) {
	return &dirNode{owner: f, path: "", inode: 1}, nil
}

// Mount mounts the filesystem read-only at mountpoint and serves it
// until the connection is closed or unmounted.
func (f *FS) Mount(mountpoint string) error {
	conn, err := fuse.Mount(mountpoint, fuse.ReadOnly(), fuse.FSName("bundlefs"))
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer conn.Close() //nolint:errcheck

	f.rbuf.Printf("mounted on %s\n", mountpoint)

	return fs.Serve(conn, f) //nolint:wrapcheck
}

var (
	_ fs.Node               = (*dirNode)(nil)
	_ fs.HandleReadDirAller = (*dirNode)(nil)
	_ fs.NodeStringLookuper = (*dirNode)(nil)
)

// dirNode is a directory of the virtual filesystem, bundle or direct.
type dirNode struct {
	owner *FS
	path  string // logical path within the virtual filesystem
	inode uint64
}

func (d *dirNode) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | dirBasePerm
	a.Inode = d.inode

	a.Atime = d.owner.start
	a.Ctime = d.owner.start
	a.Mtime = d.owner.start

	return nil
}

func (d *dirNode) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dir, err := d.owner.fsys.OpenDir(d.path)
	if err != nil {
		return nil, toFuseErr(err)
	}
	defer dir.Close() //nolint:errcheck

	var resp []fuse.Dirent

	for {
		ent, err := dir.ReadNext()
		if err != nil {
			break
		}

		de := fuse.Dirent{
			Name:  ent.Name,
			Inode: fs.GenerateDynamicInode(d.inode, ent.Name),
		}
		switch ent.Kind {
		case bundle.KindDir:
			de.Type = fuse.DT_Dir
		case bundle.KindFile:
			de.Type = fuse.DT_File
		default:
			de.Type = fuse.DT_Unknown
		}

		resp = append(resp, de)
	}

	return resp, nil
}

func (d *dirNode) Lookup(_ context.Context, name string) (fs.Node, error) {
	dir, err := d.owner.fsys.OpenDir(d.path)
	if err != nil {
		return nil, toFuseErr(err)
	}
	defer dir.Close() //nolint:errcheck

	for {
		ent, err := dir.ReadNext()
		if err != nil {
			return nil, toFuseErr(syscall.ENOENT)
		}
		if ent.Name != name {
			continue
		}

		full := path.Join(d.path, name)
		inode := fs.GenerateDynamicInode(d.inode, name)

		if ent.Kind == bundle.KindDir {
			return &dirNode{owner: d.owner, path: full, inode: inode}, nil
		}

		f, err := dir.Open(name, true, false)
		if err != nil {
			d.owner.rbuf.Printf("%q->Lookup: %v\n", full, err)

			return nil, toFuseErr(err)
		}
		size := f.Size()
		f.Close() //nolint:errcheck,gosec

		return &fileNode{owner: d.owner, path: full, size: size, inode: inode}, nil
	}
}

var (
	_ fs.Node            = (*fileNode)(nil)
	_ fs.HandleReadAller = (*fileNode)(nil)
)

// fileNode is a file of the virtual filesystem, served decompressed
// and loaded fully into memory on read.
type fileNode struct {
	owner *FS
	path  string
	size  int64
	inode uint64
}

func (f *fileNode) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = fileBasePerm
	a.Inode = f.inode
	a.Size = uint64(f.size)

	a.Atime = f.owner.start
	a.Ctime = f.owner.start
	a.Mtime = f.owner.start

	return nil
}

func (f *fileNode) ReadAll(_ context.Context) ([]byte, error) {
	file, err := f.owner.fsys.Open(f.path, true, false)
	if err != nil {
		f.owner.rbuf.Printf("%q->ReadAll: %v\n", f.path, err)

		return nil, toFuseErr(err)
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		f.owner.rbuf.Printf("%q->ReadAll: IO Error: %v\n", f.path, err)

		return nil, toFuseErr(syscall.EIO)
	}

	return data, nil
}

func toFuseErr(err error) error {
	switch {
	case errors.Is(err, bundlefs.ErrNotExist):
		return fuse.ToErrno(syscall.ENOENT)

	case errors.Is(err, bundlefs.ErrTransform):
		return fuse.ToErrno(syscall.EIO)

	default:
		return fuse.ToErrno(syscall.EIO)
	}
}
