// Package bundle implements the static, read-only resource tree that
// substitutes for a real filesystem in embedded deployments. A tree is
// built once (usually from an embed.FS at startup) and never mutated,
// so it is safe for concurrent readers without locking.
package bundle

// Kind classifies an [Entry] or a directory iteration result.
type Kind uint8

const (
	// KindUnknown marks an entry whose type could not be determined.
	KindUnknown Kind = iota

	// KindDir marks a directory entry.
	KindDir

	// KindFile marks a regular file entry.
	KindFile
)

// String returns the human-readable name of a [Kind].
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Uncompressed is the sentinel for [Entry.Orig] marking a file entry
// whose payload is stored as plain bytes rather than gzip-compressed.
const Uncompressed int64 = -1

// Entry is a node of a resource tree. Directory entries carry an
// ordered child list, file entries carry their payload bytes. An Entry
// must not be modified once handed to a consumer.
type Entry struct {
	// Name is the path component of the entry, without separators.
	Name string

	// Kind is the node type, [KindDir] or [KindFile].
	Kind Kind

	// Data is the stored payload of a file entry. For a pre-compressed
	// entry these are the gzip bytes as stored, not the original ones.
	Data []byte

	// Orig is the pre-compression size of a gzip-stored file entry,
	// or [Uncompressed] when Data holds the original bytes directly.
	Orig int64

	children []*Entry
}

// NewDir returns a directory [Entry] with the given children, kept in
// the given order.
func NewDir(name string, children ...*Entry) *Entry {
	return &Entry{
		Name:     name,
		Kind:     KindDir,
		Orig:     Uncompressed,
		children: children,
	}
}

// NewFile returns a file [Entry] storing data uncompressed.
func NewFile(name string, data []byte) *Entry {
	return &Entry{
		Name: name,
		Kind: KindFile,
		Data: data,
		Orig: Uncompressed,
	}
}

// NewGzipFile returns a file [Entry] whose stored bytes are gzip
// compressed, with orig being the size of the original content.
func NewGzipFile(name string, gzdata []byte, orig int64) *Entry {
	return &Entry{
		Name: name,
		Kind: KindFile,
		Data: gzdata,
		Orig: orig,
	}
}

// Gzipped reports whether the stored payload is gzip-compressed.
func (e *Entry) Gzipped() bool {
	return e.Orig != Uncompressed
}

// Size returns the stored payload size of a file entry.
func (e *Entry) Size() int64 {
	return int64(len(e.Data))
}

// Children returns the ordered child list of a directory entry.
// The returned slice is owned by the entry and must not be modified.
func (e *Entry) Children() []*Entry {
	return e.children
}

// Find returns the direct child with the given name, or nil.
func (e *Entry) Find(name string) *Entry {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// Append adds children to a directory entry. It is only meant for use
// during tree construction, before the tree is published to readers.
func (e *Entry) Append(children ...*Entry) {
	e.children = append(e.children, children...)
}
