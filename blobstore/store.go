package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for shared storage holding embedding files and
// shard indexes. Implementations exist for the local filesystem, memory
// (tests), S3 and MinIO.
//
// Names use forward slashes regardless of the backend; a prefix acts as a
// directory.
type Store interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The blob is visible
	// under its name once Close returns.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob in one shot, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// List returns the names of all blobs under prefix, relative to the
	// store root.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a single blob.
	Delete(ctx context.Context, name string) error

	// RemoveAll removes every blob under prefix.
	RemoveAll(ctx context.Context, prefix string) error
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64

	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length). A negative
	// length reads to the end of the blob.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a write-only handle to a new blob.
// The data is not guaranteed to be visible until Close returns nil.
type WritableBlob interface {
	io.Writer
	io.Closer
}
