// Package embeddings reads embedding collections from shared storage.
//
// A collection is a set of files, each holding a contiguous block of
// vector rows. Supported formats are NumPy ".npy" arrays (float32 or
// float16) and ".jsonl" tabular files with an embedding column and
// optional identifier columns; files may additionally carry an outer
// compression extension (".zst", ".lz4", ".gz").
package embeddings

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/vecbuild/blobstore"
)

// Options configures how embedding files are interpreted.
type Options struct {
	// EmbeddingColumn names the vector column for tabular formats.
	// Default: "embedding".
	EmbeddingColumn string

	// IDColumns names the identifier columns for tabular formats. When
	// set, ReadRows returns one IDRecord per row holding these columns.
	IDColumns []string
}

func (o Options) embeddingColumn() string {
	if o.EmbeddingColumn == "" {
		return "embedding"
	}
	return o.EmbeddingColumn
}

// IDRecord holds the identifier columns of one row.
type IDRecord map[string]any

// Rows is a block of contiguous rows read from one file.
type Rows struct {
	// Vectors holds the embedding rows.
	Vectors [][]float32

	// IDs holds the identifier columns per row. Nil when the format has
	// no identifiers or none were requested.
	IDs []IDRecord
}

// Reader reads one embedding file. Implementations open the underlying
// blob per call so handles never outlive an operation.
type Reader interface {
	// RowCount returns the number of rows without materializing vector
	// data.
	RowCount(ctx context.Context) (int64, error)

	// ReadRows returns rows [start, end) of the file.
	ReadRows(ctx context.Context, start, end int64) (*Rows, error)

	// Close releases any cached state.
	Close() error
}

// ErrUnsupportedFormat is returned for files with no registered reader.
type ErrUnsupportedFormat struct {
	Name string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported embedding file format: %s", e.Name)
}

// OpenFunc constructs a Reader for one file.
type OpenFunc func(store blobstore.Store, name string, opts Options) (Reader, error)

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]OpenFunc)
)

// Register registers a reader constructor for a file extension (with
// leading dot, e.g. ".npy"). Format files call this from init.
func Register(ext string, fn OpenFunc) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if _, ok := formats[ext]; ok {
		panic(fmt.Sprintf("embeddings: format already registered for %s", ext))
	}
	formats[ext] = fn
}

// FormatExt returns the format extension of a file name, looking through
// any outer compression extension ("part0.npy.zst" -> ".npy").
func FormatExt(name string) string {
	return path.Ext(strings.TrimSuffix(name, compressionExt(name)))
}

// Open constructs a Reader for the named file, selecting the format by
// extension.
func Open(store blobstore.Store, name string, opts Options) (Reader, error) {
	formatsMu.RLock()
	fn, ok := formats[FormatExt(name)]
	formatsMu.RUnlock()
	if !ok {
		return nil, &ErrUnsupportedFormat{Name: name}
	}
	return fn(store, name, opts)
}

// List returns the names of all supported embedding files under prefix,
// sorted. File order defines the global row order of the collection.
func List(ctx context.Context, store blobstore.Store, prefix string) ([]string, error) {
	all, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	formatsMu.RLock()
	defer formatsMu.RUnlock()

	var names []string
	for _, name := range all {
		if _, ok := formats[FormatExt(name)]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
