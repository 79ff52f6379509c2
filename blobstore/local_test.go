package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	blobName := "indices/index_0"
	data := []byte("hello world, this is a test blob for vecbuild")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	// Verify file exists on disk
	_, err = os.Stat(filepath.Join(tmpDir, "indices", "index_0"))
	require.NoError(t, err)

	// Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// ReadRange
	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	defer rangeReader.Close()

	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.Equal(t, "this", string(rangeContent))

	// List
	require.NoError(t, store.Put(ctx, "indices/index_1", []byte("x")))

	names, err := store.List(ctx, "indices")
	require.NoError(t, err)
	require.Equal(t, []string{"indices/index_0", "indices/index_1"}, names)

	// Delete
	require.NoError(t, store.Delete(ctx, blobName))

	namesAfter, err := store.List(ctx, "indices")
	require.NoError(t, err)
	require.Equal(t, []string{"indices/index_1"}, namesAfter)

	// RemoveAll
	require.NoError(t, store.RemoveAll(ctx, "indices"))

	empty, err := store.List(ctx, "indices")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestLocalStore_PutOverwrites(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "index_3", []byte("first")))
	require.NoError(t, store.Put(ctx, "index_3", []byte("second")))

	blob, err := store.Open(ctx, "index_3")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, -1)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "second", string(content))
}

func TestLocalStore_OpenMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Open(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_ListMissingPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	names, err := store.List(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, names)
}
