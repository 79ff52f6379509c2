package blobstore

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "indices/index_0", []byte("shard zero")))
	require.NoError(t, store.Put(ctx, "indices/index_1", []byte("shard one")))
	require.NoError(t, store.Put(ctx, "embeddings/part0.npy", []byte("data")))

	names, err := store.List(ctx, "indices")
	require.NoError(t, err)
	require.Equal(t, []string{"indices/index_0", "indices/index_1"}, names)

	blob, err := store.Open(ctx, "indices/index_0")
	require.NoError(t, err)
	require.Equal(t, int64(10), blob.Size())

	r, err := blob.ReadRange(ctx, 6, -1)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "zero", string(content))
	require.NoError(t, blob.Close())

	require.NoError(t, store.RemoveAll(ctx, "indices"))
	require.Equal(t, 1, store.Len())

	_, err = store.Open(ctx, "indices/index_0")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_OpenReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob", []byte("before")))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	// Overwrite after opening; the open handle must keep the old bytes.
	require.NoError(t, store.Put(ctx, "blob", []byte("after!")))

	buf := make([]byte, 6)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, "before", string(buf))
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := store.Create(ctx, "blob")
			require.NoError(t, err)
			_, err = w.Write([]byte("payload"))
			require.NoError(t, err)
			require.NoError(t, w.Close())
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, store.Len())
}
