package vecbuild

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/stretchr/testify/require"
)

func TestCollectShards(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads every shard", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		want := map[string][]byte{}
		for i := range 5 {
			name := path.Join("indices", shardName(i))
			data := encodeFlatShard(t, 4, testMatrix(i+1, 4, float32(i)))
			require.NoError(t, store.Put(ctx, name, data))
			want[shardName(i)] = data
		}

		dst := filepath.Join(t.TempDir(), "merge")
		err := collectShards(ctx, store, "indices", dst, collectorOptions{
			width:    3,
			expected: 5,
			logger:   NoopLogger(),
		})
		require.NoError(t, err)

		entries, err := os.ReadDir(dst)
		require.NoError(t, err)
		require.Len(t, entries, 5)
		for base, data := range want {
			got, err := os.ReadFile(filepath.Join(dst, base))
			require.NoError(t, err)
			require.Equal(t, data, got)
		}
	})

	t.Run("empty prefix", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		err := collectShards(ctx, store, "indices", t.TempDir(), collectorOptions{
			width:  2,
			logger: NoopLogger(),
		})
		require.ErrorIs(t, err, ErrNoShards)
	})

	t.Run("shard count mismatch", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "indices/index_0", encodeFlatShard(t, 4, testMatrix(2, 4, 0))))
		require.NoError(t, store.Put(ctx, "indices/index_1", encodeFlatShard(t, 4, testMatrix(2, 4, 8))))

		err := collectShards(ctx, store, "indices", t.TempDir(), collectorOptions{
			width:    2,
			expected: 3,
			logger:   NoopLogger(),
		})

		var mismatch *ErrShardCountMismatch
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, 3, mismatch.Expected)
		require.Equal(t, 2, mismatch.Actual)
	})

	t.Run("mismatch ignored when unverified", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "indices/index_0", encodeFlatShard(t, 4, testMatrix(2, 4, 0))))

		err := collectShards(ctx, store, "indices", t.TempDir(), collectorOptions{
			width:  2,
			logger: NoopLogger(),
		})
		require.NoError(t, err)
	})
}

func TestShardName(t *testing.T) {
	require.Equal(t, "index_0", shardName(0))
	require.Equal(t, "index_42", shardName(42))
}
