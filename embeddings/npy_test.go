package embeddings

import (
	"context"
	"testing"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/stretchr/testify/require"
)

func TestNpyReader_RowCountAndReadRows(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	matrix := testMatrix(40, 3, 0)
	require.NoError(t, store.Put(ctx, "part0.npy", encodeNpy(t, matrix, false)))

	r, err := Open(store, "part0.npy", Options{})
	require.NoError(t, err)
	defer r.Close()

	count, err := r.RowCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(40), count)

	rows, err := r.ReadRows(ctx, 10, 30)
	require.NoError(t, err)
	require.Len(t, rows.Vectors, 20)
	require.Nil(t, rows.IDs)
	require.Equal(t, matrix[10], rows.Vectors[0])
	require.Equal(t, matrix[29], rows.Vectors[19])
}

func TestNpyReader_HalfFloats(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	matrix := testMatrix(6, 4, 1)
	require.NoError(t, store.Put(ctx, "half.npy", encodeNpy(t, matrix, true)))

	r, err := Open(store, "half.npy", Options{})
	require.NoError(t, err)
	defer r.Close()

	count, err := r.RowCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(6), count)

	rows, err := r.ReadRows(ctx, 0, 6)
	require.NoError(t, err)
	// Small integers are exactly representable in fp16.
	require.Equal(t, matrix, rows.Vectors)
}

func TestNpyReader_Compressed(t *testing.T) {
	for _, ext := range []string{".zst", ".lz4", ".gz"} {
		t.Run(ext, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			ctx := context.Background()

			matrix := testMatrix(25, 2, 5)
			name := "part0.npy" + ext
			require.NoError(t, store.Put(ctx, name, compress(t, encodeNpy(t, matrix, false), ext)))

			r, err := Open(store, name, Options{})
			require.NoError(t, err)
			defer r.Close()

			count, err := r.RowCount(ctx)
			require.NoError(t, err)
			require.Equal(t, int64(25), count)

			rows, err := r.ReadRows(ctx, 5, 12)
			require.NoError(t, err)
			require.Equal(t, matrix[5:12], rows.Vectors)
		})
	}
}

func TestNpyReader_OutOfBounds(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "p.npy", encodeNpy(t, testMatrix(4, 2, 0), false)))

	r, err := Open(store, "p.npy", Options{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRows(ctx, 2, 5)
	require.Error(t, err)
}

func TestNpyReader_MalformedHeader(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "bad.npy", []byte("not a numpy file at all")))

	r, err := Open(store, "bad.npy", Options{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.RowCount(ctx)
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, err := Open(store, "vectors.parquet", Options{})
	var unsupported *ErrUnsupportedFormat
	require.ErrorAs(t, err, &unsupported)
}

func TestList_FiltersAndSorts(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "emb/part1.npy", []byte("x")))
	require.NoError(t, store.Put(ctx, "emb/part0.npy.zst", []byte("x")))
	require.NoError(t, store.Put(ctx, "emb/rows.jsonl", []byte("x")))
	require.NoError(t, store.Put(ctx, "emb/README.md", []byte("x")))

	names, err := List(ctx, store, "emb")
	require.NoError(t, err)
	require.Equal(t, []string{"emb/part0.npy.zst", "emb/part1.npy", "emb/rows.jsonl"}, names)
}
