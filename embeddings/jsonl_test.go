package embeddings

import (
	"context"
	"testing"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/stretchr/testify/require"
)

func TestJSONLReader_RowCountAndReadRows(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	matrix := testMatrix(10, 3, 0)
	ids := map[string][]any{
		"doc_id": {"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
	}
	require.NoError(t, store.Put(ctx, "rows.jsonl", encodeJSONL(t, matrix, "embedding", ids)))

	r, err := Open(store, "rows.jsonl", Options{IDColumns: []string{"doc_id"}})
	require.NoError(t, err)
	defer r.Close()

	count, err := r.RowCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10), count)

	rows, err := r.ReadRows(ctx, 3, 7)
	require.NoError(t, err)
	require.Equal(t, matrix[3:7], rows.Vectors)
	require.Len(t, rows.IDs, 4)
	require.Equal(t, "d", rows.IDs[0]["doc_id"])
	require.Equal(t, "g", rows.IDs[3]["doc_id"])
}

func TestJSONLReader_CustomEmbeddingColumn(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	matrix := testMatrix(3, 2, 1)
	require.NoError(t, store.Put(ctx, "rows.jsonl", encodeJSONL(t, matrix, "vec", nil)))

	r, err := Open(store, "rows.jsonl", Options{EmbeddingColumn: "vec"})
	require.NoError(t, err)
	defer r.Close()

	rows, err := r.ReadRows(ctx, 0, 3)
	require.NoError(t, err)
	require.Equal(t, matrix, rows.Vectors)
	require.Nil(t, rows.IDs)
}

func TestJSONLReader_MissingColumn(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "rows.jsonl", encodeJSONL(t, testMatrix(2, 2, 0), "vec", nil)))

	r, err := Open(store, "rows.jsonl", Options{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadRows(ctx, 0, 2)
	require.ErrorContains(t, err, `missing column "embedding"`)
}

func TestJSONLReader_Compressed(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	matrix := testMatrix(8, 2, 0)
	require.NoError(t, store.Put(ctx, "rows.jsonl.zst", compress(t, encodeJSONL(t, matrix, "embedding", nil), ".zst")))

	r, err := Open(store, "rows.jsonl.zst", Options{})
	require.NoError(t, err)
	defer r.Close()

	count, err := r.RowCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(8), count)

	rows, err := r.ReadRows(ctx, 6, 8)
	require.NoError(t, err)
	require.Equal(t, matrix[6:8], rows.Vectors)
}
