package vecbuild

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/hupe1980/vecbuild/compute"
	"github.com/hupe1980/vecbuild/embeddings"
	"github.com/hupe1980/vecbuild/index"
	"github.com/hupe1980/vecbuild/resource"
)

// shardName derives the storage name of one batch's shard index. The name
// is a pure function of the batch id, so a retried task overwrites its own
// previous attempt instead of leaving duplicates.
func shardName(batchID int) string {
	return fmt.Sprintf("index_%d", batchID)
}

// shardTask carries everything one batch build needs. All fields are
// read-only for the task's duration.
type shardTask struct {
	batch       compute.Batch
	trained     compute.Broadcast
	embStore    blobstore.Store
	files       []string
	chunkSizes  []int64
	shardStore  blobstore.Store
	shardPrefix string
	readOpts    embeddings.Options
	idHandler   IDHandler
	numCores    int
	controller  *resource.Controller
	logger      *Logger
}

// buildShard runs once per batch on a worker: it loads the batch's rows,
// materializes the broadcast trained index, adds the rows and persists the
// shard under its batch-id-derived name.
func buildShard(ctx context.Context, t shardTask) (err error) {
	var added int
	defer func() {
		t.logger.LogShardSaved(ctx, t.batch.ID, added, err)
	}()

	if len(t.chunkSizes) != len(t.files) {
		return &ErrChunkSizeMismatch{ChunkSizes: len(t.chunkSizes), Files: len(t.files)}
	}

	// Clamp the batch end to the collection size; the plan rounds the
	// final batch up before clamping.
	var total int64
	for _, size := range t.chunkSizes {
		total += size
	}
	end := min(t.batch.End, total)

	// Stack the batch rows into one dense matrix. The engine requires
	// float32 input; the readers already deliver it.
	var vectors [][]float32
	var ids []embeddings.IDRecord
	for rows, err := range embeddings.BatchRows(ctx, t.embStore, t.files, t.chunkSizes, t.batch.Start, end, t.readOpts) {
		if err != nil {
			return fmt.Errorf("load batch %d: %w", t.batch.ID, err)
		}
		vectors = append(vectors, rows.Vectors...)
		ids = append(ids, rows.IDs...)
	}

	if t.idHandler != nil && len(ids) > 0 {
		if err := t.idHandler(ids, t.batch.ID); err != nil {
			return fmt.Errorf("id handler for batch %d: %w", t.batch.ID, err)
		}
	}
	ids = nil

	var matrixBytes int64
	if len(vectors) > 0 {
		matrixBytes = int64(len(vectors)) * int64(len(vectors[0])) * 4
	}
	if err := t.controller.AcquireMemory(ctx, matrixBytes); err != nil {
		return err
	}
	defer t.controller.ReleaseMemory(matrixBytes)

	blob, err := t.trained.Value(ctx)
	if err != nil {
		return err
	}
	idx, err := indexFromBytes(blob)
	if err != nil {
		return fmt.Errorf("materialize trained index for batch %d: %w", t.batch.ID, err)
	}

	// Cap the engine's intra-process parallelism so one task cannot
	// oversubscribe a shared worker machine.
	if ts, ok := idx.(index.ThreadSetter); ok {
		cores := t.numCores
		if cores <= 0 {
			cores = runtime.GOMAXPROCS(0)
		}
		ts.SetThreads(cores)
	}

	if _, err := idx.Add(vectors); err != nil {
		return fmt.Errorf("add batch %d: %w", t.batch.ID, err)
	}
	added = len(vectors)
	vectors = nil

	return persistShard(ctx, idx, t.shardStore, t.shardPrefix, t.batch.ID)
}

// persistShard writes the shard index to shared storage via a local temp
// file, since the engine's save API is file oriented. Writing the same
// name twice is an idempotent overwrite.
func persistShard(ctx context.Context, idx index.Index, store blobstore.Store, prefix string, batchID int) error {
	f, err := os.CreateTemp("", "vecbuild-shard-*")
	if err != nil {
		return err
	}
	local := f.Name()
	defer os.Remove(local)

	if err := f.Close(); err != nil {
		return err
	}
	if err := idx.SaveToFile(local); err != nil {
		return err
	}

	data, err := os.ReadFile(local)
	if err != nil {
		return err
	}
	return store.Put(ctx, path.Join(prefix, shardName(batchID)), data)
}
