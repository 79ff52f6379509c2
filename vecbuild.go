package vecbuild

import (
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/hupe1980/vecbuild/compute"
	"github.com/hupe1980/vecbuild/compute/local"
	"github.com/hupe1980/vecbuild/embeddings"
	"github.com/hupe1980/vecbuild/index"
)

// DefaultShardPrefix is the shared-storage prefix holding the per-batch
// shard indexes while a run is in flight.
const DefaultShardPrefix = "vecbuild-indices"

// Config holds the required inputs of a distributed build.
type Config struct {
	// Embeddings is the store holding the embedding files.
	Embeddings blobstore.Store

	// EmbeddingsPrefix scopes the embedding file listing. Empty means
	// the store root.
	EmbeddingsPrefix string

	// Shards is the store used as scratch space for shard indexes. The
	// whole shard prefix is removed after a successful merge.
	Shards blobstore.Store

	// ShardPrefix is the scratch prefix inside Shards.
	// Default: DefaultShardPrefix.
	ShardPrefix string

	// BatchSize is the number of vectors per worker task.
	BatchSize int64
}

// Run builds one merged index from every embedding file under the
// configured prefix.
//
// The trained index must be empty; it is serialized once, broadcast to
// every worker, independently populated per batch, and the resulting
// shards are reduced into the returned index with identifier shifting.
// Shard scratch storage is removed on success; the local merge directory
// is removed on every path.
func Run(ctx context.Context, trained index.Index, cfg Config, optFns ...Option) (merged index.Index, err error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	defer func() {
		vectors := 0
		if merged != nil {
			vectors = merged.Count()
		}
		o.logger.LogRun(ctx, vectors, err)
	}()

	if trained == nil {
		return nil, ErrNilIndex
	}
	if cfg.Embeddings == nil || cfg.Shards == nil {
		return nil, ErrMissingStore
	}
	if cfg.BatchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	if cfg.ShardPrefix == "" {
		cfg.ShardPrefix = DefaultShardPrefix
	}

	session := o.session
	if session == nil {
		session = compute.Active()
	}
	if session == nil {
		// Mirror the framework-side fallback: a minimal single-process
		// session with explicit, overridable defaults.
		o.logger.InfoContext(ctx, "no active compute session found, creating a local one")
		localSession := local.New(local.DefaultConfig())
		defer localSession.Close()
		session = localSession
	}

	// Serialize the trained index once and share it read-only with every
	// task.
	trainedBytes, err := indexToBytes(trained)
	if err != nil {
		return nil, fmt.Errorf("serialize trained index: %w", err)
	}
	broadcast, err := session.Broadcast(ctx, trainedBytes)
	if err != nil {
		return nil, fmt.Errorf("broadcast trained index: %w", err)
	}

	files, err := embeddings.List(ctx, cfg.Embeddings, cfg.EmbeddingsPrefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %q", ErrNoEmbeddingFiles, cfg.EmbeddingsPrefix)
	}

	chunkSizes, err := resolveChunkSizes(ctx, cfg.Embeddings, files, o.readOpts)
	if err != nil {
		return nil, fmt.Errorf("resolve chunk sizes: %w", err)
	}

	var totalVectors int64
	for _, size := range chunkSizes {
		totalVectors += size
	}

	batches := PlanBatches(totalVectors, cfg.BatchSize)
	o.logger.LogBatchesPlanned(ctx, totalVectors, cfg.BatchSize, len(batches))

	err = session.Foreach(ctx, batches, func(ctx context.Context, batch compute.Batch) error {
		return buildShard(ctx, shardTask{
			batch:       batch,
			trained:     broadcast,
			embStore:    cfg.Embeddings,
			files:       files,
			chunkSizes:  chunkSizes,
			shardStore:  cfg.Shards,
			shardPrefix: cfg.ShardPrefix,
			readOpts:    o.readOpts,
			idHandler:   o.idHandler,
			numCores:    o.numCores,
			controller:  o.controller,
			logger:      o.logger,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("distributed shard build: %w", err)
	}

	merged, err = collectAndMerge(ctx, cfg, batches, o)
	if err != nil {
		return nil, err
	}

	if err := cfg.Shards.RemoveAll(ctx, cfg.ShardPrefix); err != nil {
		return nil, fmt.Errorf("remove shard scratch storage: %w", err)
	}

	return merged, nil
}

// collectAndMerge downloads all shards into a private local directory and
// reduces them. The directory is removed on success and failure alike.
func collectAndMerge(ctx context.Context, cfg Config, batches []compute.Batch, o options) (index.Index, error) {
	workDir, err := os.MkdirTemp("", "vecbuild-merge-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	expected := 0
	if o.shardCountCheck {
		expected = len(batches)
	}

	if err := collectShards(ctx, cfg.Shards, cfg.ShardPrefix, workDir, collectorOptions{
		width:      o.downloadWidth,
		expected:   expected,
		controller: o.controller,
		logger:     o.logger,
	}); err != nil {
		return nil, err
	}

	return mergeShards(ctx, workDir, o.logger)
}
