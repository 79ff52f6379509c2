package vecbuild

import (
	"errors"
	"fmt"
)

var (
	// ErrNilIndex is returned when no trained index was supplied.
	ErrNilIndex = errors.New("trained index must not be nil")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrMissingStore is returned when a required store is not configured.
	ErrMissingStore = errors.New("embeddings and shards stores must be configured")

	// ErrNoEmbeddingFiles is returned when the embeddings prefix holds no
	// supported files.
	ErrNoEmbeddingFiles = errors.New("no embedding files found")

	// ErrNoShards is returned when shard storage holds no shard indexes
	// at merge time. It signals that the distributed fan-out produced
	// nothing, typically because every task failed.
	ErrNoShards = errors.New("no shard indexes found in shard storage")
)

// ErrChunkSizeMismatch indicates the per-file row counts and the file list
// diverged. This is a configuration error; no distributed work has been
// dispatched when it is raised.
type ErrChunkSizeMismatch struct {
	ChunkSizes int
	Files      int
}

func (e *ErrChunkSizeMismatch) Error() string {
	return fmt.Sprintf("chunk size list has %d entries for %d embedding files", e.ChunkSizes, e.Files)
}

// ErrShardCountMismatch indicates that shard storage held a different
// number of shards than batches were dispatched, meaning part of the
// fan-out silently failed.
type ErrShardCountMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrShardCountMismatch) Error() string {
	return fmt.Sprintf("expected %d shard indexes, found %d", e.Expected, e.Actual)
}
