// Package vecbuild builds a large approximate-nearest-neighbor index when
// the vector collection is too big for one machine.
//
// The caller supplies a trained, empty index and a collection of embedding
// files in shared storage. The pipeline partitions the collection into
// batches independent of file boundaries, serializes the trained index
// once and broadcasts it to every worker, has each worker populate a copy
// with its batch and persist the result as a shard in shared storage, then
// downloads all shards and reduces them into one index with identifier
// shifting so the combined id space stays disjoint.
//
//	trained := flat.New(128)
//
//	merged, err := vecbuild.Run(ctx, trained, vecbuild.Config{
//	    Embeddings: embStore,
//	    Shards:     scratchStore,
//	    BatchSize:  100_000,
//	})
//
// The distributed-compute framework, the vector-index engine and the
// embedding file formats are collaborators behind the compute, index and
// embeddings packages.
package vecbuild
