// Package blobstore abstracts the shared storage used during a distributed
// index build: the source embedding files and the per-batch shard indexes
// written as scratch state between the build and merge phases.
//
// The Store interface is deliberately small:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)           // Open for reading
//	    Create(ctx, name) (WritableBlob, error) // Create for writing
//	    Put(ctx, name, data) error              // One-shot write
//	    List(ctx, prefix) ([]string, error)     // Enumerate
//	    Delete(ctx, name) error
//	    RemoveAll(ctx, prefix) error            // Scratch cleanup
//	}
//
// Shard writers rely on Put being a whole-object overwrite: a retried build
// task writes the same name again and the last write wins, which keeps
// task retries idempotent.
//
// For cloud backends, Blob.ReadRange maps to ranged GETs so embedding
// readers can fetch row slices without downloading whole files.
package blobstore
