// Package index defines the boundary to the vector-index engine.
//
// The build pipeline treats an index as opaque: it can add float32 vectors,
// merge another index into itself with identifier shifting, and round-trip
// through a file. The engine's search and training internals are not part
// of this contract.
package index

import (
	"fmt"
)

// Index is a vector index as seen by the build pipeline.
//
// Identifiers assigned by Add are locally monotonic within one index
// instance. They are NOT globally unique across independently built
// instances; merging with shiftIDs offsets the incoming identifiers so the
// combined id space stays disjoint.
type Index interface {
	// Dimension returns the vector dimensionality, or 0 if the index is
	// empty and untyped.
	Dimension() int

	// Count returns the number of stored vectors.
	Count() int

	// IDs returns the stored vector identifiers in insertion order.
	IDs() []uint32

	// Add appends vectors and returns their assigned identifiers.
	Add(vectors [][]float32) ([]uint32, error)

	// Merge absorbs other into the receiver. With shiftIDs, other's
	// identifiers are offset past the receiver's id space.
	Merge(other Index, shiftIDs bool) error

	// SaveToFile persists the index to a local file. The write is atomic
	// (temp file + rename) so a crashed save never leaves a torn file.
	SaveToFile(filename string) error
}

// ThreadSetter is an optional interface for engines whose add path can use
// multiple CPU cores. Workers use it to cap intra-process parallelism on
// shared machines.
type ThreadSetter interface {
	SetThreads(n int)
}

// ErrDimensionMismatch is returned when a vector's dimensionality does not
// match the index.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrIDCollision is returned when a merge would produce a duplicate vector
// identifier.
type ErrIDCollision struct {
	ID uint32
}

func (e *ErrIDCollision) Error() string {
	return fmt.Sprintf("id collision during merge: %d", e.ID)
}

// ErrIncompatibleIndex is returned when two indexes cannot be merged.
type ErrIncompatibleIndex struct {
	Reason string
}

func (e *ErrIncompatibleIndex) Error() string {
	return fmt.Sprintf("incompatible index: %s", e.Reason)
}
