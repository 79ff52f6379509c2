// Package flat provides the reference vector-index engine for the build
// pipeline: a dense flat index with sequential local identifiers and
// merge-time identifier shifting.
package flat

import (
	"runtime"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecbuild/index"
)

// Compile-time checks.
var _ index.Index = (*Flat)(nil)
var _ index.ThreadSetter = (*Flat)(nil)

// Flat is a dense flat index. Vectors are stored row-major in one
// contiguous float32 slice; identifiers are assigned sequentially from
// nextID and tracked in a roaring bitmap so merges can prove the combined
// id space is collision free.
//
// Flat is not safe for concurrent mutation; the build pipeline gives every
// worker its own instance.
type Flat struct {
	dim     int
	ids     []uint32
	vectors []float32
	idSet   *roaring.Bitmap
	nextID  uint32
	threads int
}

// New creates an empty flat index with the given dimensionality.
func New(dim int) *Flat {
	return &Flat{
		dim:   dim,
		idSet: roaring.New(),
	}
}

// Dimension returns the vector dimensionality.
func (f *Flat) Dimension() int { return f.dim }

// Count returns the number of stored vectors.
func (f *Flat) Count() int { return len(f.ids) }

// IDs returns the stored identifiers in insertion order.
func (f *Flat) IDs() []uint32 {
	out := make([]uint32, len(f.ids))
	copy(out, f.ids)
	return out
}

// SetThreads caps the number of goroutines used while copying vector data
// into the index. n <= 0 resets to all available cores.
func (f *Flat) SetThreads(n int) {
	f.threads = n
}

// Add appends vectors and returns their assigned identifiers, which are
// locally monotonic starting at the current high-water mark.
func (f *Flat) Add(vectors [][]float32) ([]uint32, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	for _, v := range vectors {
		if len(v) != f.dim {
			return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(v)}
		}
	}

	base := len(f.vectors)
	f.vectors = append(f.vectors, make([]float32, len(vectors)*f.dim)...)

	threads := f.threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > len(vectors) {
		threads = len(vectors)
	}

	// Row copies are independent, so the memory-bandwidth-bound bulk copy
	// is split across the configured thread budget.
	var wg sync.WaitGroup
	chunk := (len(vectors) + threads - 1) / threads
	for w := 0; w < threads; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(vectors))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				copy(f.vectors[base+i*f.dim:base+(i+1)*f.dim], vectors[i])
			}
		}(lo, hi)
	}
	wg.Wait()

	assigned := make([]uint32, len(vectors))
	for i := range vectors {
		id := f.nextID
		f.nextID++
		f.ids = append(f.ids, id)
		f.idSet.Add(id)
		assigned[i] = id
	}
	return assigned, nil
}

// Vector returns the i-th stored vector (insertion order). The returned
// slice aliases the index storage.
func (f *Flat) Vector(i int) []float32 {
	return f.vectors[i*f.dim : (i+1)*f.dim]
}

// Merge absorbs other into f. With shiftIDs, other's identifiers are offset
// by f's high-water mark so the combined id space stays disjoint; without
// it, identifiers are taken as-is and any duplicate fails the merge.
func (f *Flat) Merge(other index.Index, shiftIDs bool) error {
	o, ok := other.(*Flat)
	if !ok {
		return &index.ErrIncompatibleIndex{Reason: "merge requires two flat indexes"}
	}
	if o.dim != f.dim {
		return &index.ErrDimensionMismatch{Expected: f.dim, Actual: o.dim}
	}

	offset := uint32(0)
	if shiftIDs {
		offset = f.nextID
	}

	for _, id := range o.ids {
		shifted := id + offset
		if f.idSet.Contains(shifted) {
			return &index.ErrIDCollision{ID: shifted}
		}
	}

	for _, id := range o.ids {
		shifted := id + offset
		f.ids = append(f.ids, shifted)
		f.idSet.Add(shifted)
		if shifted >= f.nextID {
			f.nextID = shifted + 1
		}
	}
	f.vectors = append(f.vectors, o.vectors...)
	return nil
}
