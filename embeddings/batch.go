package embeddings

import (
	"context"
	"iter"

	"github.com/hupe1980/vecbuild/blobstore"
)

// BatchRows lazily yields the rows of the global range [start, end) over
// the logical concatenation of files. chunkSizes holds the per-file row
// counts, in file order.
//
// One *Rows is yielded per file whose row range intersects [start, end);
// concatenating the yielded blocks in order reconstructs the range
// exactly. Each file's reader is opened, drained for its slice and closed
// before the element is yielded, so open handles never accumulate.
func BatchRows(
	ctx context.Context,
	store blobstore.Store,
	files []string,
	chunkSizes []int64,
	start, end int64,
	opts Options,
) iter.Seq2[*Rows, error] {
	return func(yield func(*Rows, error) bool) {
		var curStart, curEnd int64
		for i, chunkSize := range chunkSizes {
			if i >= len(files) {
				return
			}
			curEnd += chunkSize

			// Files ending at or before start contribute nothing.
			if curEnd <= start {
				curStart += chunkSize
				continue
			}

			sliceStart := max(int64(0), start-curStart)
			sliceEnd := min(chunkSize, end-curStart)
			if sliceStart >= sliceEnd {
				// Past the range end the iteration is done; an empty
				// intersection (a zero-row file) just moves on.
				if end <= curStart {
					return
				}
				curStart += chunkSize
				continue
			}

			rows, err := readFileRows(ctx, store, files[i], sliceStart, sliceEnd, opts)
			if !yield(rows, err) || err != nil {
				return
			}

			if curEnd >= end {
				return
			}
			curStart += chunkSize
		}
	}
}

// readFileRows reads one file's slice with a scoped reader acquisition.
func readFileRows(ctx context.Context, store blobstore.Store, name string, start, end int64, opts Options) (*Rows, error) {
	r, err := Open(store, name, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.ReadRows(ctx, start, end)
}
