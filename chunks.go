package vecbuild

import (
	"context"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/hupe1980/vecbuild/embeddings"
	"golang.org/x/sync/errgroup"
)

// chunkProbeWidth bounds the concurrent row-count probes. The probes are
// metadata reads, not compute, so the width is far above core count.
const chunkProbeWidth = 50

// resolveChunkSizes returns the row count of every embedding file, in file
// order. Any unreadable file fails the whole resolution: the offset math
// downstream needs every entry.
func resolveChunkSizes(ctx context.Context, store blobstore.Store, files []string, opts embeddings.Options) ([]int64, error) {
	sizes := make([]int64, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkProbeWidth)

	for i, name := range files {
		g.Go(func() error {
			r, err := embeddings.Open(store, name, opts)
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.RowCount(ctx)
			if err != nil {
				return err
			}
			sizes[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sizes, nil
}
