package vecbuild

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/hupe1980/vecbuild/resource"
	"golang.org/x/sync/errgroup"
)

// collectorOptions configures one shard collection.
type collectorOptions struct {
	// width bounds the concurrent downloads.
	width int

	// expected is the planned batch count; a non-zero value makes a
	// diverging shard listing fail the run before the merge starts.
	expected int

	controller *resource.Controller
	logger     *Logger
}

// collectShards lists all shard indexes under prefix and downloads them
// into dstDir in parallel. An empty listing fails with ErrNoShards: it
// means the fan-out produced nothing. Individual download failures
// propagate; silently skipping a shard would corrupt the merge.
func collectShards(ctx context.Context, store blobstore.Store, prefix, dstDir string, o collectorOptions) error {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: %s", ErrNoShards, prefix)
	}
	if o.expected > 0 && len(names) != o.expected {
		return &ErrShardCountMismatch{Expected: o.expected, Actual: len(names)}
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}

	var completed atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.width)

	for _, name := range names {
		g.Go(func() error {
			if err := o.controller.AcquireDownload(ctx); err != nil {
				return err
			}
			defer o.controller.ReleaseDownload()

			n, err := downloadShard(ctx, store, name, dstDir, o.controller)
			o.logger.LogDownload(ctx, name, n, int(completed.Add(1)), len(names), err)
			return err
		})
	}
	return g.Wait()
}

// downloadShard copies one shard blob to dstDir, keeping its base name.
func downloadShard(ctx context.Context, store blobstore.Store, name, dstDir string, controller *resource.Controller) (int64, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer blob.Close()

	if err := controller.AcquireIO(ctx, int(blob.Size())); err != nil {
		return 0, err
	}

	r, err := blob.ReadRange(ctx, 0, -1)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	dst, err := os.Create(filepath.Join(dstDir, path.Base(name)))
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return n, err
}
