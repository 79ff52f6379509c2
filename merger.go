package vecbuild

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/vecbuild/index"
)

// shardOrdinal extracts the numeric suffix of a shard file name
// ("index_12" -> 12).
func shardOrdinal(name string) (int, bool) {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// mergeShards reduces all shard files in dir into a single index. Shards
// merge in batch order (numeric name suffix, lexical fallback), so the
// merged index holds its vectors in global row order; every shard after
// the first is merged with identifier shifting so each shard's locally
// monotonic ids stay globally disjoint.
func mergeShards(ctx context.Context, dir string, logger *Logger) (index.Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.SortFunc(paths, func(a, b string) int {
		ai, aok := shardOrdinal(filepath.Base(a))
		bi, bok := shardOrdinal(filepath.Base(b))
		if aok && bok && ai != bi {
			return cmp.Compare(ai, bi)
		}
		return strings.Compare(a, b)
	})

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoShards, dir)
	}

	merged, err := index.LoadFromFile(paths[0])
	if err != nil {
		logger.LogMerge(ctx, len(paths), 0, err)
		return nil, fmt.Errorf("load first shard: %w", err)
	}
	expected := merged.Count()

	for _, p := range paths[1:] {
		shard, err := index.LoadFromFile(p)
		if err != nil {
			logger.LogMerge(ctx, len(paths), 0, err)
			return nil, fmt.Errorf("load shard %s: %w", filepath.Base(p), err)
		}
		expected += shard.Count()

		if err := merged.Merge(shard, true); err != nil {
			logger.LogMerge(ctx, len(paths), 0, err)
			return nil, fmt.Errorf("merge shard %s: %w", filepath.Base(p), err)
		}
	}

	if merged.Count() != expected {
		err := fmt.Errorf("merged index holds %d vectors, shards held %d", merged.Count(), expected)
		logger.LogMerge(ctx, len(paths), merged.Count(), err)
		return nil, err
	}

	logger.LogMerge(ctx, len(paths), merged.Count(), nil)
	return merged, nil
}
