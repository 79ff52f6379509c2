package vecbuild

import (
	"github.com/hupe1980/vecbuild/compute"
)

// PlanBatches splits [0, totalVectors) into ceil(totalVectors/batchSize)
// contiguous, non-overlapping batches of batchSize rows each, the last one
// clamped to totalVectors. The plan is deterministic, so re-submitting a
// failed run reproduces the same batch boundaries.
func PlanBatches(totalVectors, batchSize int64) []compute.Batch {
	if totalVectors <= 0 || batchSize <= 0 {
		return nil
	}

	n := int((totalVectors + batchSize - 1) / batchSize)
	batches := make([]compute.Batch, n)
	for i := range batches {
		start := batchSize * int64(i)
		end := min(start+batchSize, totalVectors)
		batches[i] = compute.Batch{ID: i, Start: start, End: end}
	}
	return batches
}
