package vecbuild

import (
	"testing"

	"github.com/hupe1980/vecbuild/compute"
	"github.com/stretchr/testify/require"
)

func TestPlanBatches(t *testing.T) {
	t.Run("last batch clamped", func(t *testing.T) {
		batches := PlanBatches(250, 100)
		require.Equal(t, []compute.Batch{
			{ID: 0, Start: 0, End: 100},
			{ID: 1, Start: 100, End: 200},
			{ID: 2, Start: 200, End: 250},
		}, batches)
	})

	t.Run("exact multiple", func(t *testing.T) {
		batches := PlanBatches(200, 100)
		require.Len(t, batches, 2)
		require.Equal(t, int64(200), batches[1].End)
	})

	t.Run("single short batch", func(t *testing.T) {
		batches := PlanBatches(7, 100)
		require.Equal(t, []compute.Batch{{ID: 0, Start: 0, End: 7}}, batches)
	})

	t.Run("covers every row exactly once", func(t *testing.T) {
		batches := PlanBatches(1234, 97)

		var next int64
		for i, b := range batches {
			require.Equal(t, i, b.ID)
			require.Equal(t, next, b.Start)
			require.Greater(t, b.End, b.Start)
			next = b.End
		}
		require.Equal(t, int64(1234), next)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		require.Nil(t, PlanBatches(0, 100))
		require.Nil(t, PlanBatches(-1, 100))
		require.Nil(t, PlanBatches(100, 0))
		require.Nil(t, PlanBatches(100, -5))
	})
}
