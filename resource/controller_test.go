package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestController_MemoryTracking(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 1024})
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 512))
	require.Equal(t, int64(512), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(ctx, 512))
	require.Equal(t, int64(1024), c.MemoryUsage())

	// Over budget: must block until released.
	ctxShort, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.Error(t, c.AcquireMemory(ctxShort, 1))

	c.ReleaseMemory(1024)
	require.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_DownloadSlots(t *testing.T) {
	c := NewController(Config{MaxDownloadWorkers: 2})
	ctx := context.Background()

	require.NoError(t, c.AcquireDownload(ctx))
	require.NoError(t, c.AcquireDownload(ctx))

	ctxShort, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.Error(t, c.AcquireDownload(ctxShort))

	c.ReleaseDownload()
	require.NoError(t, c.AcquireDownload(ctx))

	c.ReleaseDownload()
	c.ReleaseDownload()
}

func TestController_IOBudgetSplitsLargeTransfers(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	// Larger than the burst; must not error.
	require.NoError(t, c.AcquireIO(ctx, 1<<20+1))
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireMemory(ctx, 1<<40))
	c.ReleaseMemory(1 << 40)
	require.NoError(t, c.AcquireDownload(ctx))
	c.ReleaseDownload()
	require.NoError(t, c.AcquireIO(ctx, 1<<30))
	require.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_ConcurrentAcquire(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 64})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, c.AcquireMemory(ctx, 8))
			c.ReleaseMemory(8)
		}()
	}
	wg.Wait()

	require.Equal(t, int64(0), c.MemoryUsage())
}
