// Package resource bounds what one build process may consume: memory held
// by stacked batch matrices, concurrent download slots, and download
// throughput.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxDownloadWorkers is the maximum number of concurrent shard
	// downloads. If 0, defaults to 1.
	MaxDownloadWorkers int64

	// IOLimitBytesPerSec is the maximum download throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages the build process's resource budgets. A nil
// *Controller is valid and enforces nothing.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	dlSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxDownloadWorkers <= 0 {
		cfg.MaxDownloadWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		dlSem: semaphore.NewWeighted(cfg.MaxDownloadWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory reserves memory for a batch matrix. If a hard limit is
// configured and usage would exceed it, this blocks until memory is
// available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireDownload reserves a download slot, blocking while all slots are
// busy.
func (c *Controller) AcquireDownload(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.dlSem.Acquire(ctx, 1)
}

// ReleaseDownload releases a download slot.
func (c *Controller) ReleaseDownload() {
	if c == nil {
		return
	}
	c.dlSem.Release(1)
}

// AcquireIO waits until the throughput budget allows the given number of
// bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN cannot exceed the limiter burst; split large transfers.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
