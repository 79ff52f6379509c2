// Package local provides an in-process compute.Session. It is the default
// when no cluster session is registered and the reference implementation
// for tests: tasks run on a bounded pool of goroutines inside the calling
// process.
package local

import (
	"context"
	"runtime"

	"github.com/hupe1980/vecbuild/compute"
	"golang.org/x/sync/errgroup"
)

// Config holds the local session settings.
type Config struct {
	// Parallelism is the maximum number of concurrently running tasks.
	// If 0, defaults to the number of available cores.
	Parallelism int
}

// DefaultConfig returns the configuration used when the pipeline creates
// a session on its own: one task slot per core.
func DefaultConfig() Config {
	return Config{Parallelism: runtime.GOMAXPROCS(0)}
}

// Session is an in-process compute.Session.
type Session struct {
	cfg Config
}

var _ compute.Session = (*Session)(nil)

// New creates a local session.
func New(cfg Config) *Session {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Session{cfg: cfg}
}

// Broadcast publishes a value to every task. The value is copied once so
// later mutation by the caller cannot leak into workers.
func (s *Session) Broadcast(_ context.Context, value []byte) (compute.Broadcast, error) {
	copied := make([]byte, len(value))
	copy(copied, value)
	return broadcast(copied), nil
}

// Foreach runs fn once per batch on a bounded goroutine pool and blocks
// until all tasks finished. The first error cancels the remaining tasks.
func (s *Session) Foreach(ctx context.Context, batches []compute.Batch, fn compute.TaskFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	for _, batch := range batches {
		g.Go(func() error {
			return fn(ctx, batch)
		})
	}
	return g.Wait()
}

// Close is a no-op for local sessions.
func (s *Session) Close() error { return nil }

type broadcast []byte

// Value returns the broadcast bytes. Tasks share the same backing slice
// and must treat it as read-only.
func (b broadcast) Value(context.Context) ([]byte, error) {
	return []byte(b), nil
}
