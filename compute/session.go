// Package compute defines the boundary to the distributed-compute
// framework that fans the per-batch build work out across a cluster.
//
// The pipeline needs exactly two primitives from the framework: a
// broadcast variable (one immutable value readable by every task) and a
// parallelize-and-foreach over batch triples. Task placement, retries and
// cluster lifecycle all stay behind the Session interface.
package compute

import (
	"context"
	"sync"
)

// Batch is one unit of distributed work: a contiguous global row range.
// Start is inclusive, End exclusive.
type Batch struct {
	ID    int
	Start int64
	End   int64
}

// Broadcast is a handle to a write-once value shared with every task.
// The underlying bytes are immutable for the lifetime of the job; tasks
// must not modify the slice returned by Value.
type Broadcast interface {
	// Value returns the broadcast bytes.
	Value(ctx context.Context) ([]byte, error)
}

// TaskFunc runs once per batch on a worker.
type TaskFunc func(ctx context.Context, batch Batch) error

// Session is an active connection to the compute framework.
type Session interface {
	// Broadcast publishes a value readable by every task of this session.
	Broadcast(ctx context.Context, value []byte) (Broadcast, error)

	// Foreach runs fn once per batch, fully parallel, and blocks until
	// every task finished. The first task error fails the job; whether
	// individual tasks are retried before that is up to the framework.
	Foreach(ctx context.Context, batches []Batch, fn TaskFunc) error

	// Close releases the session's resources.
	Close() error
}

var (
	activeMu sync.RWMutex
	active   Session
)

// Active returns the process-wide active session, or nil when none was
// registered.
func Active() Session {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active
}

// SetActive registers the process-wide active session. Passing nil clears
// it.
func SetActive(s Session) {
	activeMu.Lock()
	active = s
	activeMu.Unlock()
}
