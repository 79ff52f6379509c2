package vecbuild

import (
	"runtime"

	"github.com/hupe1980/vecbuild/compute"
	"github.com/hupe1980/vecbuild/embeddings"
	"github.com/hupe1980/vecbuild/resource"
)

// IDHandler receives each batch's identifier rows together with the batch
// id, for side-channel bookkeeping (e.g. writing an id→batch mapping).
// It runs on the worker before the batch's vectors are added.
type IDHandler func(ids []embeddings.IDRecord, batchID int) error

type options struct {
	logger          *Logger
	session         compute.Session
	readOpts        embeddings.Options
	idHandler       IDHandler
	numCores        int
	downloadWidth   int
	shardCountCheck bool
	controller      *resource.Controller
}

func defaultOptions() options {
	return options{
		logger:          NewLogger(nil),
		downloadWidth:   min(8, runtime.GOMAXPROCS(0)),
		shardCountCheck: true,
	}
}

// Option configures Run behavior.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, the default text logger
// is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NewLogger(nil)
		}
		o.logger = l
	}
}

// WithSession pins the compute session instead of resolving the
// process-wide active one (or creating a local default).
func WithSession(s compute.Session) Option {
	return func(o *options) {
		o.session = s
	}
}

// WithEmbeddingColumn names the vector column for tabular embedding
// files. Default: "embedding".
func WithEmbeddingColumn(column string) Option {
	return func(o *options) {
		o.readOpts.EmbeddingColumn = column
	}
}

// WithIDColumns names the identifier columns of tabular embedding files.
// The columns are handed to the IDHandler per batch and are not stored in
// the index.
func WithIDColumns(columns ...string) Option {
	return func(o *options) {
		o.readOpts.IDColumns = columns
	}
}

// WithIDHandler installs the per-batch identifier callback. It only fires
// when identifier columns are configured and present.
func WithIDHandler(h IDHandler) Option {
	return func(o *options) {
		o.idHandler = h
	}
}

// WithNumCores caps the index engine's intra-process parallelism on each
// worker. Default: all available cores.
func WithNumCores(n int) Option {
	return func(o *options) {
		o.numCores = n
	}
}

// WithDownloadConcurrency bounds the parallel shard downloads before the
// merge. Default: min(8, available cores).
func WithDownloadConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.downloadWidth = n
		}
	}
}

// WithShardCountCheck toggles the pre-merge verification that shard
// storage holds exactly one shard per planned batch. On by default; a
// mismatch means part of the fan-out silently failed. Disabling it merges
// whatever is present.
func WithShardCountCheck(enabled bool) Option {
	return func(o *options) {
		o.shardCountCheck = enabled
	}
}

// WithResourceController installs resource budgets (matrix memory,
// download slots, download throughput) for this run.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}
