package embeddings

import (
	"context"
	"io"
	"strings"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressionExt returns the outer compression extension of a name, or "".
func compressionExt(name string) string {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return ".zst"
	case strings.HasSuffix(name, ".lz4"):
		return ".lz4"
	case strings.HasSuffix(name, ".gz"):
		return ".gz"
	default:
		return ""
	}
}

// openStream opens a blob as a sequential stream, transparently decoding
// any outer compression layer. Closing the returned stream releases the
// decoder and the blob handle.
func openStream(ctx context.Context, store blobstore.Store, name string) (io.ReadCloser, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	raw, err := blob.ReadRange(ctx, 0, -1)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}

	s := &stream{closers: []io.Closer{raw, blob}}

	switch compressionExt(name) {
	case ".zst":
		dec, err := zstd.NewReader(raw)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		rc := dec.IOReadCloser()
		s.r = rc
		s.closers = append([]io.Closer{rc}, s.closers...)
	case ".lz4":
		s.r = lz4.NewReader(raw)
	case ".gz":
		gz, err := gzip.NewReader(raw)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.r = gz
		s.closers = append([]io.Closer{gz}, s.closers...)
	default:
		s.r = raw
	}

	return s, nil
}

type stream struct {
	r       io.Reader
	closers []io.Closer
}

func (s *stream) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close closes decoder before blob; the first error wins.
func (s *stream) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
