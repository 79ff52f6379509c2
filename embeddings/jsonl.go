package embeddings

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/vecbuild/blobstore"
)

func init() {
	Register(".jsonl", func(store blobstore.Store, name string, opts Options) (Reader, error) {
		return &jsonlReader{store: store, name: name, opts: opts}, nil
	})
}

// jsonlReader reads tabular embedding files with one JSON object per line.
// The embedding column holds the vector; identifier columns, when
// requested, are collected into IDRecords.
type jsonlReader struct {
	store blobstore.Store
	name  string
	opts  Options
	rows  int64 // cached row count, valid once known is set
	known bool
}

// RowCount counts lines without decoding them.
func (r *jsonlReader) RowCount(ctx context.Context) (int64, error) {
	if r.known {
		return r.rows, nil
	}

	rc, err := openStream(ctx, r.store, r.name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	var count int64
	br := bufio.NewReaderSize(rc, 256*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			count++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	r.rows = count
	r.known = true
	return count, nil
}

// ReadRows returns rows [start, end), skipping the prefix without
// decoding it.
func (r *jsonlReader) ReadRows(ctx context.Context, start, end int64) (*Rows, error) {
	rc, err := openStream(ctx, r.store, r.name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	column := r.opts.embeddingColumn()
	wantIDs := len(r.opts.IDColumns) > 0

	out := &Rows{}
	br := bufio.NewReaderSize(rc, 256*1024)
	var row int64
	for row < end {
		line, err := br.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			if row >= start {
				vector, ids, decodeErr := r.decodeLine(trimmed, column, wantIDs, row)
				if decodeErr != nil {
					return nil, decodeErr
				}
				out.Vectors = append(out.Vectors, vector)
				if wantIDs {
					out.IDs = append(out.IDs, ids)
				}
			}
			row++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if row < end {
		return nil, fmt.Errorf("jsonl %s: row range [%d, %d) out of bounds (rows=%d)", r.name, start, end, row)
	}
	return out, nil
}

// Close drops the cached row count.
func (r *jsonlReader) Close() error {
	r.known = false
	return nil
}

func (r *jsonlReader) decodeLine(line []byte, column string, wantIDs bool, row int64) ([]float32, IDRecord, error) {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, nil, fmt.Errorf("jsonl %s row %d: %w", r.name, row, err)
	}

	raw, ok := record[column]
	if !ok {
		return nil, nil, fmt.Errorf("jsonl %s row %d: missing column %q", r.name, row, column)
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, nil, fmt.Errorf("jsonl %s row %d: column %q: %w", r.name, row, column, err)
	}

	var ids IDRecord
	if wantIDs {
		ids = make(IDRecord, len(r.opts.IDColumns))
		for _, col := range r.opts.IDColumns {
			rawID, ok := record[col]
			if !ok {
				continue
			}
			var v any
			if err := json.Unmarshal(rawID, &v); err != nil {
				return nil, nil, fmt.Errorf("jsonl %s row %d: column %q: %w", r.name, row, col, err)
			}
			ids[col] = v
		}
	}
	return vector, ids, nil
}
