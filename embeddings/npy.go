package embeddings

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/vecbuild/blobstore"
	"github.com/x448/float16"
)

func init() {
	Register(".npy", func(store blobstore.Store, name string, opts Options) (Reader, error) {
		return &npyReader{store: store, name: name}, nil
	})
}

// ErrMalformedHeader is returned for npy files whose header cannot be
// parsed or describes an unsupported layout.
var ErrMalformedHeader = errors.New("malformed npy header")

var npyMagic = []byte("\x93NUMPY")

// npyHeader is the parsed metadata of a NumPy array file.
type npyHeader struct {
	rows       int64
	dim        int64
	halfFloats bool  // <f2 instead of <f4
	dataOffset int64 // first byte of array data
}

func (h *npyHeader) itemSize() int64 {
	if h.halfFloats {
		return 2
	}
	return 4
}

func (h *npyHeader) rowBytes() int64 { return h.dim * h.itemSize() }

// npyReader reads 2-D float arrays in NumPy .npy format (v1, v2 and v3
// headers; dtypes "<f4" and "<f2"; C order). The blob is opened per call.
type npyReader struct {
	store blobstore.Store
	name  string
	hdr   *npyHeader // cached after the first probe
}

// RowCount returns the row count from the header alone.
func (r *npyReader) RowCount(ctx context.Context) (int64, error) {
	hdr, err := r.header(ctx)
	if err != nil {
		return 0, err
	}
	return hdr.rows, nil
}

// ReadRows returns rows [start, end). Uncompressed files use a ranged
// read; compressed files stream and discard the prefix.
func (r *npyReader) ReadRows(ctx context.Context, start, end int64) (*Rows, error) {
	hdr, err := r.header(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 || end > hdr.rows || start > end {
		return nil, fmt.Errorf("npy %s: row range [%d, %d) out of bounds (rows=%d)", r.name, start, end, hdr.rows)
	}

	n := end - start
	raw := make([]byte, n*hdr.rowBytes())

	if compressionExt(r.name) == "" {
		if err := r.readRaw(ctx, hdr.dataOffset+start*hdr.rowBytes(), raw); err != nil {
			return nil, err
		}
	} else {
		if err := r.readStreamed(ctx, hdr.dataOffset+start*hdr.rowBytes(), raw); err != nil {
			return nil, err
		}
	}

	vectors := make([][]float32, n)
	for i := int64(0); i < n; i++ {
		row := make([]float32, hdr.dim)
		rowRaw := raw[i*hdr.rowBytes() : (i+1)*hdr.rowBytes()]
		if hdr.halfFloats {
			for j := range row {
				bits := binary.LittleEndian.Uint16(rowRaw[j*2:])
				row[j] = float16.Frombits(bits).Float32()
			}
		} else {
			for j := range row {
				bits := binary.LittleEndian.Uint32(rowRaw[j*4:])
				row[j] = math.Float32frombits(bits)
			}
		}
		vectors[i] = row
	}

	return &Rows{Vectors: vectors}, nil
}

// Close drops the cached header.
func (r *npyReader) Close() error {
	r.hdr = nil
	return nil
}

func (r *npyReader) readRaw(ctx context.Context, off int64, dst []byte) error {
	blob, err := r.store.Open(ctx, r.name)
	if err != nil {
		return err
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, off, int64(len(dst)))
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.ReadFull(rc, dst)
	return err
}

func (r *npyReader) readStreamed(ctx context.Context, off int64, dst []byte) error {
	rc, err := openStream(ctx, r.store, r.name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.CopyN(io.Discard, rc, off); err != nil {
		return err
	}
	_, err = io.ReadFull(rc, dst)
	return err
}

func (r *npyReader) header(ctx context.Context) (*npyHeader, error) {
	if r.hdr != nil {
		return r.hdr, nil
	}

	rc, err := openStream(ctx, r.store, r.name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	hdr, err := parseNpyHeader(rc)
	if err != nil {
		return nil, fmt.Errorf("npy %s: %w", r.name, err)
	}
	r.hdr = hdr
	return hdr, nil
}

// parseNpyHeader reads the npy preamble and header dict from the start of
// a stream.
func parseNpyHeader(r io.Reader) (*npyHeader, error) {
	preamble := make([]byte, 8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if string(preamble[:6]) != string(npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedHeader)
	}

	major := preamble[6]
	var headerLen int64
	var preludeLen int64
	switch {
	case major == 1:
		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		headerLen = int64(binary.LittleEndian.Uint16(lenBuf))
		preludeLen = 10
	case major == 2 || major == 3:
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		headerLen = int64(binary.LittleEndian.Uint32(lenBuf))
		preludeLen = 12
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHeader, major)
	}

	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	header := string(headerBuf)

	hdr := &npyHeader{dataOffset: preludeLen + headerLen}

	descr, err := headerValue(header, "descr")
	if err != nil {
		return nil, err
	}
	switch strings.Trim(descr, "'\"") {
	case "<f4":
		hdr.halfFloats = false
	case "<f2":
		hdr.halfFloats = true
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %s", ErrMalformedHeader, descr)
	}

	order, err := headerValue(header, "fortran_order")
	if err != nil {
		return nil, err
	}
	if order != "False" {
		return nil, fmt.Errorf("%w: fortran order not supported", ErrMalformedHeader)
	}

	shape, err := headerValue(header, "shape")
	if err != nil {
		return nil, err
	}
	shape = strings.Trim(shape, "()")
	parts := strings.Split(shape, ",")
	var dims []int64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad shape %q", ErrMalformedHeader, shape)
		}
		dims = append(dims, v)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: expected 2-D array, got shape %q", ErrMalformedHeader, shape)
	}
	hdr.rows, hdr.dim = dims[0], dims[1]

	return hdr, nil
}

// headerValue extracts the value of a key from the npy header dict.
func headerValue(header, key string) (string, error) {
	idx := strings.Index(header, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedHeader, key)
	}
	rest := header[idx+len(key)+2:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedHeader, key)
	}
	rest = rest[colon+1:]

	// Values end at the next top-level comma; tuples carry inner commas.
	depth := 0
	for i, c := range rest {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), nil
			}
		case '}':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), nil
			}
		}
	}
	return strings.TrimSpace(rest), nil
}
