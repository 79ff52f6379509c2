package flat

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vecbuild/index"
)

func init() {
	index.RegisterLoader(index.TypeFlat, func(r io.Reader) (index.Index, error) {
		f := &Flat{}
		if err := f.ReadFrom(r); err != nil {
			return nil, err
		}
		return f, nil
	})
}

// File layout: FileHeader | ids (count * uint32) | vectors
// (count * dim * float32) | CRC32-IEEE of everything before it.

// WriteTo serializes the index.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	crc := crc32.NewIEEE()
	cw := &countingWriter{w: io.MultiWriter(w, crc)}

	h := index.FileHeader{
		Magic:       index.Magic,
		Version:     index.Version,
		IndexType:   index.TypeFlat,
		VectorCount: uint64(len(f.ids)),
		Dimension:   uint32(f.dim),
	}
	headerBuf, err := h.MarshalBinary()
	if err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(headerBuf); err != nil {
		return cw.n, err
	}

	if err := binary.Write(cw, binary.LittleEndian, f.ids); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, f.vectors); err != nil {
		return cw.n, err
	}

	// Checksum trails the payload and is not part of its own input.
	if err := binary.Write(w, binary.LittleEndian, crc.Sum32()); err != nil {
		return cw.n, err
	}
	return cw.n + 4, nil
}

// ReadFrom deserializes the index, replacing the receiver's state.
func (f *Flat) ReadFrom(r io.Reader) error {
	crc := crc32.NewIEEE()
	tr := io.TeeReader(r, crc)

	headerBuf := make([]byte, index.HeaderSize())
	if _, err := io.ReadFull(tr, headerBuf); err != nil {
		return fmt.Errorf("read flat header: %w", err)
	}
	var h index.FileHeader
	if err := h.UnmarshalBinary(headerBuf); err != nil {
		return err
	}
	if h.IndexType != index.TypeFlat {
		return &index.ErrUnknownIndexType{Type: h.IndexType}
	}

	// The header comes from shared storage ahead of the checksum, so its
	// counts cannot be trusted for sizing allocations.
	if h.VectorCount > math.MaxUint32 {
		return fmt.Errorf("%w: vector count %d", index.ErrInvalidHeader, h.VectorCount)
	}
	count := int(h.VectorCount)
	dim := int(h.Dimension)
	if count > 0 && dim == 0 {
		return fmt.Errorf("%w: zero dimension with %d vectors", index.ErrInvalidHeader, count)
	}
	if count > 0 && uint64(dim) > math.MaxInt64/4/uint64(count) {
		return fmt.Errorf("%w: payload size overflow (count=%d dim=%d)", index.ErrInvalidHeader, count, dim)
	}

	ids, err := readBlock[uint32](tr, count)
	if err != nil {
		return fmt.Errorf("read flat ids: %w", err)
	}
	vectors, err := readBlock[float32](tr, count*dim)
	if err != nil {
		return fmt.Errorf("read flat vectors: %w", err)
	}

	want := crc.Sum32()
	var got uint32
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return fmt.Errorf("read flat checksum: %w", err)
	}
	if got != want {
		return index.ErrChecksum
	}

	idSet := roaring.New()
	var nextID uint32
	for _, id := range ids {
		idSet.Add(id)
		if id >= nextID {
			nextID = id + 1
		}
	}

	f.dim = dim
	f.ids = ids
	f.vectors = vectors
	f.idSet = idSet
	f.nextID = nextID
	return nil
}

// SaveToFile persists the index to a local file atomically.
func (f *Flat) SaveToFile(filename string) error {
	return index.SaveFile(filename, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// LoadFromFile loads a flat index from a local file.
func LoadFromFile(filename string) (*Flat, error) {
	idx, err := index.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	f, ok := idx.(*Flat)
	if !ok {
		return nil, &index.ErrIncompatibleIndex{Reason: "file does not hold a flat index"}
	}
	return f, nil
}

// readChunkElems bounds one read allocation to 4 MiB, so a truncated file
// with an inflated header count fails on the short read instead of sizing
// a slice by the header.
const readChunkElems = 1 << 20

func readBlock[E uint32 | float32](r io.Reader, n int) ([]E, error) {
	var out []E
	for len(out) < n {
		c := min(n-len(out), readChunkElems)
		out = append(out, make([]E, c)...)
		if err := binary.Read(r, binary.LittleEndian, out[len(out)-c:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
