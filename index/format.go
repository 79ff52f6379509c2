package index

import (
	"encoding/binary"
	"errors"
)

const (
	// Magic identifies vecbuild index files (ASCII: "VBI0").
	Magic = 0x56424930
	// Version is the current file format version.
	Version = 0x00010000

	// Index types
	TypeFlat = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidHeader  = errors.New("invalid header field")
	ErrChecksum       = errors.New("checksum mismatch")
)

// FileHeader is the fixed-size header at the start of every index file.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	IndexType   uint8
	Padding     [3]byte
	VectorCount uint64
	Dimension   uint32
}

// headerSize is the encoded size of FileHeader.
const headerSize = 4 + 4 + 1 + 3 + 8 + 4

// MarshalBinary encodes the header in little-endian layout.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = h.IndexType
	binary.LittleEndian.PutUint64(buf[12:20], h.VectorCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.Dimension)
	return buf, nil
}

// UnmarshalBinary decodes and validates the header.
func (h *FileHeader) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return ErrInvalidMagic
	}
	h.Magic = binary.LittleEndian.Uint32(data[0:4])
	if h.Magic != Magic {
		return ErrInvalidMagic
	}
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	if h.Version != Version {
		return ErrInvalidVersion
	}
	h.IndexType = data[8]
	h.VectorCount = binary.LittleEndian.Uint64(data[12:20])
	h.Dimension = binary.LittleEndian.Uint32(data[20:24])
	return nil
}

// HeaderSize returns the encoded header size in bytes.
func HeaderSize() int { return headerSize }
