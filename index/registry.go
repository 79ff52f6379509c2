package index

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Loader materializes an index from its serialized form. The reader is
// positioned at the start of the file, header included.
type Loader func(r io.Reader) (Index, error)

var (
	loadersMu sync.RWMutex
	loaders   = make(map[uint8]Loader)
)

// ErrUnknownIndexType is returned when no loader is registered for a file's
// index type.
type ErrUnknownIndexType struct {
	Type uint8
}

func (e *ErrUnknownIndexType) Error() string {
	return fmt.Sprintf("unknown index type: %d", e.Type)
}

// RegisterLoader registers a loader for an index type. Engine packages call
// this from init; registering the same type twice panics.
func RegisterLoader(indexType uint8, l Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()

	if _, ok := loaders[indexType]; ok {
		panic(fmt.Sprintf("index: loader already registered for type %d", indexType))
	}
	loaders[indexType] = l
}

// LoadFromFile reads the file header, selects the registered loader for the
// embedded index type and materializes the index.
func LoadFromFile(filename string) (Index, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}

	var h FileHeader
	if err := h.UnmarshalBinary(headerBuf); err != nil {
		return nil, err
	}

	loadersMu.RLock()
	loader, ok := loaders[h.IndexType]
	loadersMu.RUnlock()
	if !ok {
		return nil, &ErrUnknownIndexType{Type: h.IndexType}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return loader(bufio.NewReaderSize(f, 256*1024))
}
