package vecbuild

import (
	"os"

	"github.com/hupe1980/vecbuild/index"
)

// The engine's serialization API is file oriented, so moving an index
// through a byte slice round-trips a temp file. os.CreateTemp yields a
// unique name per call, so concurrent (de)serializations never collide,
// and the file is removed on every exit path.

// indexToBytes serializes an index to a byte slice.
func indexToBytes(idx index.Index) ([]byte, error) {
	f, err := os.CreateTemp("", "vecbuild-index-*")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	defer os.Remove(name)

	if err := f.Close(); err != nil {
		return nil, err
	}

	if err := idx.SaveToFile(name); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

// indexFromBytes materializes an index from its serialized form.
func indexFromBytes(data []byte) (index.Index, error) {
	f, err := os.CreateTemp("", "vecbuild-index-*")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return index.LoadFromFile(name)
}
