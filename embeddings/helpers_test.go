package embeddings

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// testMatrix builds deterministic row content: row i, column j holds
// seed + i*dim + j.
func testMatrix(rows, dim int, seed float32) [][]float32 {
	out := make([][]float32, rows)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = seed + float32(i*dim+j)
		}
		out[i] = v
	}
	return out
}

func encodeNpy(t *testing.T, matrix [][]float32, half bool) []byte {
	t.Helper()

	dtype := "<f4"
	if half {
		dtype = "<f2"
	}
	dim := 0
	if len(matrix) > 0 {
		dim = len(matrix[0])
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }", dtype, len(matrix), dim)
	// Pad so the data section starts 64-byte aligned, ending in newline.
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)

	for _, row := range matrix {
		for _, v := range row {
			if half {
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, float16.Fromfloat32(v).Bits()))
			} else {
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)))
			}
		}
	}
	return buf.Bytes()
}

func encodeJSONL(t *testing.T, matrix [][]float32, column string, idCols map[string][]any) []byte {
	t.Helper()

	var buf bytes.Buffer
	for i, row := range matrix {
		record := map[string]any{column: row}
		for col, values := range idCols {
			record[col] = values[i]
		}
		line, err := json.Marshal(record)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func compress(t *testing.T, data []byte, ext string) []byte {
	t.Helper()

	var buf bytes.Buffer
	switch ext {
	case ".zst":
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".lz4":
		w := lz4.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".gz":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		t.Fatalf("unknown compression ext %s", ext)
	}
	return buf.Bytes()
}
