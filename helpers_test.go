package vecbuild

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/hupe1980/vecbuild/index/flat"
	"github.com/stretchr/testify/require"
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

// encodeNpy writes a v1 float32 C-order .npy file, data section 64-byte
// aligned.
func encodeNpy(t *testing.T, matrix [][]float32) []byte {
	t.Helper()

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", len(matrix), len(matrix[0]))
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
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)))
		}
	}
	return buf.Bytes()
}

// encodeJSONLRows writes one JSON object per row, the vector under column
// plus any identifier columns.
func encodeJSONLRows(t *testing.T, matrix [][]float32, column string, idCols map[string][]any) []byte {
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

// encodeFlatShard serializes a populated flat index to bytes.
func encodeFlatShard(t *testing.T, dim int, vectors [][]float32) []byte {
	t.Helper()

	idx := flat.New(dim)
	if len(vectors) > 0 {
		_, err := idx.Add(vectors)
		require.NoError(t, err)
	}

	data, err := indexToBytes(idx)
	require.NoError(t, err)
	return data
}
