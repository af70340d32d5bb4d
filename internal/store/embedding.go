package store

import (
	"encoding/binary"
	"math"
	"strconv"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// EncodeEmbedding packs v as contiguous little-endian float32s, the layout
// stored in file_chunks.embedding.
func EncodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeEmbedding unpacks a little-endian float32 blob. It rejects blobs
// whose length is not a multiple of 4.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, codeerrors.Wrap(codeerrors.KindDatabase, "embedding blob length is not a multiple of 4", nil).
			WithDetail("length", strconv.Itoa(len(blob)))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}
