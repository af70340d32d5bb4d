package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEmbedding_RoundTrips(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.125}
	blob := EncodeEmbedding(v)
	require.Len(t, blob, 16)

	decoded, err := DecodeEmbedding(blob)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestDecodeEmbedding_RejectsShortBlob(t *testing.T) {
	_, err := DecodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
}
