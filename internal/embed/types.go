// Package embed provides deterministic, hash-based text embeddings keyed by
// a model name. No network access or model download is required: each named
// model resolves to a dimension and a fixed hashing scheme, so the same text
// always embeds to the same unit-norm vector.
package embed

import (
	"context"
	"math"
)

// Batch size bounds for EmbedBatch callers.
const (
	MinBatchSize     = 1
	MaxBatchSize     = 256
	DefaultBatchSize = 32
)

// modelDimensions is the registry translating an opaque model name into its
// vector width. The model name is otherwise meaningless to the encoder: it
// only changes the output dimensionality and the hash salt, so different
// model names never collide in the same index.
var modelDimensions = map[string]int{
	"static-768":  768,
	"static-384":  384,
	"static-256":  256,
	"minilm-l6v2": 384,
}

// DefaultModel is used when a caller does not name a model explicitly.
const DefaultModel = "static-768"

// Encoder generates vector embeddings for text under a single named model.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// normalizeVector scales v to unit length. The zero vector is returned
// unchanged (empty input embeds to all-zero).
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
