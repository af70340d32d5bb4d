package embed

import (
	"context"
	"strings"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// hashEncoder is a single named model's encoder. It is not safe to call
// concurrently from multiple goroutines; the Pool serializes access.
type hashEncoder struct {
	model string
	dims  int
}

func newHashEncoder(model string) (*hashEncoder, error) {
	dims, ok := modelDimensions[model]
	if !ok {
		return nil, codeerrors.Embedding(model, nil).WithDetail("reason", "unknown model name")
	}
	return &hashEncoder{model: model, dims: dims}, nil
}

func (e *hashEncoder) ModelName() string { return e.model }
func (e *hashEncoder) Dimensions() int   { return e.dims }

func (e *hashEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, codeerrors.Cancelled(ctx.Err())
	default:
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

func (e *hashEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *hashEncoder) generateVector(text string) []float32 {
	vector := make([]float32, e.dims)

	tokens := filterStopWords(tokenize(text))
	for _, token := range tokens {
		vector[hashToIndex(e.model, token, e.dims)] += tokenWeight
	}

	for _, ngram := range extractNgrams(normalizeForNgrams(text), ngramSize) {
		vector[hashToIndex(e.model, ngram, e.dims)] += ngramWeight
	}

	return vector
}
