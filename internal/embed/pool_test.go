package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorMagnitude(v []float32) float64 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	return math.Sqrt(sumSquares)
}

func TestPool_Embed_ReturnsModelDimensions(t *testing.T) {
	p := NewPool()
	v, err := p.Embed(context.Background(), "static-768", "func main() {}")
	require.NoError(t, err)
	assert.Len(t, v, 768)
}

func TestPool_Embed_VectorIsNormalized(t *testing.T) {
	p := NewPool()
	v, err := p.Embed(context.Background(), DefaultModel, "func main() {}")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorMagnitude(v), 0.001)
}

func TestPool_Embed_IsDeterministic(t *testing.T) {
	p := NewPool()
	text := "func add(a, b int) int { return a + b }"

	v1, err1 := p.Embed(context.Background(), DefaultModel, text)
	v2, err2 := p.Embed(context.Background(), DefaultModel, text)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, v1, v2)
}

func TestPool_Embed_DifferentModelsDiffer(t *testing.T) {
	p := NewPool()
	text := "func getUserByID(id string) (*User, error)"

	v1, err := p.Embed(context.Background(), "static-256", text)
	require.NoError(t, err)
	v2, err := p.Embed(context.Background(), "minilm-l6v2", text)
	require.NoError(t, err)

	assert.NotEqual(t, len(v1), len(v2))
}

func TestPool_Embed_UnknownModelErrors(t *testing.T) {
	p := NewPool()
	_, err := p.Embed(context.Background(), "nonexistent-model", "text")
	require.Error(t, err)
}

func TestPool_Embed_EmptyTextReturnsZeroVector(t *testing.T) {
	p := NewPool()
	v, err := p.Embed(context.Background(), DefaultModel, "   ")
	require.NoError(t, err)
	for _, val := range v {
		assert.Zero(t, val)
	}
}

func TestPool_EmbedBatch_MatchesIndividualEmbed(t *testing.T) {
	p := NewPool()
	texts := []string{"alpha", "beta", "gamma"}

	batch, err := p.EmbedBatch(context.Background(), DefaultModel, texts, 2)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := p.Embed(context.Background(), DefaultModel, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestPool_Dimensions_ReportsModelWidth(t *testing.T) {
	p := NewPool()
	dims, err := p.Dimensions("static-384")
	require.NoError(t, err)
	assert.Equal(t, 384, dims)
}

func TestPool_Warm_PopulatesDefaultModel(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Warm(context.Background()))
	assert.Contains(t, p.encoders, DefaultModel)
}
