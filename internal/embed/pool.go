package embed

import (
	"context"
	"sync"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// Pool owns a process-local, model-keyed set of encoders. Encoders are
// created lazily on first use and cached for reuse; each encoder is
// protected by its own mutex since hash-based generation is not safe to
// call concurrently mid-call.
type Pool struct {
	mu       sync.Mutex
	encoders map[string]*pooledEncoder
}

type pooledEncoder struct {
	mu  sync.Mutex
	enc *hashEncoder
}

// NewPool creates an empty encoder pool.
func NewPool() *Pool {
	return &Pool{encoders: make(map[string]*pooledEncoder)}
}

func (p *Pool) get(model string) (*pooledEncoder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pe, ok := p.encoders[model]; ok {
		return pe, nil
	}
	enc, err := newHashEncoder(model)
	if err != nil {
		return nil, err
	}
	pe := &pooledEncoder{enc: enc}
	p.encoders[model] = pe
	return pe, nil
}

// Embed encodes a single string under the named model.
func (p *Pool) Embed(ctx context.Context, model, text string) ([]float32, error) {
	pe, err := p.get(model)
	if err != nil {
		return nil, err
	}
	pe.mu.Lock()
	defer pe.mu.Unlock()
	return pe.enc.Embed(ctx, text)
}

// EmbedBatch encodes texts under the named model, batchSize at a time. A
// batchSize <= 0 uses DefaultBatchSize; values are clamped to
// [MinBatchSize, MaxBatchSize].
func (p *Pool) EmbedBatch(ctx context.Context, model string, texts []string, batchSize int) ([][]float32, error) {
	pe, err := p.get(model)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < MinBatchSize {
		batchSize = MinBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	pe.mu.Lock()
	defer pe.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		select {
		case <-ctx.Done():
			return nil, codeerrors.Cancelled(ctx.Err())
		default:
		}
		batch, err := pe.enc.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Dimensions returns the vector width for model, creating its encoder if
// necessary.
func (p *Pool) Dimensions(model string) (int, error) {
	pe, err := p.get(model)
	if err != nil {
		return 0, err
	}
	return pe.enc.Dimensions(), nil
}

// Warm populates the default model's encoder so the first real call isn't
// the one paying for lazy initialization.
func (p *Pool) Warm(ctx context.Context) error {
	_, err := p.Embed(ctx, DefaultModel, "")
	return err
}
