package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles calls to an underlying Embedder.
// A batch call consumes one token.
type RateLimitedEmbedder struct {
	embedder Embedder
	limiter  *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder wraps embedder so that at most rps calls per
// second are made, with bursts of up to burst calls. A non-positive rps
// returns embedder unchanged.
func NewRateLimitedEmbedder(embedder Embedder, rps float64, burst int) Embedder {
	if rps <= 0 {
		return embedder
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// EmbedText waits for a token and delegates.
func (r *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.embedder.EmbedText(ctx, text)
}

// EmbedTexts waits for a token and delegates.
func (r *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.embedder.EmbedTexts(ctx, texts)
}
