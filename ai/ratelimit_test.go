package ai

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls atomic.Int32
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return []float32{1, 0}, nil
}

func (c *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func TestNewRateLimitedEmbedder_Disabled(t *testing.T) {
	inner := &countingEmbedder{}
	got := NewRateLimitedEmbedder(inner, 0, 1)
	assert.Same(t, inner, got)
}

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := &countingEmbedder{}
	limited := NewRateLimitedEmbedder(inner, 1000, 10)

	ctx := context.Background()
	vec, err := limited.EmbedText(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	vecs, err := limited.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestRateLimitedEmbedder_CancelledContext(t *testing.T) {
	inner := &countingEmbedder{}
	limited := NewRateLimitedEmbedder(inner, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limited.EmbedText(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls.Load())
}
