// Package embedding provides text embedding via OpenAI, local ONNX, or a
// deterministic offline embedder, plus an LRU embedding cache.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text. All implementations return
// L2-normalized vectors so inner product equals cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dimensions() int
	Close() error
}

// Options configures embedder construction via New.
type Options struct {
	Provider   string
	Model      string
	Dimensions int
	CacheSize  int
	APIKey     string
	ModelPath  string // onnx only
	MaxTokens  int    // onnx only
}

// New creates an embedder for the given provider: "openai", "onnx", or "hash".
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "openai", "":
		return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.Dimensions, opts.CacheSize)
	case "onnx":
		return NewONNXEmbedder(opts.ModelPath, opts.Model, opts.Dimensions, opts.MaxTokens, opts.CacheSize)
	case "hash":
		return NewHashEmbedder(opts.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, onnx, hash)", opts.Provider)
	}
}
