//go:build !onnx
// +build !onnx

package embedding

import (
	"context"
	"errors"
)

// ONNXEmbedder is unavailable without the onnx build tag.
type ONNXEmbedder struct{}

// NewONNXEmbedder returns an error in builds without the onnx tag.
func NewONNXEmbedder(modelPath, model string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	return nil, errors.New("ONNX embedder requires building with -tags=onnx")
}

func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("ONNX embedder not available")
}

func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("ONNX embedder not available")
}

func (e *ONNXEmbedder) ModelName() string { return "" }

func (e *ONNXEmbedder) Dimensions() int { return 0 }

func (e *ONNXEmbedder) Close() error { return nil }
