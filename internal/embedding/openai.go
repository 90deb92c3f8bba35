package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// maxBatchSize is the OpenAI embeddings API input limit.
const maxBatchSize = 100

// ErrAPIKeyNotSet is returned when constructing an OpenAI embedder without a key.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set: please set OPENAI_API_KEY")

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API, with an LRU
// cache in front so repeated queries do not re-hit the API.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	cache      *Cache
}

// NewOpenAIEmbedder creates an embedder for the given model and dimension.
func NewOpenAIEmbedder(apiKey, model string, dimensions, cacheSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		dimensions: dimensions,
		cache:      NewCache(cacheSize),
	}, nil
}

// Embed returns the embedding for a single text, using the cache when possible.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	embeddings, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, embeddings[0])
	return embeddings[0], nil
}

// EmbedBatch embeds texts in API-sized batches. Used at index-build time; batch
// results are not cached (chunk texts do not repeat).
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		embeddings, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, embeddings...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}
	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{OfString: openai.String(texts[0])}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts}
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// ModelName returns the OpenAI embedding model name.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
