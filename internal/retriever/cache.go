// Package retriever loads per-language indices on demand and answers
// similarity queries over them, optionally re-ranked with maximal marginal
// relevance.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/embedding"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/ingest"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/vector"
)

// Loaded is one language's retrieval state: the searchable index, the chunk
// metadata, the raw embedding matrix when available, and the embedder that
// produced it. Immutable after load.
type Loaded struct {
	Lang     string
	Index    *vector.FlatIndex
	Matrix   [][]float32 // nil when embeddings.bin is absent
	Manifest *models.IndexManifest
	Embedder embedding.Embedder

	chunkByID map[string]*models.Chunk
}

// Chunk returns the chunk with the given id, or nil.
func (l *Loaded) Chunk(id string) *models.Chunk {
	return l.chunkByID[id]
}

// Cache lazily loads and retains per-language retrieval state. Concurrent
// requests for the same language share one load; embedders are shared across
// languages that use the same model.
type Cache struct {
	indexRoot string
	embedOpts embedding.Options
	logger    *zap.Logger

	mu        sync.Mutex
	entries   map[string]*cacheEntry
	embedders map[string]embedding.Embedder
}

type cacheEntry struct {
	once   sync.Once
	loaded *Loaded
	err    error
}

// NewCache creates a cache rooted at indexRoot. embedOpts supplies the
// provider and credentials; model name and dimensions come from each index.
func NewCache(indexRoot string, embedOpts embedding.Options, logger *zap.Logger) *Cache {
	return &Cache{
		indexRoot: indexRoot,
		embedOpts: embedOpts,
		logger:    logger,
		entries:   make(map[string]*cacheEntry),
		embedders: make(map[string]embedding.Embedder),
	}
}

// Get returns the retrieval state for lang, loading it on first use. All
// callers racing on a cold language block on a single load; a failed load is
// cached until Evict so a broken index does not get hammered.
func (c *Cache) Get(ctx context.Context, lang string) (*Loaded, error) {
	c.mu.Lock()
	entry, ok := c.entries[lang]
	if !ok {
		entry = &cacheEntry{}
		c.entries[lang] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.loaded, entry.err = c.load(ctx, lang)
	})
	return entry.loaded, entry.err
}

// Warmup loads every given language, returning the first error.
func (c *Cache) Warmup(ctx context.Context, langs []string) error {
	for _, lang := range langs {
		if _, err := c.Get(ctx, lang); err != nil {
			return fmt.Errorf("warmup %s: %w", lang, err)
		}
	}
	return nil
}

// Evict drops the cached state for lang so the next Get reloads from disk.
// Used after re-ingestion. Shared embedders stay.
func (c *Cache) Evict(lang string) {
	c.mu.Lock()
	delete(c.entries, lang)
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context, lang string) (*Loaded, error) {
	dir := filepath.Join(c.indexRoot, lang)

	manifest, err := ingest.ReadManifest(c.indexRoot, lang)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", lang, err)
	}
	index, err := vector.LoadFlatIndex(filepath.Join(dir, ingest.IndexFile))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", lang, err)
	}
	if index.Size() != manifest.Count {
		return nil, fmt.Errorf("load %s: index has %d vectors but manifest says %d; re-run ingestion",
			lang, index.Size(), manifest.Count)
	}

	var matrix [][]float32
	matrixPath := filepath.Join(dir, manifest.EmbeddingsPath)
	if manifest.EmbeddingsPath != "" {
		matrix, err = vector.LoadMatrix(matrixPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", lang, err)
			}
			c.logger.Warn("embeddings matrix missing, MMR will re-embed candidates",
				zap.String("lang", lang), zap.String("path", matrixPath))
			matrix = nil
		} else if len(matrix) != manifest.Count {
			return nil, fmt.Errorf("load %s: embeddings matrix has %d rows but manifest says %d",
				lang, len(matrix), manifest.Count)
		}
	}

	embedder, err := c.embedderFor(manifest.ModelName, index.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", lang, err)
	}

	chunkByID := make(map[string]*models.Chunk, len(manifest.Chunks))
	for i := range manifest.Chunks {
		chunkByID[manifest.Chunks[i].ID] = &manifest.Chunks[i]
	}

	c.logger.Info("index loaded",
		zap.String("lang", lang),
		zap.Int("chunks", manifest.Count),
		zap.String("model", manifest.ModelName),
		zap.Bool("matrix", matrix != nil))

	return &Loaded{
		Lang:      lang,
		Index:     index,
		Matrix:    matrix,
		Manifest:  manifest,
		Embedder:  embedder,
		chunkByID: chunkByID,
	}, nil
}

// embedderFor returns a shared embedder for the given model, creating it on
// first use.
func (c *Cache) embedderFor(model string, dimensions int) (embedding.Embedder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.embedders[model]; ok {
		return e, nil
	}
	opts := c.embedOpts
	opts.Model = model
	opts.Dimensions = dimensions
	e, err := embedding.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedder for %s: %w", model, err)
	}
	c.embedders[model] = e
	return e, nil
}

// Close releases every shared embedder.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for model, e := range c.embedders {
		if err := e.Close(); err != nil && first == nil {
			first = fmt.Errorf("close embedder %s: %w", model, err)
		}
	}
	c.embedders = make(map[string]embedding.Embedder)
	return first
}
