package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/embedding"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/extract"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/vector"
)

// Artifact filenames written under {indexRoot}/{lang}/.
const (
	IndexFile      = "index.bin"
	EmbeddingsFile = "embeddings.bin"
	ManifestFile   = "manifest.json"
)

// ErrEmptyCorpus is returned when a language directory yields no chunks.
var ErrEmptyCorpus = errors.New("no chunks produced from documents directory")

// Options configures an Ingester.
type Options struct {
	DocumentsRoot string
	IndexRoot     string
	Extensions    []string
	ChunkSize     int
	ChunkOverlap  int
}

// Ingester builds a vector index, an embeddings matrix, and a manifest from
// the documents of one language.
type Ingester struct {
	opts      Options
	extractor *extract.Extractor
	embedder  embedding.Embedder
	logger    *zap.Logger
}

// New creates an Ingester.
func New(opts Options, embedder embedding.Embedder, logger *zap.Logger) *Ingester {
	return &Ingester{
		opts:      opts,
		extractor: extract.NewExtractor(),
		embedder:  embedder,
		logger:    logger,
	}
}

// BuildIndex ingests {DocumentsRoot}/{lang} and writes index.bin,
// embeddings.bin, and manifest.json under {IndexRoot}/{lang}. Files are
// processed in sorted order so repeated builds over an unchanged corpus
// produce an identical manifest.
func (ing *Ingester) BuildIndex(ctx context.Context, lang string) (*models.IndexManifest, error) {
	docsDir := filepath.Join(ing.opts.DocumentsRoot, lang)
	files, err := ing.listDocuments(docsDir)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for _, path := range files {
		text, err := ing.extractor.ExtractFile(path)
		if err != nil {
			ing.logger.Warn("skipping unreadable document",
				zap.String("path", path), zap.Error(err))
			continue
		}
		source := filepath.Base(path)
		for i, w := range ChunkText(text, ing.opts.ChunkSize, ing.opts.ChunkOverlap) {
			chunks = append(chunks, models.Chunk{
				ID:     fmt.Sprintf("%s::chunk::%d", source, i),
				Source: source,
				Start:  w.Start,
				End:    w.End,
				Text:   w.Text,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, docsDir)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	for _, emb := range embeddings {
		vector.Normalize(emb)
	}

	index, err := vector.NewFlatIndex(ing.embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := index.Add(ctx, ids, embeddings); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	outDir := filepath.Join(ing.opts.IndexRoot, lang)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	if err := index.Save(filepath.Join(outDir, IndexFile)); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	if err := vector.SaveMatrix(filepath.Join(outDir, EmbeddingsFile), embeddings); err != nil {
		return nil, fmt.Errorf("save embeddings: %w", err)
	}

	manifest := &models.IndexManifest{
		Lang:           lang,
		ModelName:      ing.embedder.ModelName(),
		ChunkSize:      ing.opts.ChunkSize,
		Overlap:        ing.opts.ChunkOverlap,
		Count:          len(chunks),
		EmbeddingsPath: EmbeddingsFile,
		Chunks:         chunks,
	}
	if err := writeManifest(filepath.Join(outDir, ManifestFile), manifest); err != nil {
		return nil, err
	}

	ing.logger.Info("index built",
		zap.String("lang", lang),
		zap.Int("documents", len(files)),
		zap.Int("chunks", len(chunks)))
	return manifest, nil
}

// listDocuments returns the ingestible files directly under dir, sorted by name.
func (ing *Ingester) listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	allowed := make(map[string]bool, len(ing.opts.Extensions))
	for _, ext := range ing.opts.Extensions {
		allowed[strings.ToLower(ext)] = true
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func writeManifest(path string, manifest *models.IndexManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest for lang from {indexRoot}/{lang}/manifest.json.
func ReadManifest(indexRoot, lang string) (*models.IndexManifest, error) {
	data, err := os.ReadFile(filepath.Join(indexRoot, lang, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest models.IndexManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}
