package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/embedding"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/vector"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestIngester(t *testing.T, docsRoot, indexRoot string) *Ingester {
	t.Helper()
	return New(Options{
		DocumentsRoot: docsRoot,
		IndexRoot:     indexRoot,
		Extensions:    []string{".md", ".txt"},
		ChunkSize:     40,
		ChunkOverlap:  10,
	}, embedding.NewHashEmbedder(32), zap.NewNop())
}

func TestBuildIndexWritesArtifacts(t *testing.T) {
	docsRoot := t.TempDir()
	indexRoot := t.TempDir()
	langDir := filepath.Join(docsRoot, "en")
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, langDir, "about.md", "Asad is a backend engineer with ten years of Go experience.")
	writeDoc(t, langDir, "skills.txt", "Databases, distributed systems, and observability tooling.")
	writeDoc(t, langDir, "ignored.pdf.bak", "should not be ingested")

	ing := newTestIngester(t, docsRoot, indexRoot)
	manifest, err := ing.BuildIndex(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if manifest.Lang != "en" {
		t.Errorf("lang = %q", manifest.Lang)
	}
	if manifest.ModelName != "hash" {
		t.Errorf("model = %q", manifest.ModelName)
	}
	if manifest.Count != len(manifest.Chunks) || manifest.Count == 0 {
		t.Errorf("count = %d, chunks = %d", manifest.Count, len(manifest.Chunks))
	}
	for _, c := range manifest.Chunks {
		if c.Source != "about.md" && c.Source != "skills.txt" {
			t.Errorf("unexpected source %q", c.Source)
		}
	}

	outDir := filepath.Join(indexRoot, "en")
	index, err := vector.LoadFlatIndex(filepath.Join(outDir, IndexFile))
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	if index.Size() != manifest.Count {
		t.Errorf("index size = %d, manifest count = %d", index.Size(), manifest.Count)
	}
	matrix, err := vector.LoadMatrix(filepath.Join(outDir, EmbeddingsFile))
	if err != nil {
		t.Fatalf("load matrix: %v", err)
	}
	if len(matrix) != manifest.Count {
		t.Errorf("matrix rows = %d, want %d", len(matrix), manifest.Count)
	}

	loaded, err := ReadManifest(indexRoot, "en")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if loaded.Count != manifest.Count {
		t.Errorf("round-tripped count = %d, want %d", loaded.Count, manifest.Count)
	}
}

func TestBuildIndexDeterministic(t *testing.T) {
	docsRoot := t.TempDir()
	langDir := filepath.Join(docsRoot, "en")
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, langDir, "b.md", "Second document in sort order, deliberately named b.")
	writeDoc(t, langDir, "a.md", "First document in sort order, deliberately named a.")

	indexRoot1 := t.TempDir()
	indexRoot2 := t.TempDir()
	if _, err := newTestIngester(t, docsRoot, indexRoot1).BuildIndex(context.Background(), "en"); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := newTestIngester(t, docsRoot, indexRoot2).BuildIndex(context.Background(), "en"); err != nil {
		t.Fatalf("second build: %v", err)
	}

	m1, err := os.ReadFile(filepath.Join(indexRoot1, "en", ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	m2, err := os.ReadFile(filepath.Join(indexRoot2, "en", ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m1, m2) {
		t.Error("manifests differ between identical builds")
	}
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	docsRoot := t.TempDir()
	langDir := filepath.Join(docsRoot, "de")
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, langDir, "blank.txt", "   \n\n  ")

	ing := newTestIngester(t, docsRoot, t.TempDir())
	_, err := ing.BuildIndex(context.Background(), "de")
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("err = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildIndexMissingDirectory(t *testing.T) {
	ing := newTestIngester(t, t.TempDir(), t.TempDir())
	if _, err := ing.BuildIndex(context.Background(), "en"); err == nil {
		t.Fatal("expected error for missing language directory")
	}
}

func TestBuildIndexChunkIDsPerSource(t *testing.T) {
	docsRoot := t.TempDir()
	langDir := filepath.Join(docsRoot, "en")
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, langDir, "one.md", "alpha beta gamma delta epsilon zeta eta theta iota kappa")
	writeDoc(t, langDir, "two.md", "lambda mu nu xi omicron pi rho sigma tau upsilon phi chi")

	manifest, err := newTestIngester(t, docsRoot, t.TempDir()).BuildIndex(context.Background(), "en")
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	firstID := map[string]string{}
	for _, c := range manifest.Chunks {
		if _, ok := firstID[c.Source]; !ok {
			firstID[c.Source] = c.ID
		}
	}
	if firstID["one.md"] != "one.md::chunk::0" {
		t.Errorf("first chunk id for one.md = %q", firstID["one.md"])
	}
	if firstID["two.md"] != "two.md::chunk::0" {
		t.Errorf("first chunk id for two.md = %q", firstID["two.md"])
	}
}
