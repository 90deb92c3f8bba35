package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Position != 0 {
		t.Errorf("top result should be a at position 0, got %s at %d", results[0].ID, results[0].Position)
	}
	if results[1].ID != "b" {
		t.Errorf("second result should be b, got %s", results[1].ID)
	}
}

func TestFlatIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	// Two identical vectors tie exactly; the earlier insertion must come first.
	_ = idx.Add(ctx, []string{"first", "second"}, [][]float32{{0, 1}, {0, 1}})
	results, err := idx.Search(ctx, []float32{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != "first" || results[1].ID != "second" {
		t.Errorf("tie order broken: %s, %s", results[0].ID, results[1].ID)
	}
}

func TestFlatIndex_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	idx, _ := NewFlatIndex(4)
	ctx := context.Background()
	ids := []string{"doc1.md::chunk::0", "doc1.md::chunk::1"}
	vecs := [][]float32{{1, 0, 0, 0}, {0, 0.5, 0.5, 0}}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 || loaded.Dimensions() != 4 {
		t.Fatalf("loaded size=%d dims=%d", loaded.Size(), loaded.Dimensions())
	}
	results, err := loaded.Search(ctx, []float32{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != ids[0] {
		t.Errorf("top result after reload: %s", results[0].ID)
	}
}

func TestMatrix_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.bin")

	matrix := [][]float32{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	if err := SaveMatrix(path, matrix); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadMatrix(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 || len(loaded[0]) != 2 {
		t.Fatalf("loaded shape %dx%d", len(loaded), len(loaded[0]))
	}
	for i := range matrix {
		for j := range matrix[i] {
			if loaded[i][j] != matrix[i][j] {
				t.Errorf("value [%d][%d]=%f, want %f", i, j, loaded[i][j], matrix[i][j])
			}
		}
	}
}

func TestLoadMatrix_Missing(t *testing.T) {
	_, err := LoadMatrix(filepath.Join(t.TempDir(), "absent.bin"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if n := L2Norm(v); n < 0.999 || n > 1.001 {
		t.Errorf("norm after Normalize = %f", n)
	}
	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should be unchanged")
	}
}
