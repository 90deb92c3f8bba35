// Package vector provides a flat inner-product index and similarity helpers.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatIndex is an exact brute-force inner-product index. Vectors are expected to
// be L2-normalized, so the inner product equals cosine similarity. It is built
// once per language at ingest time and read-only afterwards.
type FlatIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	mu         sync.RWMutex
}

// Result is a single search hit. Position is the insertion position of the
// vector, which doubles as the row into the manifest chunk table.
type Result struct {
	Position int
	ID       string
	Score    float64
}

// NewFlatIndex creates an empty index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		vectors:    make([][]float32, 0),
	}, nil
}

// Add appends vectors with the given IDs.
func (f *FlatIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range ids {
		if len(vectors[i]) != f.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), f.dimensions)
		}
		vec := make([]float32, f.dimensions)
		copy(vec, vectors[i])
		f.ids = append(f.ids, id)
		f.vectors = append(f.vectors, vec)
	}
	return nil
}

// Search returns the top-k vectors by inner product, descending. Ties keep
// insertion order (the sort is stable over positions).
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.ids) == 0 {
		return nil, nil
	}
	scores := make([]*Result, len(f.ids))
	for i, vec := range f.vectors {
		scores[i] = &Result{Position: i, ID: f.ids[i], Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Vector returns the stored vector at position, or nil when out of range.
func (f *FlatIndex) Vector(position int) []float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if position < 0 || position >= len(f.vectors) {
		return nil
	}
	return f.vectors[position]
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Save persists the index to path. Directory is created if needed.
// Format: dimensions (4), n (4), then per vector: idLen (4), id bytes,
// vector (dimensions*4 bytes). Little endian throughout.
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer out.Close()
	if err := binary.Write(out, binary.LittleEndian, uint32(f.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(len(f.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range f.ids {
		idBytes := []byte(id)
		if err := binary.Write(out, binary.LittleEndian, uint32(len(idBytes))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := out.Write(idBytes); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := binary.Write(out, binary.LittleEndian, f.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// LoadFlatIndex reads an index written by Save. The dimension is taken from the file.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer in.Close()
	var dim, n uint32
	if err := binary.Read(in, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(in, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	idx, err := NewFlatIndex(int(dim))
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(in, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("read id len: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := in.Read(idBytes); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(in, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		idx.ids = append(idx.ids, string(idBytes))
		idx.vectors = append(idx.vectors, vec)
	}
	return idx, nil
}
