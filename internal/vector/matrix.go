package vector

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// SaveMatrix persists a raw embedding matrix to path so re-ranking can reuse the
// chunk vectors without re-embedding. Format: dimensions (4), rows (4), then
// rows*dimensions float32 values, little endian.
func SaveMatrix(path string, matrix [][]float32) error {
	if path == "" {
		return nil
	}
	if len(matrix) == 0 {
		return fmt.Errorf("empty matrix")
	}
	dim := len(matrix[0])
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create matrix dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer out.Close()
	if err := binary.Write(out, binary.LittleEndian, uint32(dim)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(len(matrix))); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	for i, row := range matrix {
		if len(row) != dim {
			return fmt.Errorf("row %d dimension mismatch: got %d, expected %d", i, len(row), dim)
		}
		if err := binary.Write(out, binary.LittleEndian, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// LoadMatrix reads a matrix written by SaveMatrix.
func LoadMatrix(path string) ([][]float32, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer in.Close()
	var dim, rows uint32
	if err := binary.Read(in, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if err := binary.Read(in, binary.LittleEndian, &rows); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	matrix := make([][]float32, rows)
	for i := range matrix {
		row := make([]float32, dim)
		if err := binary.Read(in, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		matrix[i] = row
	}
	return matrix, nil
}
