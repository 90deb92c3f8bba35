// Package extract provides plain-text extraction from the document formats the
// corpus may contain.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the file at path and returns its text content. Plain text
// formats (.txt, .md) are returned as-is after UTF-8 validation; PDF, DOCX,
// ODT, RTF, and XLSX go through format-specific extraction.
func (e *Extractor) ExtractFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.Extract(content, strings.ToLower(filepath.Ext(path)))
}

// Extract extracts text from content based on ext, which includes the leading
// dot (e.g. ".pdf"). Unknown extensions are treated as plain text.
func (e *Extractor) Extract(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractRichText(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}
