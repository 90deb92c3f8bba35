// Package ingest builds per-language vector indices from a documents directory.
package ingest

import "strings"

// Window is a chunk of source text. Start and End are rune offsets into the
// original document; Text is the trimmed slice content.
type Window struct {
	Start int
	End   int
	Text  string
}

// ChunkText splits text into windows of at most size runes, consecutive
// windows overlapping by overlap runes. Windows that are empty after trimming
// are dropped but do not shift the offsets of later windows. overlap must be
// smaller than size or the walk would not advance.
func ChunkText(text string, size, overlap int) []Window {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	n := len(runes)
	var windows []Window

	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			windows = append(windows, Window{Start: start, End: end, Text: piece})
		}
		if end == n {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return windows
}
