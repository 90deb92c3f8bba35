// Package models defines core data structures for chunks, retrieval, chat, and stream events.
package models

// Chunk is one overlapping window of a source document, the atomic unit of retrieval.
// Chunks are produced at index-build time and never mutated afterwards.
type Chunk struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
}

// IndexManifest describes one language's persisted index: the embedding model that
// produced it, the chunking parameters, and the chunk table that maps vector-index
// positions back to chunk text and source.
type IndexManifest struct {
	Lang           string  `json:"lang"`
	ModelName      string  `json:"model_name"`
	ChunkSize      int     `json:"chunk_size"`
	Overlap        int     `json:"overlap"`
	Count          int     `json:"count"`
	EmbeddingsPath string  `json:"embeddings_path"`
	Chunks         []Chunk `json:"chunks"`
}

// RetrievedHit is a single retrieval result for one query. Ephemeral, never persisted.
type RetrievedHit struct {
	ChunkID string  `json:"id"`
	Source  string  `json:"source"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// SourceRef is the citation shape sent to clients in the sources event.
type SourceRef struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}
