package retriever

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/models"
	"github.com/asadmkhan/portfolio-chat-bot-backend-sub000/internal/vector"
)

// Options tunes a single retrieval call.
type Options struct {
	K        int     // number of hits to return
	FetchK   int     // candidate pool size for MMR; effective pool is max(K, FetchK)
	UseMMR   bool    // re-rank candidates for diversity
	Lambda   float64 // MMR relevance/diversity trade-off in [0,1]
	MinScore float64 // drop hits scoring below this against the query
	MaxChars int     // truncate hit text to this many runes; 0 disables
}

// Retriever answers similarity queries against cached per-language indices.
type Retriever struct {
	cache  *Cache
	logger *zap.Logger
}

// New creates a Retriever over cache.
func New(cache *Cache, logger *zap.Logger) *Retriever {
	return &Retriever{cache: cache, logger: logger}
}

// Search returns the chunks most relevant to query in lang, ordered by
// descending similarity. A blank query returns no hits without touching the
// embedder. With MMR enabled the candidate pool is re-ranked for diversity;
// scores always report similarity to the query, not the MMR objective.
func (r *Retriever) Search(ctx context.Context, query, lang string, opts Options) ([]models.RetrievedHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	loaded, err := r.cache.Get(ctx, lang)
	if err != nil {
		return nil, err
	}

	queryVec, err := loaded.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vector.Normalize(queryVec)

	fetch := opts.K
	if opts.UseMMR && opts.FetchK > fetch {
		fetch = opts.FetchK
	}
	candidates, err := loaded.Index.Search(ctx, queryVec, fetch)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// MMR only changes anything when there are more candidates than slots.
	if opts.UseMMR && len(candidates) > opts.K {
		candidates, err = r.rerank(ctx, loaded, queryVec, candidates, opts)
		if err != nil {
			return nil, err
		}
	} else if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}

	hits := make([]models.RetrievedHit, 0, len(candidates))
	for _, c := range candidates {
		if float64(c.Score) < opts.MinScore {
			continue
		}
		chunk := loaded.Chunk(c.ID)
		if chunk == nil {
			r.logger.Warn("chunk missing from manifest", zap.String("id", c.ID))
			continue
		}
		hits = append(hits, models.RetrievedHit{
			ChunkID: chunk.ID,
			Source:  chunk.Source,
			Text:    truncateRunes(chunk.Text, opts.MaxChars),
			Score:   c.Score,
		})
	}
	return hits, nil
}

// rerank applies MMR over the candidate pool and returns the selected
// candidates in pick order. Candidate vectors come from the loaded embeddings
// matrix; when the matrix is absent the chunk texts are re-embedded.
func (r *Retriever) rerank(ctx context.Context, loaded *Loaded, queryVec []float32, candidates []*vector.Result, opts Options) ([]*vector.Result, error) {
	vecs, err := r.candidateVectors(ctx, loaded, candidates)
	if err != nil {
		return nil, err
	}
	picks := mmrSelect(queryVec, vecs, opts.Lambda, opts.K)
	selected := make([]*vector.Result, len(picks))
	for i, p := range picks {
		selected[i] = candidates[p]
	}
	return selected, nil
}

func (r *Retriever) candidateVectors(ctx context.Context, loaded *Loaded, candidates []*vector.Result) ([][]float32, error) {
	if loaded.Matrix != nil {
		vecs := make([][]float32, len(candidates))
		for i, c := range candidates {
			if c.Position < 0 || c.Position >= len(loaded.Matrix) {
				return nil, fmt.Errorf("candidate position %d out of matrix range", c.Position)
			}
			vecs[i] = loaded.Matrix[c.Position]
		}
		return vecs, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		chunk := loaded.Chunk(c.ID)
		if chunk == nil {
			return nil, fmt.Errorf("chunk %s missing from manifest", c.ID)
		}
		texts[i] = chunk.Text
	}
	vecs, err := loaded.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("re-embed candidates: %w", err)
	}
	for _, v := range vecs {
		vector.Normalize(v)
	}
	return vecs, nil
}

// truncateRunes cuts s to at most max runes, appending "..." when it cuts.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
