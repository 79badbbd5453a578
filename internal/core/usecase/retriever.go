package usecase

import (
	"context"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

const (
	DefaultTopK              = 6
	DefaultDistanceThreshold = 2.5
	candidateMultiplier      = 4
)

type RetrieverConfig struct {
	TopK              int
	DistanceThreshold float64
	Rerank            bool
}

type Retriever struct {
	embedder *BatchEmbedder
	cache    ports.QueryEmbeddingCache
	cfg      RetrieverConfig
}

func NewRetriever(embedder *BatchEmbedder, cache ports.QueryEmbeddingCache, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = DefaultDistanceThreshold
	}
	return &Retriever{embedder: embedder, cache: cache, cfg: cfg}
}

// Retrieve returns up to k passages of the session ordered by the mean of
// composite score and importance. An empty or missing session yields no
// results; so does a query that cannot be embedded.
func (r *Retriever) Retrieve(ctx context.Context, s *Session, query string, k int) []domain.RetrievalResult {
	if k <= 0 {
		k = r.cfg.TopK
	}
	corpus := s.Len()
	if corpus == 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	queryVector := r.queryVector(ctx, query)
	if len(queryVector) == 0 {
		return nil
	}

	candidates := k * candidateMultiplier
	if candidates > corpus {
		candidates = corpus
	}

	terms := newQueryTerms(query)
	results := make([]domain.RetrievalResult, 0, candidates)
	for _, hit := range s.search(queryVector, candidates) {
		if hit.Distance >= r.cfg.DistanceThreshold {
			continue
		}
		chunk, ok := s.chunk(hit.Position)
		if !ok {
			continue
		}
		lowerText := strings.ToLower(chunk.Text)
		similarity := 1 - min(hit.Distance, r.cfg.DistanceThreshold)/r.cfg.DistanceThreshold
		results = append(results, domain.RetrievalResult{
			Chunk:       chunk,
			Position:    hit.Position,
			Distance:    hit.Distance,
			Similarity:  similarity,
			Score:       compositeScore(terms, similarity, lowerText),
			RerankScore: rerankScore(terms, chunk, lowerText),
		})
	}

	sortByRankKey(results)
	if len(results) > k {
		results = results[:k]
	}
	if r.cfg.Rerank {
		sortByRerankScore(results)
	}
	return results
}

func (r *Retriever) queryVector(ctx context.Context, query string) []float32 {
	if r.cache != nil {
		if v, ok := r.cache.Get(query); ok {
			return v
		}
	}
	v := r.embedder.EmbedOne(ctx, query)
	if len(v) > 0 && r.cache != nil {
		r.cache.Set(query, v)
	}
	return v
}
