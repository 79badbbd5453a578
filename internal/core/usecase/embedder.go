package usecase

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

var errEmptyEmbedding = errors.New("empty embedding")

const (
	MaxQueryEmbedChars  = 2000
	MaxBatchEmbedChars  = 1000
	DefaultEmbedWorkers = 5
)

// BatchEmbedder adapts an embedding provider to best-effort single and
// batch calls. Provider failures never escape as errors.
type BatchEmbedder struct {
	provider ports.EmbeddingProvider
	workers  int
}

func NewBatchEmbedder(provider ports.EmbeddingProvider, workers int) *BatchEmbedder {
	if workers <= 0 {
		workers = DefaultEmbedWorkers
	}
	return &BatchEmbedder{provider: provider, workers: workers}
}

// EmbedOne returns nil when the provider fails or returns nothing.
func (e *BatchEmbedder) EmbedOne(ctx context.Context, text string) []float32 {
	vector, err := e.provider.Embed(ctx, truncateRunes(text, MaxQueryEmbedChars))
	if err != nil {
		slog.Warn("embedding_failed", "chars", len(text), "error", err)
		return nil
	}
	return vector
}

// EmbedBatch embeds texts concurrently and returns one outcome per input,
// aligned by index.
func (e *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) []domain.EmbeddingOutcome {
	outcomes := make([]domain.EmbeddingOutcome, len(texts))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, text := range texts {
		g.Go(func() error {
			outcomes[i] = e.embedItem(ctx, i, text)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (e *BatchEmbedder) embedItem(ctx context.Context, index int, text string) domain.EmbeddingOutcome {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingOutcome{Index: index, Err: err}
	}
	vector, err := e.provider.Embed(ctx, truncateRunes(text, MaxBatchEmbedChars))
	if err != nil {
		return domain.EmbeddingOutcome{Index: index, Err: err}
	}
	if len(vector) == 0 {
		return domain.EmbeddingOutcome{Index: index, Err: errEmptyEmbedding}
	}
	return domain.EmbeddingOutcome{Index: index, Vector: vector}
}

// Succeeded splits outcomes into the vectors that were produced and the
// input indices they belong to.
func Succeeded(outcomes []domain.EmbeddingOutcome) ([][]float32, []int) {
	vectors := make([][]float32, 0, len(outcomes))
	indices := make([]int, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		vectors = append(vectors, o.Vector)
		indices = append(indices, o.Index)
	}
	return vectors, indices
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
