package ports

import (
	"context"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// DocumentFetcher downloads and validates a PDF document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.FetchedDocument, error)
}

// PageExtractor extracts per-page plain text from PDF bytes.
type PageExtractor interface {
	ExtractPages(ctx context.Context, pdf []byte) ([]domain.PageText, error)
}

// Chunker splits page text into scored chunks.
type Chunker interface {
	Chunk(pages []domain.PageText) []domain.Chunk
}

// ContentClassifier assigns a content category to a chunk of text.
type ContentClassifier interface {
	Classify(text string) domain.ContentType
}

// QueryClassifier decides whether a question describes a claim scenario.
type QueryClassifier interface {
	IsClaim(query string) bool
}

// EmbeddingProvider is the hosted embedding API.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionProvider is the hosted generation API.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex is an exhaustive nearest-neighbour index over one corpus.
// Production code never resets an index in place: every session builds a
// fresh index and treats it as immutable once published. Reset only serves
// tests and callers that reuse an index they own exclusively.
type VectorIndex interface {
	Reset()
	Add(vectors [][]float32, chunks []domain.Chunk) (int, error)
	Search(query []float32, k int) []domain.IndexHit
	Len() int
	Chunk(position int) (domain.Chunk, bool)
}

// QueryEmbeddingCache memoizes query vectors by exact query string.
type QueryEmbeddingCache interface {
	Get(query string) ([]float32, bool)
	Set(query string, vector []float32)
}

// AnswerCache memoizes answers per (document, question).
type AnswerCache interface {
	Get(documentID, question string) (domain.QueryResult, bool)
	Set(documentID, question string, result domain.QueryResult)
}

// KeywordSearcher finds literal snippets in the full document text.
type KeywordSearcher interface {
	Search(query, fullText string) (string, bool)
}

// DocumentRegistry records processed documents.
type DocumentRegistry interface {
	Upsert(ctx context.Context, record *domain.DocumentRecord) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount, indexedCount int, errMessage string) error
}

// EventPublisher emits domain events to interested consumers.
type EventPublisher interface {
	PublishDocumentIndexed(ctx context.Context, event domain.DocumentIndexedEvent) error
	PublishClaimDecided(ctx context.Context, event domain.ClaimDecidedEvent) error
}

// PipelineObserver receives pipeline measurements.
type PipelineObserver interface {
	ObserveEmbeddings(succeeded, failed int)
	ObserveAnswer(kind domain.QueryKind, sources int, cached bool, durationSeconds float64)
	ObserveDocument(status string, chunks int, durationSeconds float64)
}
