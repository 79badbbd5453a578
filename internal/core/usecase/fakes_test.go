package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/chunking"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/vector/flat"
)

// mapEmbedder returns fixed vectors per text and fails for texts listed in
// errs or missing from vectors.
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error
	calls   map[string]int
}

func (f *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[text]++
	if err, ok := f.errs[text]; ok {
		return nil, err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func (f *mapEmbedder) callsFor(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

// hashEmbedder is a bag-of-words embedder: token counts hashed into a fixed
// number of buckets, normalised to unit length.
type hashEmbedder struct {
	dim int
}

func (h hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dim := h.dim
	if dim == 0 {
		dim = 64
	}
	v := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(token))
		v[hasher.Sum32()%uint32(dim)]++
	}
	norm := 0.0
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil, errors.New("no tokens")
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}

type completionFake struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *completionFake) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return "REASONING: checked the context ANSWER: ok", nil
	}
	return respond(prompt)
}

func (f *completionFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type answerCacheFake struct {
	mu      sync.Mutex
	entries map[string]domain.QueryResult
}

func (f *answerCacheFake) Get(documentID, question string) (domain.QueryResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.entries[documentID+":"+question]
	return r, ok
}

func (f *answerCacheFake) Set(documentID, question string, result domain.QueryResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[string]domain.QueryResult)
	}
	f.entries[documentID+":"+question] = result
}

type queryCacheFake struct {
	mu      sync.Mutex
	vectors map[string][]float32
}

func (f *queryCacheFake) Get(query string) ([]float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vectors[query]
	return v, ok
}

func (f *queryCacheFake) Set(query string, vector []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vectors == nil {
		f.vectors = make(map[string][]float32)
	}
	f.vectors[query] = vector
}

type keywordFake struct {
	snippet string
}

func (f keywordFake) Search(string, string) (string, bool) {
	return f.snippet, f.snippet != ""
}

type eventsFake struct {
	mu      sync.Mutex
	indexed []domain.DocumentIndexedEvent
	claims  []domain.ClaimDecidedEvent
}

func (f *eventsFake) PublishDocumentIndexed(_ context.Context, event domain.DocumentIndexedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, event)
	return nil
}

func (f *eventsFake) PublishClaimDecided(_ context.Context, event domain.ClaimDecidedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, event)
	return nil
}

type extractorFake struct {
	pages []domain.PageText
	err   error
}

func (f extractorFake) ExtractPages(context.Context, []byte) ([]domain.PageText, error) {
	return f.pages, f.err
}

type pipelineOption func(*PipelineDeps, *PipelineConfig, *RetrieverConfig)

func withAnswers(c ports.AnswerCache) pipelineOption {
	return func(d *PipelineDeps, _ *PipelineConfig, _ *RetrieverConfig) { d.Answers = c }
}

func withEvents(e ports.EventPublisher) pipelineOption {
	return func(d *PipelineDeps, _ *PipelineConfig, _ *RetrieverConfig) { d.Events = e }
}

func withKeywordFallback(k ports.KeywordSearcher) pipelineOption {
	return func(d *PipelineDeps, c *PipelineConfig, _ *RetrieverConfig) {
		d.Keyword = k
		c.KeywordFallback = true
	}
}

func withExtractor(x ports.PageExtractor) pipelineOption {
	return func(d *PipelineDeps, _ *PipelineConfig, _ *RetrieverConfig) { d.Extractor = x }
}

func newTestPipeline(t *testing.T, embed ports.EmbeddingProvider, complete ports.CompletionProvider, opts ...pipelineOption) *Pipeline {
	t.Helper()
	deps := PipelineDeps{
		Chunker:   chunking.NewChunker(chunking.DefaultConfig(), nil),
		Embedder:  NewBatchEmbedder(embed, 0),
		NewIndex:  func() ports.VectorIndex { return flat.New() },
		Generator: NewAnswerGenerator(complete),
	}
	cfg := PipelineConfig{}
	rcfg := RetrieverConfig{}
	for _, opt := range opts {
		opt(&deps, &cfg, &rcfg)
	}
	deps.Retriever = NewRetriever(deps.Embedder, nil, rcfg)

	p, err := NewPipeline(deps, cfg)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func chunksOf(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		out[i] = domain.Chunk{
			Text:            text,
			Page:            i + 1,
			ContentType:     domain.ContentGeneral,
			ImportanceScore: 0.5,
			ChunkIndex:      i,
		}
	}
	return out
}
