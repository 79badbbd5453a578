package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

const (
	DefaultQuestionWorkers = 4
	maxSourceSections      = 3
	sourcePreviewRunes     = 100
	questionErrorPrefix    = "Error processing question: "
)

type PipelineConfig struct {
	TopK            int
	QuestionWorkers int
	KeywordFallback bool
}

// PipelineDeps are the collaborators of a Pipeline. Answers, Keyword,
// Events and Observer are optional.
type PipelineDeps struct {
	Extractor  ports.PageExtractor
	Chunker    ports.Chunker
	Embedder   *BatchEmbedder
	NewIndex   func() ports.VectorIndex
	Retriever  *Retriever
	Generator  *AnswerGenerator
	Classifier ports.QueryClassifier
	Answers    ports.AnswerCache
	Keyword    ports.KeywordSearcher
	Events     ports.EventPublisher
	Observer   ports.PipelineObserver
}

// Pipeline sequences chunk, embed, index, retrieve and generate.
type Pipeline struct {
	deps     PipelineDeps
	analyzer *CoverageAnalyzer
	cfg      PipelineConfig
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case deps.Chunker == nil:
		return nil, errors.New("pipeline: chunker is required")
	case deps.Embedder == nil:
		return nil, errors.New("pipeline: embedder is required")
	case deps.NewIndex == nil:
		return nil, errors.New("pipeline: index factory is required")
	case deps.Retriever == nil:
		return nil, errors.New("pipeline: retriever is required")
	case deps.Generator == nil:
		return nil, errors.New("pipeline: generator is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = ClaimClassifier{}
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.QuestionWorkers <= 0 {
		cfg.QuestionWorkers = DefaultQuestionWorkers
	}
	return &Pipeline{
		deps:     deps,
		analyzer: NewCoverageAnalyzer(deps.Retriever),
		cfg:      cfg,
	}, nil
}

// ProcessDocument extracts, chunks and indexes a PDF into a new Session.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdf []byte) (*Session, error) {
	if p.deps.Extractor == nil {
		return nil, errors.New("pipeline: page extractor is not configured")
	}
	pages, err := p.deps.Extractor.ExtractPages(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidPDF, "extract pages", errors.New("pdf has no extractable text"))
	}
	return p.BuildSession(ctx, ContentID(pdf), pages)
}

// BuildSession chunks pages and indexes the chunks under documentID.
func (p *Pipeline) BuildSession(ctx context.Context, documentID string, pages []domain.PageText) (*Session, error) {
	chunks := p.deps.Chunker.Chunk(pages)
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		texts = append(texts, page.Text)
	}
	s, err := p.buildIndex(ctx, documentID, chunks)
	if err != nil {
		return nil, err
	}
	s.FullText = strings.Join(texts, "\n")
	s.PageCount = len(pages)
	return s, nil
}

// BuildIndex embeds chunks and indexes the ones that embedded successfully
// into a new Session.
func (p *Pipeline) BuildIndex(ctx context.Context, chunks []domain.Chunk) (*Session, error) {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return p.buildIndex(ctx, ContentID([]byte(strings.Join(texts, "\x00"))), chunks)
}

func (p *Pipeline) buildIndex(ctx context.Context, documentID string, chunks []domain.Chunk) (*Session, error) {
	started := time.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	outcomes := p.deps.Embedder.EmbedBatch(ctx, texts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors, indices := Succeeded(outcomes)
	paired := make([]domain.Chunk, len(indices))
	for i, idx := range indices {
		paired[i] = chunks[idx]
	}
	p.deps.Observer.ObserveEmbeddings(len(vectors), len(chunks)-len(vectors))

	index := p.deps.NewIndex()
	added, err := index.Add(vectors, paired)
	if err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}
	if added < len(chunks) {
		slog.Warn("partial_index",
			"document_id", documentID,
			"chunks", len(chunks),
			"indexed", added,
		)
	}

	s := &Session{
		ID:           uuid.NewString(),
		DocumentID:   documentID,
		ChunkCount:   len(chunks),
		IndexedCount: added,
		BuiltAt:      time.Now().UTC(),
		index:        index,
	}
	p.deps.Observer.ObserveDocument(string(domain.StatusReady), added, time.Since(started).Seconds())
	return s, nil
}

// AnswerQuery answers one question against a session. An empty or missing
// session is answerable: it yields domain.NotAvailableAnswer.
func (p *Pipeline) AnswerQuery(ctx context.Context, s *Session, query string) (domain.QueryResult, error) {
	started := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.QueryResult{}, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("question is empty"))
	}

	documentID := ""
	if s != nil {
		documentID = s.DocumentID
	}
	if p.deps.Answers != nil && documentID != "" {
		if cached, ok := p.deps.Answers.Get(documentID, query); ok {
			cached.Metadata.Cached = true
			p.deps.Observer.ObserveAnswer(cached.Metadata.Kind, len(cached.Metadata.SourceSections), true, time.Since(started).Seconds())
			return cached, nil
		}
	}

	results := p.deps.Retriever.Retrieve(ctx, s, query, p.cfg.TopK)
	passages := joinContext(results)
	sources := sourceSections(results)
	if len(results) == 0 {
		snippet, ok := p.keywordFallback(s, query)
		if !ok {
			result := notAvailable(query, time.Since(started))
			p.deps.Observer.ObserveAnswer(result.Metadata.Kind, 0, false, result.Metadata.ProcessingTime.Seconds())
			return result, nil
		}
		passages = snippet
		sources = []string{"Keyword match: " + preview(snippet)}
	}

	var result domain.QueryResult
	if p.deps.Classifier.IsClaim(query) {
		result = p.answerClaim(ctx, s, query, passages)
	} else {
		answer, reasoning := p.deps.Generator.GenerateWithReasoning(ctx, buildPolicyQuestion(query), passages)
		result = domain.QueryResult{
			Query:           query,
			Answer:          answer,
			DecisionSummary: answer,
			Metadata: domain.AnswerMetadata{
				Kind:      domain.QueryGeneral,
				Reasoning: reasoning,
			},
		}
	}

	result.Metadata.ConfidenceScore = confidence(results)
	result.Metadata.SourceSections = sources
	result.Metadata.ProcessingTime = time.Since(started)

	if p.deps.Answers != nil && documentID != "" && result.Answer != ErrorAnswer {
		p.deps.Answers.Set(documentID, query, result)
	}
	p.deps.Observer.ObserveAnswer(result.Metadata.Kind, len(sources), false, result.Metadata.ProcessingTime.Seconds())
	return result, nil
}

func (p *Pipeline) answerClaim(ctx context.Context, s *Session, query, passages string) domain.QueryResult {
	details := ExtractClaimDetails(query)
	understood := QueryUnderstood(details)
	decision := p.analyzer.Analyze(ctx, s, details)
	answer, reasoning := p.deps.Generator.GenerateWithReasoning(ctx, buildClaimQuestion(understood), passages)

	if p.deps.Events != nil && s != nil {
		event := domain.ClaimDecidedEvent{
			DocumentID: s.DocumentID,
			Query:      query,
			Details:    details,
			Decision:   decision,
			OccurredAt: time.Now().UTC(),
		}
		if err := p.deps.Events.PublishClaimDecided(ctx, event); err != nil {
			slog.Warn("publish_claim_decided_failed", "document_id", s.DocumentID, "error", err)
		}
	}

	return domain.QueryResult{
		Query:           query,
		Answer:          answer,
		DecisionSummary: DecisionSummary(decision),
		QueryUnderstood: understood,
		Claim:           &details,
		Metadata: domain.AnswerMetadata{
			Kind:      domain.QueryClaim,
			Reasoning: reasoning,
			Decision:  &decision,
		},
	}
}

func (p *Pipeline) keywordFallback(s *Session, query string) (string, bool) {
	if !p.cfg.KeywordFallback || p.deps.Keyword == nil || s == nil || s.FullText == "" {
		return "", false
	}
	return p.deps.Keyword.Search(query, s.FullText)
}

// AnswerBatch answers questions concurrently and returns answers in
// question order. A failing question yields an inline error string.
func (p *Pipeline) AnswerBatch(ctx context.Context, s *Session, questions []string) []string {
	answers := make([]string, len(questions))

	var g errgroup.Group
	g.SetLimit(p.cfg.QuestionWorkers)
	for i, question := range questions {
		g.Go(func() error {
			answers[i] = p.answerOne(ctx, s, question)
			return nil
		})
	}
	_ = g.Wait()
	return answers
}

func (p *Pipeline) answerOne(ctx context.Context, s *Session, question string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("question_panic", "question", question, "panic", r)
			answer = questionErrorPrefix + fmt.Sprint(r)
		}
	}()
	result, err := p.AnswerQuery(ctx, s, question)
	if err != nil {
		return questionErrorPrefix + err.Error()
	}
	return result.Answer
}

// ContentID identifies a document by the SHA-256 of its bytes.
func ContentID(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func notAvailable(query string, elapsed time.Duration) domain.QueryResult {
	return domain.QueryResult{
		Query:           query,
		Answer:          domain.NotAvailableAnswer,
		DecisionSummary: domain.NotAvailableAnswer,
		Metadata: domain.AnswerMetadata{
			Kind:           domain.QueryGeneral,
			ProcessingTime: elapsed,
			SourceSections: []string{},
		},
	}
}

func confidence(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Score
	}
	return math.Min(sum/float64(len(results)), 1.0)
}

func sourceSections(results []domain.RetrievalResult) []string {
	n := min(len(results), maxSourceSections)
	out := make([]string, 0, n)
	for _, r := range results[:n] {
		out = append(out, fmt.Sprintf("Page %d: %s", r.Page, preview(r.Text)))
	}
	return out
}

func preview(text string) string {
	return truncateRunes(text, sourcePreviewRunes) + "..."
}

type noopObserver struct{}

func (noopObserver) ObserveEmbeddings(int, int)                         {}
func (noopObserver) ObserveAnswer(domain.QueryKind, int, bool, float64) {}
func (noopObserver) ObserveDocument(string, int, float64)               {}
