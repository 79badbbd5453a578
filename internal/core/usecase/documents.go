package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

// DefaultBuildTimeout bounds a shared document build, which runs detached
// from the request that started it.
const DefaultBuildTimeout = 5 * time.Minute

// DocumentService answers questions about documents addressed by URL. Built
// sessions are cached by URL and concurrent builds of one URL are collapsed.
type DocumentService struct {
	fetcher  ports.DocumentFetcher
	pipeline *Pipeline
	sessions SessionCache
	registry ports.DocumentRegistry
	events   ports.EventPublisher

	builds       singleflight.Group
	buildTimeout time.Duration
}

// NewDocumentService wires the document flow. registry and events may be nil.
func NewDocumentService(
	fetcher ports.DocumentFetcher,
	pipeline *Pipeline,
	sessions SessionCache,
	registry ports.DocumentRegistry,
	events ports.EventPublisher,
) *DocumentService {
	return &DocumentService{
		fetcher:      fetcher,
		pipeline:     pipeline,
		sessions:     sessions,
		registry:     registry,
		events:       events,
		buildTimeout: DefaultBuildTimeout,
	}
}

func (uc *DocumentService) AnswerDocumentQuestions(ctx context.Context, documentURL string, questions []string) ([]string, error) {
	if len(questions) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer document questions", errors.New("questions are required"))
	}
	s, err := uc.Open(ctx, documentURL)
	if err != nil {
		return nil, err
	}
	return uc.pipeline.AnswerBatch(ctx, s, questions), nil
}

func (uc *DocumentService) AnswerDocumentQuery(ctx context.Context, documentURL, question string) (domain.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return domain.QueryResult{}, domain.WrapError(domain.ErrInvalidInput, "answer document query", errors.New("question is required"))
	}
	s, err := uc.Open(ctx, documentURL)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return uc.pipeline.AnswerQuery(ctx, s, question)
}

// Prefetch builds and caches the session for documentURL ahead of any
// question.
func (uc *DocumentService) Prefetch(ctx context.Context, documentURL string) error {
	_, err := uc.Open(ctx, documentURL)
	return err
}

// Open returns the cached session for documentURL, building it on a miss.
func (uc *DocumentService) Open(ctx context.Context, documentURL string) (*Session, error) {
	documentURL = strings.TrimSpace(documentURL)
	if documentURL == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open document", errors.New("document url is required"))
	}
	if uc.sessions != nil {
		if s, ok := uc.sessions.Get(documentURL); ok {
			return s, nil
		}
	}

	// The build outlives any single waiter: each caller stops waiting on its
	// own context while the shared build keeps running.
	results := uc.builds.DoChan(documentURL, func() (any, error) {
		if uc.sessions != nil {
			if s, ok := uc.sessions.Get(documentURL); ok {
				return s, nil
			}
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.buildTimeout)
		defer cancel()

		s, cacheable, err := uc.build(buildCtx, documentURL)
		if err != nil {
			return nil, err
		}
		if cacheable && uc.sessions != nil {
			uc.sessions.Add(documentURL, s)
		}
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("open document: %w", ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// build fetches and indexes documentURL. cacheable is false when chunks
// exist but none could be embedded, so the next request rebuilds.
func (uc *DocumentService) build(ctx context.Context, documentURL string) (s *Session, cacheable bool, err error) {
	started := time.Now()
	doc, err := uc.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		return nil, false, fmt.Errorf("fetch document: %w", err)
	}

	record := &domain.DocumentRecord{
		ID:          RecordID(documentURL),
		URL:         documentURL,
		ContentHash: ContentID(doc.Body),
		Status:      domain.StatusIndexing,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	uc.upsert(ctx, record)

	s, err = uc.pipeline.ProcessDocument(ctx, doc.Body)
	if err != nil {
		uc.markFailed(ctx, record.ID, err)
		return nil, false, err
	}
	s.Source = documentURL
	if s.IndexedCount == 0 {
		if s.ChunkCount > 0 {
			slog.Warn("document_embedding_failed", "url", documentURL, "chunks", s.ChunkCount)
			uc.markStatus(ctx, record.ID, domain.StatusFailed, s.ChunkCount, 0, errNothingEmbedded.Error())
			return s, false, nil
		}
		slog.Warn("document_not_indexed", "url", documentURL, "chunks", s.ChunkCount)
	}

	uc.markStatus(ctx, record.ID, domain.StatusReady, s.ChunkCount, s.IndexedCount, "")
	uc.publishIndexed(ctx, s)

	slog.Info("document_ready",
		"document_id", s.DocumentID,
		"url", documentURL,
		"pages", s.PageCount,
		"chunks", s.ChunkCount,
		"indexed", s.IndexedCount,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return s, true, nil
}

func (uc *DocumentService) upsert(ctx context.Context, record *domain.DocumentRecord) {
	if uc.registry == nil {
		return
	}
	if err := uc.registry.Upsert(ctx, record); err != nil {
		slog.Warn("registry_upsert_failed", "url", record.URL, "error", err)
	}
}

func (uc *DocumentService) markStatus(ctx context.Context, id string, status domain.DocumentStatus, chunks, indexed int, errMessage string) {
	if uc.registry == nil {
		return
	}
	if err := uc.registry.UpdateStatus(ctx, id, status, chunks, indexed, errMessage); err != nil {
		slog.Warn("registry_status_failed", "record_id", id, "status", status, "error", err)
	}
}

func (uc *DocumentService) markFailed(ctx context.Context, id string, processErr error) {
	if processErr == nil {
		return
	}
	uc.markStatus(ctx, id, domain.StatusFailed, 0, 0, processErr.Error())
}

func (uc *DocumentService) publishIndexed(ctx context.Context, s *Session) {
	if uc.events == nil {
		return
	}
	event := domain.DocumentIndexedEvent{
		DocumentID:   s.DocumentID,
		URL:          s.Source,
		ChunkCount:   s.ChunkCount,
		IndexedCount: s.IndexedCount,
		OccurredAt:   time.Now().UTC(),
	}
	if err := uc.events.PublishDocumentIndexed(ctx, event); err != nil {
		slog.Warn("publish_document_indexed_failed", "document_id", s.DocumentID, "error", err)
	}
}

var errNothingEmbedded = errors.New("no chunk could be embedded")

// RecordID is the stable registry id of a document URL.
func RecordID(documentURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentURL)).String()
}
