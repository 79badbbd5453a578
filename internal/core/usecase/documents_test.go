package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

type fetcherFake struct {
	calls atomic.Int32
	delay time.Duration
	body  []byte
	err   error
}

func (f *fetcherFake) Fetch(ctx context.Context, url string) (*domain.FetchedDocument, error) {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FetchedDocument{URL: url, ContentType: "application/pdf", Body: f.body, FetchedAt: time.Now()}, nil
}

type statusCall struct {
	status  domain.DocumentStatus
	indexed int
	errMsg  string
}

type registryFake struct {
	mu          sync.Mutex
	records     []*domain.DocumentRecord
	statusCalls []statusCall
}

func (f *registryFake) Upsert(_ context.Context, record *domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *registryFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, _, indexed int, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, indexed: indexed, errMsg: errMessage})
	return nil
}

type sessionCacheFake struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func (f *sessionCacheFake) Get(key string) (*Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[key]
	return s, ok
}

func (f *sessionCacheFake) Add(key string, s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions == nil {
		f.sessions = make(map[string]*Session)
	}
	f.sessions[key] = s
}

const policyURL = "https://example.com/policy.pdf"

// switchEmbedder fails every call while down is set.
type switchEmbedder struct {
	down atomic.Bool
}

func (e *switchEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.down.Load() {
		return nil, domain.WrapError(domain.ErrTemporary, "embed", errors.New("provider unavailable"))
	}
	return hashEmbedder{}.Embed(ctx, text)
}

func newTestDocumentService(t *testing.T, fetcher *fetcherFake, registry *registryFake, events *eventsFake) *DocumentService {
	t.Helper()
	return newTestDocumentServiceWith(t, hashEmbedder{}, fetcher, registry, events)
}

func newTestDocumentServiceWith(t *testing.T, embedder ports.EmbeddingProvider, fetcher *fetcherFake, registry *registryFake, events *eventsFake) *DocumentService {
	t.Helper()
	p := newTestPipeline(t, embedder, groundedCompletion(), withExtractor(extractorFake{pages: policyPages()}))
	uc := NewDocumentService(fetcher, p, &sessionCacheFake{}, nil, nil)
	if registry != nil {
		uc.registry = registry
	}
	if events != nil {
		uc.events = events
	}
	return uc
}

func TestAnswerDocumentQuestions(t *testing.T) {
	fetcher := &fetcherFake{body: []byte("%PDF-1.4 policy")}
	registry := &registryFake{}
	events := &eventsFake{}
	uc := newTestDocumentService(t, fetcher, registry, events)

	answers, err := uc.AnswerDocumentQuestions(context.Background(), policyURL, []string{"What is the grace period?"})
	if err != nil {
		t.Fatalf("AnswerDocumentQuestions() error = %v", err)
	}
	if len(answers) != 1 || answers[0] != "The grace period is 30 days." {
		t.Fatalf("unexpected answers %q", answers)
	}

	if len(registry.records) != 1 || registry.records[0].ID != RecordID(policyURL) {
		t.Fatalf("expected one registry record, got %+v", registry.records)
	}
	if len(registry.statusCalls) != 1 || registry.statusCalls[0].status != domain.StatusReady || registry.statusCalls[0].indexed != 3 {
		t.Fatalf("unexpected status calls %+v", registry.statusCalls)
	}
	if len(events.indexed) != 1 || events.indexed[0].URL != policyURL {
		t.Fatalf("expected document indexed event, got %+v", events.indexed)
	}
}

func TestOpenReusesCachedSession(t *testing.T) {
	fetcher := &fetcherFake{body: []byte("%PDF-1.4 policy"), delay: 10 * time.Millisecond}
	uc := newTestDocumentService(t, fetcher, nil, nil)

	var wg sync.WaitGroup
	sessions := make([]*Session, 8)
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := uc.Open(context.Background(), policyURL)
			if err != nil {
				t.Errorf("Open() error = %v", err)
				return
			}
			sessions[i] = s
		}()
	}
	wg.Wait()

	if _, err := uc.Open(context.Background(), policyURL); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Fatalf("expected a single fetch, got %d", n)
	}
	for _, s := range sessions {
		if s != sessions[0] {
			t.Fatalf("expected every caller to share one session")
		}
	}
}

func TestOpenSharedBuildSurvivesCancelledCaller(t *testing.T) {
	fetcher := &fetcherFake{body: []byte("%PDF-1.4 policy"), delay: 50 * time.Millisecond}
	uc := newTestDocumentService(t, fetcher, nil, nil)

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	shortErr := make(chan error, 1)
	go func() {
		_, err := uc.Open(shortCtx, policyURL)
		shortErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for fetcher.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("build never started")
		}
		time.Sleep(time.Millisecond)
	}

	s, err := uc.Open(context.Background(), policyURL)
	if err != nil {
		t.Fatalf("Open() for a live caller error = %v", err)
	}
	if s == nil || s.IndexedCount == 0 {
		t.Fatalf("expected an indexed session, got %+v", s)
	}
	if err := <-shortErr; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the short caller to time out, got %v", err)
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Fatalf("expected one shared fetch, got %d", n)
	}
	if _, ok := uc.sessions.Get(policyURL); !ok {
		t.Fatalf("expected the shared build to be cached")
	}
}

func TestOpenRebuildsWhenNothingWasEmbedded(t *testing.T) {
	fetcher := &fetcherFake{body: []byte("%PDF-1.4 policy")}
	registry := &registryFake{}
	events := &eventsFake{}
	embedder := &switchEmbedder{}
	embedder.down.Store(true)
	uc := newTestDocumentServiceWith(t, embedder, fetcher, registry, events)
	questions := []string{"What is the grace period?"}

	answers, err := uc.AnswerDocumentQuestions(context.Background(), policyURL, questions)
	if err != nil {
		t.Fatalf("AnswerDocumentQuestions() during outage error = %v", err)
	}
	if answers[0] != domain.NotAvailableAnswer {
		t.Fatalf("expected not-available answer during outage, got %q", answers[0])
	}
	if _, ok := uc.sessions.Get(policyURL); ok {
		t.Fatalf("a session with no embedded chunks must not be cached")
	}
	if len(registry.statusCalls) != 1 || registry.statusCalls[0].status != domain.StatusFailed || registry.statusCalls[0].errMsg == "" {
		t.Fatalf("expected failed status, got %+v", registry.statusCalls)
	}
	if len(events.indexed) != 0 {
		t.Fatalf("no indexed event expected, got %+v", events.indexed)
	}

	embedder.down.Store(false)
	answers, err = uc.AnswerDocumentQuestions(context.Background(), policyURL, questions)
	if err != nil {
		t.Fatalf("AnswerDocumentQuestions() after recovery error = %v", err)
	}
	if answers[0] != "The grace period is 30 days." {
		t.Fatalf("expected a grounded answer after recovery, got %q", answers[0])
	}
	if n := fetcher.calls.Load(); n != 2 {
		t.Fatalf("expected a rebuild after recovery, got %d fetches", n)
	}
	last := registry.statusCalls[len(registry.statusCalls)-1]
	if last.status != domain.StatusReady || last.indexed == 0 {
		t.Fatalf("expected ready status after rebuild, got %+v", last)
	}
}

func TestOpenMarksFailedOnProcessingError(t *testing.T) {
	fetcher := &fetcherFake{body: []byte("%PDF-1.4 policy")}
	registry := &registryFake{}
	p := newTestPipeline(t, hashEmbedder{}, &completionFake{}, withExtractor(extractorFake{err: domain.WrapError(domain.ErrInvalidPDF, "extract", errors.New("bad xref"))}))
	uc := NewDocumentService(fetcher, p, &sessionCacheFake{}, registry, nil)

	_, err := uc.Open(context.Background(), policyURL)
	if !domain.IsKind(err, domain.ErrInvalidPDF) {
		t.Fatalf("expected invalid pdf, got %v", err)
	}
	if len(registry.statusCalls) != 1 || registry.statusCalls[0].status != domain.StatusFailed || registry.statusCalls[0].errMsg == "" {
		t.Fatalf("expected failed status with message, got %+v", registry.statusCalls)
	}
}

func TestOpenPropagatesFetchErrors(t *testing.T) {
	fetcher := &fetcherFake{err: domain.WrapError(domain.ErrDocumentNotFound, "fetch", errors.New("404"))}
	registry := &registryFake{}
	uc := newTestDocumentService(t, fetcher, registry, nil)

	_, err := uc.AnswerDocumentQuestions(context.Background(), policyURL, []string{"q"})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(registry.records) != 0 {
		t.Fatalf("nothing should be registered for a failed fetch")
	}
}

func TestDocumentServiceValidatesInput(t *testing.T) {
	uc := newTestDocumentService(t, &fetcherFake{}, nil, nil)

	if _, err := uc.AnswerDocumentQuestions(context.Background(), policyURL, nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for no questions, got %v", err)
	}
	if _, err := uc.AnswerDocumentQuestions(context.Background(), " ", []string{"q"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty url, got %v", err)
	}
	if _, err := uc.AnswerDocumentQuery(context.Background(), policyURL, ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty question, got %v", err)
	}
}

func TestRecordIDIsStable(t *testing.T) {
	if RecordID(policyURL) != RecordID(policyURL) || RecordID(policyURL) == RecordID(policyURL+"?v=2") {
		t.Fatalf("record ids must be stable per url and distinct across urls")
	}
}
