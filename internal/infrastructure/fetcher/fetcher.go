package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/extractor/pdf"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/resilience"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; policy-qa/1.0)"

type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	MaxBytes    int64
	UserAgent   string
}

// Fetcher downloads PDF documents over HTTP(S) with a per-attempt timeout
// and bounded exponential retry.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{},
		executor:   resilience.NewExecutor(resilience.FetchConfig(cfg.MaxAttempts)),
	}
}

// WithExecutor replaces the retry policy; used by tests to shorten backoff.
func (f *Fetcher) WithExecutor(executor *resilience.Executor) *Fetcher {
	if executor != nil {
		f.executor = executor
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchedDocument, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := resilience.Call(ctx, f.executor, "document.fetch", func(callCtx context.Context) (*domain.FetchedDocument, error) {
		return f.fetchOnce(callCtx, target)
	}, classifyFetchError)
	if err != nil {
		if isKnownKind(err) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrDocumentFetch, "fetch document", err)
	}
	return doc, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string) (*domain.FetchedDocument, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build fetch request", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("pdf document not found at %s", target))
	case resp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &resilience.HTTPStatusError{
			Service:    "document",
			Operation:  "fetch",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: resilience.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, domain.WrapError(domain.ErrDocumentFetch, "fetch document", fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBytes))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !pdf.HasMagic(body) && !strings.Contains(contentType, "application/pdf") {
		return nil, domain.WrapError(domain.ErrNotPDF, "fetch document", fmt.Errorf("content-type %q", contentType))
	}

	return &domain.FetchedDocument{
		URL:         target,
		ContentType: contentType,
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func normalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "fetch document", errors.New("documents url is required"))
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "fetch document", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", domain.WrapError(domain.ErrInvalidInput, "fetch document", fmt.Errorf("unsupported url scheme %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "fetch document", errors.New("url host is empty"))
	}
	return parsed.String(), nil
}

func classifyFetchError(err error) resilience.ErrorClassification {
	if isKnownKind(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ClassifyHTTPError(err)
}

func isKnownKind(err error) bool {
	for _, kind := range []error{
		domain.ErrDocumentNotFound,
		domain.ErrDocumentFetch,
		domain.ErrNotPDF,
		domain.ErrInvalidInput,
	} {
		if domain.IsKind(err, kind) {
			return true
		}
	}
	return false
}
