package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/souviksenapati/TejastraX/internal/config"
	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
	"github.com/souviksenapati/TejastraX/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 1 << 20
)

// RecordReader looks up registry entries for GET /v1/documents/{id}.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error)
}

type Router struct {
	cfg       config.Config
	docs      ports.DocumentQuestionAnswerer
	records   RecordReader
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
}

type batchRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type batchResponse struct {
	Answers []string `json:"answers"`
}

type queryRequest struct {
	Documents string `json:"documents"`
	Question  string `json:"question"`
}

// NewRouter builds the API router. records and httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	docs ports.DocumentQuestionAnswerer,
	records RecordReader,
	httpMetrics *metrics.HTTPServerMetrics,
) (*Router, error) {
	if docs == nil {
		return nil, errors.New("http router: document answerer is required")
	}
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Router{
		cfg:       cfg,
		docs:      docs,
		records:   records,
		metrics:   httpMetrics,
		validator: validator,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/hackrx/run", rt.runBatch)
	api.HandleFunc("/hackrx/run/export", rt.exportBatch)
	api.HandleFunc("/v1/query", rt.querySingle)
	api.HandleFunc("/v1/documents/", rt.getDocument)

	var protected http.Handler = rt.validator.middleware(api)
	protected = bearerAuthMiddleware(protected, rt.cfg.APIBearerToken)
	protected = backpressureMiddleware(protected, rt.cfg.APIMaxInFlight, 5*time.Second)
	protected = rateLimitMiddleware(protected, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.Handle("/hackrx/", protected)
	mux.Handle("/v1/", protected)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) runBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	answers, ok := rt.answer(w, r, req, "/hackrx/run")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Answers: answers})
}

func (rt *Router) exportBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	answers, ok := rt.answer(w, r, req, "/hackrx/run/export")
	if !ok {
		return
	}

	body, err := buildAnswerWorkbook(req.Documents, req.Questions, answers)
	if err != nil {
		slog.Error("export_workbook_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	w.Header().Set("Content-Type", workbookContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="answers.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request, req batchRequest, endpoint string) ([]string, bool) {
	ctx, cancel := rt.requestContext(r)
	defer cancel()

	if rt.metrics != nil {
		rt.metrics.RecordQuestions(serviceName, endpoint, len(req.Questions))
	}
	answers, err := rt.docs.AnswerDocumentQuestions(ctx, req.Documents, req.Questions)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return nil, false
	}
	return answers, true
}

func (rt *Router) querySingle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := rt.requestContext(r)
	defer cancel()

	if rt.metrics != nil {
		rt.metrics.RecordQuestions(serviceName, "/v1/query", 1)
	}
	result, err := rt.docs.AnswerDocumentQuery(ctx, req.Documents, req.Question)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/documents/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}
	if rt.records == nil {
		writeError(w, http.StatusNotFound, "document registry is not configured")
		return
	}

	record, err := rt.records.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if rt.cfg.APIRequestTimeoutS <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), time.Duration(rt.cfg.APIRequestTimeoutS)*time.Second)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("write_json_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
