// Package chi exposes the query service over HTTP: a single answer endpoint
// plus health and metrics, with domain sentinels mapped onto statuses through
// an ordered handler table.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
	healthuc "github.com/kailas-cloud/reposcout/internal/usecase/health"
	queryuc "github.com/kailas-cloud/reposcout/internal/usecase/query"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the query API.
type Server struct {
	query         *queryuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(query *queryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		query:  query,
		health: health,
		logger: logger,
	}
	// Order matters: the first matching sentinel wins; anything unmatched is
	// a 500 with no internals exposed.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/v1/query", s.AnswerQuery)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// queryRequest is the POST /api/v1/query body.
type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// sourceItem is one retrieved repository: the record flattened inline, plus
// its distance and derived similarity score.
type sourceItem struct {
	domain.Record
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

// queryResponse is the POST /api/v1/query response.
type queryResponse struct {
	Answer   string       `json:"answer"`
	Sources  []sourceItem `json:"sources"`
	Query    string       `json:"query"`
	Degraded bool         `json:"degraded"`
	TookMs   int64        `json:"took_ms"`
}

// healthResponse is the GET /health response.
type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// errorResponse is the error body for every non-2xx status.
type errorResponse struct {
	Error string `json:"error"`
}

// AnswerQuery handles POST /api/v1/query.
func (s *Server) AnswerQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(r.Context())

	answer, err := s.query.Answer(ctx, queryuc.Params{Query: req.Query, K: req.K})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, queryResponseFrom(answer, req.Query, time.Since(start)))
}

func queryResponseFrom(a domain.Answer, query string, took time.Duration) queryResponse {
	sources := make([]sourceItem, len(a.Sources))
	for i, src := range a.Sources {
		sources[i] = sourceItem{
			Record:   src.Record,
			Distance: src.Distance,
			Score:    src.Score(),
		}
	}
	return queryResponse{
		Answer:   a.Text,
		Sources:  sources,
		Query:    query,
		Degraded: a.Degraded,
		TookMs:   took.Milliseconds(),
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if usage == nil || !usage.Used {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.SynthesisTokens > 0 {
		w.Header().Set("X-Synthesis-Tokens", strconv.Itoa(usage.SynthesisTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a client-safe message. Validation failures carry
// their full detail, since they are built from the request itself; everything
// else exposes only the sentinel text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrSynthesisUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
