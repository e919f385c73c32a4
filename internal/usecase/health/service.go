// Package health aggregates dependency probes for the readiness endpoint:
// artifact storage, which index loads come from, and the embedding provider,
// without which no question can be answered.
package health

import (
	"context"
	"time"
)

// Status is the aggregated health status.
type Status string

const (
	// Healthy indicates all probes passed.
	Healthy Status = "ok"
	// Degraded indicates at least one probe failed.
	Degraded Status = "degraded"
)

// CheckStatus is one component's probe outcome.
type CheckStatus string

const (
	// CheckOK indicates a passing probe.
	CheckOK CheckStatus = "ok"
	// CheckError indicates a failing probe.
	CheckError CheckStatus = "error"
)

// CheckResult reports one probe with its round-trip latency. Probe errors are
// not serialized: /health is auth-exempt and raw errors can leak backend
// addresses.
type CheckResult struct {
	Status    CheckStatus `json:"status"`
	LatencyMs int64       `json:"latency_ms"`
}

// Report aggregates probe results for the transport layer.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service probes the dependencies the query pipeline needs.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check probes every dependency. Any failing probe degrades the report.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		"storage": probe(ctx, s.store.Ping),
	}
	if s.embedding != nil {
		checks["embedding"] = probe(ctx, s.embedding.HealthCheck)
	}

	status := Healthy
	for _, c := range checks {
		if c.Status == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	start := time.Now()
	err := fn(ctx)
	res := CheckResult{Status: CheckOK, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = CheckError
	}
	return res
}
