// Package service implements the runs API service
package service

import (
	"context"
	"sync"
	"time"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/api/runs/domain"
	monitordom "driftwatch/internal/services/monitor/domain"
	snapdom "driftwatch/internal/services/snapshots/domain"
)

// Service is the runs API surface
type Service interface {
	Trigger(ctx context.Context, in domain.RunInput) (domain.RunResponse, error)
	LatestReport(ctx context.Context, modelID, environment string) (domain.ReportResponse, error)
}

type service struct {
	runner monitordom.RunnerPort

	mu     sync.RWMutex
	latest map[string]cached
}

type cached struct {
	rep drift.Report
	at  time.Time
}

// New constructs the runs service
func New(runner monitordom.RunnerPort) Service {
	return &service{runner: runner, latest: make(map[string]cached)}
}

// Trigger runs the model once and returns the summary.
// Any run that produced a report refreshes the latest-report cache, a
// publish failure included, so the report stays retrievable
func (s *service) Trigger(ctx context.Context, in domain.RunInput) (domain.RunResponse, error) {
	ref := snapdom.Ref{ModelID: in.ModelID, Environment: in.Environment}
	sum, err := s.runner.Run(ctx, ref)

	if sum.Report != nil {
		s.mu.Lock()
		s.latest[ref.String()] = cached{rep: *sum.Report, at: sum.FinishedAt}
		s.mu.Unlock()
	}
	if err != nil {
		return domain.RunResponse{}, err
	}

	return toResponse(sum), nil
}

// LatestReport returns the most recent computed report for the deployment
func (s *service) LatestReport(_ context.Context, modelID, environment string) (domain.ReportResponse, error) {
	ref := snapdom.Ref{ModelID: modelID, Environment: environment}

	s.mu.RLock()
	c, ok := s.latest[ref.String()]
	s.mu.RUnlock()
	if !ok {
		return domain.ReportResponse{}, perr.NotFoundf("no report for %s", ref)
	}

	return domain.ReportResponse{
		ModelID:     modelID,
		Environment: environment,
		GeneratedAt: c.at.UTC().Format(time.RFC3339),
		Report:      c.rep,
	}, nil
}

func toResponse(sum monitordom.RunSummary) domain.RunResponse {
	return domain.RunResponse{
		RunID:       sum.ID.String(),
		ModelID:     sum.Ref.ModelID,
		Environment: sum.Ref.Environment,
		Status:      string(sum.Status),
		Published:   sum.Published,
		MetricCount: sum.MetricCount,
		StartedAt:   sum.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:  sum.FinishedAt.UTC().Format(time.RFC3339),
		Summary:     sum.Summary,
		Report:      sum.Report,
	}
}
