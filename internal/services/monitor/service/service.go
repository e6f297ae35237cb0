// Package service implements the monitor service
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/logger"
	"driftwatch/internal/services/monitor/domain"
	snapdom "driftwatch/internal/services/snapshots/domain"
)

// Config for the monitor service
type Config struct {
	Threshold  float64       // default drift threshold, catalog rows may override
	Concurrent bool          // run the three detections in parallel
	RunTimeout time.Duration // 0 = no per-run deadline
}

// Service implements domain.RunnerPort
type Service struct {
	Snapshots snapdom.ReaderPort
	Recorder  snapdom.RecorderPort // optional
	History   domain.HistoryPort   // optional
	Pub       *Publisher
	Cfg       Config
}

// New constructs a new monitor service
func New(p domain.Ports, cfg Config) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = drift.DefaultThreshold
	}
	return &Service{
		Snapshots: p.Snapshots,
		Recorder:  p.Recorder,
		History:   p.History,
		Pub:       NewPublisher(p.Emitter),
		Cfg:       cfg,
	}
}

// Run executes one monitoring run for the ref: acquire the snapshot, run the
// three detections, publish the flattened report.
// A publish failure still returns the complete report in the summary so the
// caller can retry publishing without recomputing drift
func (s *Service) Run(ctx context.Context, ref snapdom.Ref) (domain.RunSummary, error) {
	runID := uuid.New()
	sum := domain.RunSummary{
		ID:        runID,
		Ref:       ref,
		Status:    domain.StatusInitializing,
		StartedAt: nowUTC(),
	}

	ctx = logger.WithRun(ctx, runID.String(), ref.ModelID, ref.Environment)
	if s.Cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Cfg.RunTimeout)
		defer cancel()
	}
	log := logger.C(ctx)
	log.Debug().Str("status", string(sum.Status)).Msg("run state")

	snap, err := s.Snapshots.Snapshot(ctx, ref)
	if err != nil {
		return s.fail(ctx, sum, err)
	}

	sum.Status = domain.StatusDetecting
	log.Debug().Str("status", string(sum.Status)).Msg("run state")

	rep, err := s.detect(ctx, snap)
	if err != nil {
		return s.fail(ctx, sum, err)
	}
	sum.Report = &rep
	sum.Summary = rep.Summary()
	countDetections(rep)

	sum.Status = domain.StatusPublishing
	log.Debug().Str("status", string(sum.Status)).Msg("run state")

	n, err := s.Pub.Publish(ctx, ref.ModelID, rep)
	if err != nil {
		publishFailures.Inc()
		return s.fail(ctx, sum, err)
	}
	sum.Published = true
	sum.MetricCount = n

	sum.Status = domain.StatusCompleted
	s.finish(ctx, &sum)
	log.Info().Str("summary", sum.Summary).Int("metrics", n).Msg("run completed")
	return sum, nil
}

// detect runs the three detections with the effective threshold and builds
// the report. All three must succeed; there are no partial reports
func (s *Service) detect(ctx context.Context, snap snapdom.Snapshot) (drift.Report, error) {
	threshold := s.Cfg.Threshold
	if snap.Threshold != nil {
		threshold = *snap.Threshold
	}
	det := drift.New(drift.Config{Threshold: threshold})

	var (
		data    drift.DataResult
		concept drift.ConceptResult
		pred    drift.PredictionResult
	)

	if s.Cfg.Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			if data, err = det.DataDrift(snap.Current, snap.Baseline); err != nil {
				return perr.WithOp(err, "data drift")
			}
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			if concept, err = det.ConceptDrift(snap.Predicted, snap.Actuals, snap.BaselineAccuracy); err != nil {
				return perr.WithOp(err, "concept drift")
			}
			return nil
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			if pred, err = det.PredictionDrift(snap.CurrentScores, snap.BaselineScores); err != nil {
				return perr.WithOp(err, "prediction drift")
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return drift.Report{}, err
		}
		return drift.NewReport(data, concept, pred), nil
	}

	var err error
	if data, err = det.DataDrift(snap.Current, snap.Baseline); err != nil {
		return drift.Report{}, perr.WithOp(err, "data drift")
	}
	if concept, err = det.ConceptDrift(snap.Predicted, snap.Actuals, snap.BaselineAccuracy); err != nil {
		return drift.Report{}, perr.WithOp(err, "concept drift")
	}
	if pred, err = det.PredictionDrift(snap.CurrentScores, snap.BaselineScores); err != nil {
		return drift.Report{}, perr.WithOp(err, "prediction drift")
	}
	return drift.NewReport(data, concept, pred), nil
}

func (s *Service) fail(ctx context.Context, sum domain.RunSummary, err error) (domain.RunSummary, error) {
	sum.Status = domain.StatusFailed
	s.finish(ctx, &sum)
	logger.C(ctx).Error().Err(err).Msg("run failed")
	return sum, err
}

// finish stamps the terminal state, records instrumentation and runs the
// optional bookkeeping ports. Bookkeeping failures never change the outcome
func (s *Service) finish(ctx context.Context, sum *domain.RunSummary) {
	sum.FinishedAt = nowUTC()
	runsTotal.WithLabelValues(string(sum.Status)).Inc()
	runDuration.Observe(sum.FinishedAt.Sub(sum.StartedAt).Seconds())

	if s.Recorder != nil {
		if err := s.Recorder.TouchLastRun(ctx, sum.Ref, sum.FinishedAt); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("last run bookkeeping failed")
		}
	}
	if s.History != nil {
		if err := s.History.Record(ctx, *sum); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("run history record failed")
		}
	}
}

func countDetections(rep drift.Report) {
	if rep.Data.Detected {
		driftDetected.WithLabelValues("data").Inc()
	}
	if rep.Concept.Detected {
		driftDetected.WithLabelValues("concept").Inc()
	}
	if rep.Prediction.Detected {
		driftDetected.WithLabelValues("prediction").Inc()
	}
}
