// Package service implements snapshot acquisition over the monitored-models
// catalog and the observation store
package service

import (
	"context"
	"time"

	"driftwatch/internal/core/drift"
	"driftwatch/internal/modkit/repokit"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/store"
	"driftwatch/internal/services/snapshots/domain"
	"driftwatch/internal/services/snapshots/repo"
)

// WindowReader scans one observation window
type WindowReader interface {
	Window(ctx context.Context, ref domain.Ref, from, to time.Time) ([]domain.Observation, error)
}

// Config for the snapshots service
type Config struct {
	// CurrentWindow applies when the catalog row carries none
	CurrentWindow time.Duration
}

// Service implements domain.ReaderPort, domain.CatalogPort and
// domain.RecorderPort over Postgres catalog rows and ClickHouse observations
type Service struct {
	DB      repokit.TxRunner
	Binder  repokit.Binder[repo.Storage]
	Windows WindowReader
	Cfg     Config
}

// test seam
var nowUTC = func() time.Time { return time.Now().UTC() }

// New constructs a store-backed snapshots service
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], w WindowReader, cfg Config) *Service {
	if cfg.CurrentWindow <= 0 {
		cfg.CurrentWindow = 24 * time.Hour
	}
	return &Service{DB: db, Binder: b, Windows: w, Cfg: cfg}
}

// Snapshot implements domain.ReaderPort
func (s *Service) Snapshot(ctx context.Context, ref domain.Ref) (domain.Snapshot, error) {
	var spec domain.ModelSpec
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		spec, err = s.Binder.Bind(q).Get(ctx, ref)
		return err
	})
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Snapshot{}, perr.NotFoundf("model %s is not monitored", ref)
		}
		return domain.Snapshot{}, perr.DataSourceWrap(err, "catalog read for %s", ref)
	}

	baseObs, err := s.Windows.Window(ctx, ref, spec.BaselineFrom, spec.BaselineTo)
	if err != nil {
		return domain.Snapshot{}, perr.DataSourceWrap(err, "baseline window for %s", ref)
	}

	window := spec.CurrentWindow
	if window <= 0 {
		window = s.Cfg.CurrentWindow
	}
	now := nowUTC()
	curObs, err := s.Windows.Window(ctx, ref, now.Add(-window), now)
	if err != nil {
		return domain.Snapshot{}, perr.DataSourceWrap(err, "current window for %s", ref)
	}

	baseline, err := frameOf(spec.Features, baseObs)
	if err != nil {
		return domain.Snapshot{}, perr.WithOp(err, "baseline")
	}
	current, err := frameOf(spec.Features, curObs)
	if err != nil {
		return domain.Snapshot{}, perr.WithOp(err, "current")
	}

	snap := domain.Snapshot{
		Ref:              ref,
		Features:         spec.Features,
		Baseline:         baseline,
		Current:          current,
		BaselineAccuracy: spec.BaselineAccuracy,
		Threshold:        spec.Threshold,
		BaselineScores:   scoresOf(baseObs),
		CurrentScores:    scoresOf(curObs),
	}
	// concept pairs only exist where ground truth has arrived
	for _, o := range curObs {
		if o.Actual == nil {
			continue
		}
		snap.Predicted = append(snap.Predicted, int(o.Predicted))
		snap.Actuals = append(snap.Actuals, int(*o.Actual))
	}
	return snap, nil
}

// Monitored implements domain.CatalogPort
func (s *Service) Monitored(ctx context.Context) ([]domain.ModelSpec, error) {
	var specs []domain.ModelSpec
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		specs, err = s.Binder.Bind(q).Monitored(ctx)
		return err
	})
	if err != nil {
		return nil, perr.DataSourceWrap(err, "catalog list")
	}
	return specs, nil
}

// TouchLastRun implements domain.RecorderPort
func (s *Service) TouchLastRun(ctx context.Context, ref domain.Ref, at time.Time) error {
	return store.Run(ctx, s.DB, func(ctx context.Context, q store.RowQuerier) error {
		return s.Binder.Bind(q).TouchLastRun(ctx, ref, at)
	})
}

// frameOf lays observations out as a frame in the catalog's feature order.
// An observation missing a declared feature is an acquisition integrity
// failure, not a detector concern
func frameOf(features []string, obs []domain.Observation) (drift.Frame, error) {
	rows := make([][]float64, len(obs))
	for i, o := range obs {
		row := make([]float64, len(features))
		for j, name := range features {
			v, ok := o.Features[name]
			if !ok {
				return drift.Frame{}, perr.DataSourcef("observation %d is missing feature %q", i, name)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return drift.NewFrame(features, rows)
}

func scoresOf(obs []domain.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Score
	}
	return out
}
