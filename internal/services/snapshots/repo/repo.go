// Package repo provides storage-backed repositories for snapshot acquisition:
// the monitored-models catalog in Postgres and observation windows in ClickHouse
package repo

import (
	"context"
	"time"

	"driftwatch/internal/modkit/repokit"
	"driftwatch/internal/platform/store"
	"driftwatch/internal/services/snapshots/domain"
)

type binder struct{}

// NewPG constructs a repo binder for the Postgres catalog
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the monitored-models catalog repository
type Storage interface {
	// Get returns the catalog row for ref, not found when absent
	Get(ctx context.Context, ref domain.Ref) (domain.ModelSpec, error)
	// Monitored returns enabled rows ordered by (model_id, environment)
	Monitored(ctx context.Context) ([]domain.ModelSpec, error)
	// TouchLastRun stamps the catalog row after a completed run
	TouchLastRun(ctx context.Context, ref domain.Ref, at time.Time) error
}

type pg struct{ q repokit.Queryer }

const specColumns = `
	model_id,
	environment,
	features,
	baseline_accuracy,
	threshold,
	baseline_from,
	baseline_to,
	current_window_seconds,
	enabled,
	last_run_at`

func scanSpec(r store.Row) (domain.ModelSpec, error) {
	var (
		spec       domain.ModelSpec
		windowSecs int64
	)
	if err := r.Scan(
		&spec.Ref.ModelID,
		&spec.Ref.Environment,
		&spec.Features,
		&spec.BaselineAccuracy,
		&spec.Threshold,
		&spec.BaselineFrom,
		&spec.BaselineTo,
		&windowSecs,
		&spec.Enabled,
		&spec.LastRunAt,
	); err != nil {
		return domain.ModelSpec{}, err
	}
	spec.CurrentWindow = time.Duration(windowSecs) * time.Second
	return spec, nil
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, ref domain.Ref) (domain.ModelSpec, error) {
	return store.One(ctx, s.q, scanSpec, `
		SELECT `+specColumns+`
		FROM monitored_models
		WHERE model_id = $1 AND environment = $2
	`, ref.ModelID, ref.Environment)
}

// Monitored implements Storage
func (s *pg) Monitored(ctx context.Context) ([]domain.ModelSpec, error) {
	return store.Many(ctx, s.q, scanSpec, `
		SELECT `+specColumns+`
		FROM monitored_models
		WHERE enabled
		ORDER BY model_id, environment
	`)
}

// TouchLastRun implements Storage
func (s *pg) TouchLastRun(ctx context.Context, ref domain.Ref, at time.Time) error {
	return store.ExecOne(ctx, s.q, `
		UPDATE monitored_models
		SET last_run_at = $3
		WHERE model_id = $1 AND environment = $2
	`, ref.ModelID, ref.Environment, at)
}
