package domain

import (
	"context"

	snapdom "driftwatch/internal/services/snapshots/domain"
)

// RunnerPort is the external port for monitoring runs
type RunnerPort interface {
	Run(ctx context.Context, ref snapdom.Ref) (RunSummary, error)
}

// EmitterPort publishes one batch of metrics to the telemetry backend
type EmitterPort interface {
	Emit(ctx context.Context, batch []Metric) error
}

// HistoryPort records terminal run summaries for later inspection
type HistoryPort interface {
	Record(ctx context.Context, sum RunSummary) error
}

// Ports are dependencies injected into the monitor module
type Ports struct {
	Snapshots snapdom.ReaderPort   // required
	Catalog   snapdom.CatalogPort  // required for scheduled runs
	Recorder  snapdom.RecorderPort // optional, nil skips last-run bookkeeping
	Emitter   EmitterPort          // required
	History   HistoryPort          // optional, nil skips run history
}
