package domain

import (
	"context"
	"time"
)

// ReaderPort supplies the datasets one monitoring run consumes
type ReaderPort interface {
	// Snapshot assembles the baseline and current windows for ref.
	// Unknown refs fail with a not found error; acquisition failures carry
	// the data source code
	Snapshot(ctx context.Context, ref Ref) (Snapshot, error)
}

// CatalogPort lists the monitored-models catalog for scheduled runs
type CatalogPort interface {
	// Monitored returns the enabled catalog entries
	Monitored(ctx context.Context) ([]ModelSpec, error)
}

// RecorderPort stamps catalog bookkeeping after completed runs
type RecorderPort interface {
	TouchLastRun(ctx context.Context, ref Ref, at time.Time) error
}
