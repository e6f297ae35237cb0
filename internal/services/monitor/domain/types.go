// Package domain defines the core types and interfaces for the monitor service
package domain

import (
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/core/drift"
	snapdom "driftwatch/internal/services/snapshots/domain"
)

// Metric is one telemetry point bound for the backend
type Metric struct {
	Name      string // canonical {model_id}/{metric_key}
	Value     float64
	Unit      string
	Timestamp time.Time
}

// RunStatus tracks a monitoring run through its lifecycle
type RunStatus string

// Run states in transition order; Completed and Failed are terminal
const (
	StatusInitializing RunStatus = "initializing"
	StatusDetecting    RunStatus = "detecting"
	StatusPublishing   RunStatus = "publishing"
	StatusCompleted    RunStatus = "completed"
	StatusFailed       RunStatus = "failed"
)

// Terminal reports whether the status accepts no further transitions
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RunSummary is the terminal record of one monitoring run
type RunSummary struct {
	ID          uuid.UUID
	Ref         snapdom.Ref
	Status      RunStatus
	Report      *drift.Report // nil only when detection never produced one
	Published   bool
	MetricCount int
	StartedAt   time.Time
	FinishedAt  time.Time
	Summary     string
}
