// Package domain defines core types and interfaces for snapshot acquisition
package domain

import (
	"time"

	"driftwatch/internal/core/drift"
)

// Ref identifies one monitored deployment
type Ref struct {
	ModelID     string `json:"model_id"`
	Environment string `json:"environment"`
}

// String renders the ref as model@environment
func (r Ref) String() string { return r.ModelID + "@" + r.Environment }

// ModelSpec is one catalog row describing how a model is monitored
type ModelSpec struct {
	Ref              Ref
	Features         []string // evaluation order
	BaselineAccuracy float64  // recorded figure, never computed here
	Threshold        *float64 // per-model override, nil = configured default
	BaselineFrom     time.Time
	BaselineTo       time.Time
	CurrentWindow    time.Duration
	Enabled          bool
	LastRunAt        *time.Time
}

// Observation is one scored inference pulled from the observation store
type Observation struct {
	RecordedAt time.Time
	Features   map[string]float64
	Score      float64 // model output score
	Predicted  int64   // predicted class label
	Actual     *int64  // ground-truth label, when known
}

// Snapshot carries everything one monitoring run consumes for a Ref.
// Baseline and Current share the feature order in Features; Predicted and
// Actuals are aligned pairs from the current window
type Snapshot struct {
	Ref              Ref
	Features         []string
	Baseline         drift.Frame
	Current          drift.Frame
	BaselineAccuracy float64
	Threshold        *float64 // catalog override, nil = caller's default
	Predicted        []int
	Actuals          []int
	BaselineScores   []float64
	CurrentScores    []float64
}
