// Package drift implements threshold-based drift detection for monitored
// models: data drift over input features, concept drift against a recorded
// baseline accuracy, and prediction drift over model output distributions
package drift

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"driftwatch/internal/core/stattest"
	perr "driftwatch/internal/platform/errors"
)

// DefaultThreshold is the significance threshold used when none is configured
const DefaultThreshold = 0.10

// Config carries the detector's significance threshold, fixed for the
// instance's lifetime. Nominal range is (0,1); 0 and 1 are legal edge values
type Config struct {
	Threshold float64
}

// Detector runs the three drift detections under one shared threshold.
// It holds no dataset state between calls; every detection is pure given its
// arguments. Per-model thresholds are handled by constructing one Detector
// per threshold, not by varying it per call
type Detector struct {
	threshold float64
}

// New constructs a Detector with the given config
func New(cfg Config) *Detector {
	return &Detector{threshold: cfg.Threshold}
}

// Threshold returns the configured significance threshold
func (d *Detector) Threshold() float64 { return d.threshold }

// DataDrift tests every feature column of current against baseline with a
// two-sample KS test. A feature is affected iff its p-value is strictly below
// the threshold; detected means at least one affected feature. Score is
// 100 times the maximum statistic over all features, affected or not, so
// severity tracks the single largest observed shift regardless of its own
// significance.
//
// PValue is the p-value of whichever feature was evaluated last; TopPValue is
// the p-value of the feature with the maximum statistic
func (d *Detector) DataDrift(current, baseline Frame) (DataResult, error) {
	if err := alignFrames(current, baseline); err != nil {
		return DataResult{}, err
	}
	if len(current.Features) == 0 {
		return DataResult{}, perr.InsufficientDataf("data drift needs at least one feature")
	}

	affected := []string{}
	maxStat := -1.0
	var lastP, topP float64
	for _, name := range current.Features {
		res, err := stattest.TwoSampleKS(current.Columns[name], baseline.Columns[name])
		if err != nil {
			return DataResult{}, perr.WithField(err, name)
		}
		if res.PValue < d.threshold {
			affected = append(affected, name)
		}
		if res.Statistic > maxStat {
			maxStat = res.Statistic
			topP = res.PValue
		}
		lastP = res.PValue
	}

	return DataResult{
		Detected:         len(affected) > 0,
		Score:            100 * maxStat,
		AffectedFeatures: affected,
		PValue:           lastP,
		TopPValue:        topP,
	}, nil
}

// ConceptDrift compares observed accuracy over aligned prediction/actual
// label pairs against an externally recorded baseline accuracy. Score is
// 100 times the absolute accuracy delta; detected means the delta strictly
// exceeds the threshold
func (d *Detector) ConceptDrift(predictions, actuals []int, baselineAccuracy float64) (ConceptResult, error) {
	if len(predictions) == 0 || len(actuals) == 0 {
		return ConceptResult{}, perr.InsufficientDataf("concept drift needs at least one prediction/actual pair")
	}
	if len(predictions) != len(actuals) {
		return ConceptResult{}, perr.SchemaMismatchf(
			"predictions and actuals must align, got %d and %d", len(predictions), len(actuals),
		)
	}

	match := 0
	for i := range predictions {
		if predictions[i] == actuals[i] {
			match++
		}
	}
	accuracy := float64(match) / float64(len(predictions))
	delta := math.Abs(baselineAccuracy - accuracy)

	return ConceptResult{
		Detected:         delta > d.threshold,
		Score:            100 * delta,
		CurrentAccuracy:  accuracy,
		BaselineAccuracy: baselineAccuracy,
	}, nil
}

// PredictionDrift compares the mean of current model outputs against the
// mean of baseline outputs. The sequences need not be the same length. Score
// is 100 times the magnitude of the mean shift relative to the baseline
// mean, so the baseline sign never matters; detected means the relative
// shift strictly exceeds the threshold. A zero baseline mean is degenerate
// and fails rather than producing NaN or Inf
func (d *Detector) PredictionDrift(current, baseline []float64) (PredictionResult, error) {
	if len(current) == 0 || len(baseline) == 0 {
		return PredictionResult{}, perr.InsufficientDataf(
			"prediction drift needs non-empty score sequences, got %d current and %d baseline",
			len(current), len(baseline),
		)
	}

	curMean := stat.Mean(current, nil)
	baseMean := stat.Mean(baseline, nil)
	if baseMean == 0 {
		return PredictionResult{}, perr.DegenerateBaselinef("baseline mean is zero")
	}
	ratio := math.Abs((curMean - baseMean) / baseMean)

	return PredictionResult{
		Detected:     ratio > d.threshold,
		Score:        100 * ratio,
		CurrentMean:  curMean,
		BaselineMean: baseMean,
	}, nil
}
