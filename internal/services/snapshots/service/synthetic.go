package service

import (
	"context"
	"fmt"
	"math/rand"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/snapshots/domain"
)

// DefaultSeed is the demo generator seed
const DefaultSeed = 42

// Synthetic is a deterministic seeded snapshot source for demo runs and
// reproducibility checks. The same seed yields a bit-for-bit identical
// snapshot: generation order is baseline frame rows, current frame rows,
// predicted labels, actual labels, baseline scores, current scores
type Synthetic struct {
	Seed             int64
	Rows             int
	FeatureCount     int
	BaselineAccuracy float64
}

// NewSynthetic constructs a demo source mirroring the standard demo shape:
// 100 rows over feature_1..feature_5 with a recorded baseline accuracy of 0.95
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{Seed: seed, Rows: 100, FeatureCount: 5, BaselineAccuracy: 0.95}
}

// Snapshot implements domain.ReaderPort
func (s *Synthetic) Snapshot(_ context.Context, ref domain.Ref) (domain.Snapshot, error) {
	if s.Rows < 2 || s.FeatureCount < 1 {
		return domain.Snapshot{}, perr.InsufficientDataf(
			"synthetic source needs at least 2 rows and 1 feature, got %d and %d", s.Rows, s.FeatureCount)
	}

	rng := rand.New(rand.NewSource(s.Seed))

	features := make([]string, s.FeatureCount)
	for i := range features {
		features[i] = fmt.Sprintf("feature_%d", i+1)
	}

	baseline, err := normalFrame(rng, features, s.Rows)
	if err != nil {
		return domain.Snapshot{}, err
	}
	current, err := normalFrame(rng, features, s.Rows)
	if err != nil {
		return domain.Snapshot{}, err
	}

	predicted := make([]int, s.Rows)
	for i := range predicted {
		predicted[i] = rng.Intn(2)
	}
	actuals := make([]int, s.Rows)
	for i := range actuals {
		actuals[i] = rng.Intn(2)
	}

	return domain.Snapshot{
		Ref:              ref,
		Features:         features,
		Baseline:         baseline,
		Current:          current,
		BaselineAccuracy: s.BaselineAccuracy,
		Predicted:        predicted,
		Actuals:          actuals,
		BaselineScores:   uniformDraws(rng, s.Rows),
		CurrentScores:    uniformDraws(rng, s.Rows),
	}, nil
}

func normalFrame(rng *rand.Rand, features []string, rows int) (drift.Frame, error) {
	data := make([][]float64, rows)
	for i := range data {
		row := make([]float64, len(features))
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		data[i] = row
	}
	return drift.NewFrame(features, data)
}

func uniformDraws(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}
