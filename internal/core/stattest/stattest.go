// Package stattest implements two-sample statistical hypothesis tests
package stattest

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	perr "driftwatch/internal/platform/errors"
)

// TestResult carries the distance statistic and its significance for one test
type TestResult struct {
	// Statistic is the maximum distance between the two empirical CDFs, in [0,1]
	Statistic float64
	// PValue is the significance for the null hypothesis that both samples
	// come from the same distribution, in [0,1]
	PValue float64
}

// TwoSampleKS runs the two-sample Kolmogorov-Smirnov test between current and
// baseline. The statistic is the supremum of the absolute difference between
// the two samples' empirical CDFs; the p-value uses the asymptotic
// approximation with the small-sample correction factor.
// Inputs are never mutated. Either sample with fewer than two elements fails
// with an insufficient data error.
func TwoSampleKS(current, baseline []float64) (TestResult, error) {
	if len(current) < 2 || len(baseline) < 2 {
		return TestResult{}, perr.InsufficientDataf(
			"ks test needs at least 2 samples per side, got %d current and %d baseline",
			len(current), len(baseline),
		)
	}

	// stat.KolmogorovSmirnov wants each dataset sorted
	cur := append([]float64(nil), current...)
	base := append([]float64(nil), baseline...)
	sort.Float64s(cur)
	sort.Float64s(base)

	d := stat.KolmogorovSmirnov(cur, nil, base, nil)
	return TestResult{Statistic: d, PValue: ksPValue(d, len(cur), len(base))}, nil
}

// ksPValue approximates the two-sided significance of statistic d for sample
// sizes n1 and n2: with ne = n1*n2/(n1+n2), the series is evaluated at
// lambda = (sqrt(ne) + 0.12 + 0.11/sqrt(ne)) * d
func ksPValue(d float64, n1, n2 int) float64 {
	ne := float64(n1) * float64(n2) / float64(n1+n2)
	sq := math.Sqrt(ne)
	return ksProb((sq + 0.12 + 0.11/sq) * d)
}

// ksProb evaluates Q_KS(lambda) = 2 * sum_{k>=1} (-1)^(k-1) * exp(-2 k^2 lambda^2)
func ksProb(lambda float64) float64 {
	const (
		eps1 = 0.001
		eps2 = 1e-8
	)
	a2 := -2 * lambda * lambda
	fac, sum, termPrev := 2.0, 0.0, 0.0
	for k := 1; k <= 100; k++ {
		term := fac * math.Exp(a2*float64(k)*float64(k))
		sum += term
		if math.Abs(term) <= eps1*termPrev || math.Abs(term) <= eps2*sum {
			return clamp01(sum)
		}
		fac = -fac
		termPrev = math.Abs(term)
	}
	// the series only fails to settle for tiny lambda, where Q_KS is 1
	return 1
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
