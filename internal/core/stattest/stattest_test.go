package stattest

import (
	"math"
	"testing"

	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/testkit"
)

func TestTwoSampleKS_IdenticalSamples(t *testing.T) {
	xs := []float64{0.3, -1.2, 4.5, 0.0, 2.2, -0.7}
	ys := append([]float64(nil), xs...)

	res, err := TwoSampleKS(xs, ys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Statistic != 0 {
		t.Fatalf("identical samples must give statistic 0, got %v", res.Statistic)
	}
	if res.PValue != 1 {
		t.Fatalf("identical samples must give p-value 1, got %v", res.PValue)
	}
}

func TestTwoSampleKS_DisjointSamples(t *testing.T) {
	cur := []float64{1, 2, 3, 4}
	base := []float64{10, 11, 12, 13}

	res, err := TwoSampleKS(cur, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Statistic != 1 {
		t.Fatalf("disjoint supports must give statistic 1, got %v", res.Statistic)
	}
	if res.PValue <= 0 || res.PValue >= 0.05 {
		t.Fatalf("disjoint supports should be significant, got p=%v", res.PValue)
	}
}

func TestTwoSampleKS_ShiftedSamples(t *testing.T) {
	cur := make([]float64, 100)
	base := make([]float64, 100)
	for i := range cur {
		cur[i] = float64(i)
		base[i] = float64(i + 50)
	}

	res, err := TwoSampleKS(cur, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// half of each sample sits outside the other's support
	testkit.InDelta(t, res.Statistic, 0.5, 1e-12)
	if res.PValue > 1e-9 {
		t.Fatalf("a 50%% shift over 100 rows should be overwhelmingly significant, got p=%v", res.PValue)
	}
}

func TestTwoSampleKS_InsufficientData(t *testing.T) {
	ok := []float64{1, 2, 3}
	cases := map[string][2][]float64{
		"empty current":      {{}, ok},
		"single current":     {{1}, ok},
		"empty baseline":     {ok, {}},
		"single baseline":    {ok, {2}},
		"both sides too few": {{1}, {2}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := TwoSampleKS(c[0], c[1])
			if err == nil {
				t.Fatalf("expected error")
			}
			if !perr.IsCode(err, perr.ErrorCodeInsufficientData) {
				t.Fatalf("expected insufficient data code, got %v", err)
			}
		})
	}
}

func TestTwoSampleKS_InputsNotMutated(t *testing.T) {
	cur := []float64{5, 1, 3, 2, 4}
	base := []float64{9, 7, 8, 6, 10}
	curWant := append([]float64(nil), cur...)
	baseWant := append([]float64(nil), base...)

	if _, err := TwoSampleKS(cur, base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range cur {
		if cur[i] != curWant[i] || base[i] != baseWant[i] {
			t.Fatalf("inputs were mutated: cur=%v base=%v", cur, base)
		}
	}
}

func TestKSProb_Bounds(t *testing.T) {
	if got := ksProb(0); got != 1 {
		t.Fatalf("ksProb(0) = %v, want 1", got)
	}
	if got := ksProb(5); got > 1e-9 {
		t.Fatalf("ksProb(5) = %v, want about 0", got)
	}
	for _, lambda := range []float64{0.1, 0.5, 0.8, 1.2, 2} {
		p := ksProb(lambda)
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Fatalf("ksProb(%v) = %v out of [0,1]", lambda, p)
		}
	}
}
