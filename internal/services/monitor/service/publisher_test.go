package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/monitor/domain"
)

type fakeEmitter struct {
	batches [][]domain.Metric
	err     error
}

func (f *fakeEmitter) Emit(_ context.Context, batch []domain.Metric) error {
	f.batches = append(f.batches, batch)
	return f.err
}

func sampleReport() drift.Report {
	return drift.NewReport(
		drift.DataResult{Detected: true, Score: 85, AffectedFeatures: []string{"feature_1"}, PValue: 0.01, TopPValue: 0.02},
		drift.ConceptResult{Detected: false, Score: 5, CurrentAccuracy: 0.9, BaselineAccuracy: 0.95},
		drift.PredictionResult{Detected: true, Score: 40, CurrentMean: 0.7, BaselineMean: 0.5},
	)
}

func TestFlatten_SectionsInOrderFieldsSorted(t *testing.T) {
	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	batch, err := Flatten("demo-model", sampleReport(), at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNames := []string{
		"demo-model/data_drift_detected",
		"demo-model/data_drift_p_value",
		"demo-model/data_drift_score",
		"demo-model/data_drift_top_p_value",
		"demo-model/concept_drift_baseline_accuracy",
		"demo-model/concept_drift_current_accuracy",
		"demo-model/concept_drift_detected",
		"demo-model/concept_drift_score",
		"demo-model/prediction_drift_baseline_mean",
		"demo-model/prediction_drift_current_mean",
		"demo-model/prediction_drift_detected",
		"demo-model/prediction_drift_score",
	}
	if len(batch) != len(wantNames) {
		t.Fatalf("batch size = %d, want %d (%+v)", len(batch), len(wantNames), batch)
	}
	for i, want := range wantNames {
		if batch[i].Name != want {
			t.Errorf("batch[%d].Name = %q, want %q", i, batch[i].Name, want)
		}
		if batch[i].Unit != UnitPercent {
			t.Errorf("batch[%d].Unit = %q", i, batch[i].Unit)
		}
		if !batch[i].Timestamp.Equal(at) {
			t.Errorf("batch[%d].Timestamp = %v", i, batch[i].Timestamp)
		}
	}
}

func TestFlatten_BooleansBecomeZeroOne(t *testing.T) {
	batch, err := Flatten("m", sampleReport(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]float64{}
	for _, m := range batch {
		byName[m.Name] = m.Value
	}
	if byName["m/data_drift_detected"] != 1 {
		t.Errorf("data detected = %v, want 1", byName["m/data_drift_detected"])
	}
	if byName["m/concept_drift_detected"] != 0 {
		t.Errorf("concept detected = %v, want 0", byName["m/concept_drift_detected"])
	}
	if byName["m/data_drift_score"] != 85 {
		t.Errorf("data score = %v", byName["m/data_drift_score"])
	}
	if byName["m/prediction_drift_current_mean"] != 0.7 {
		t.Errorf("current mean = %v", byName["m/prediction_drift_current_mean"])
	}
}

func TestFlatten_FeatureListExcluded(t *testing.T) {
	batch, err := Flatten("m", sampleReport(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range batch {
		if m.Name == "m/data_drift_affected_features" {
			t.Fatalf("feature list leaked into batch: %+v", m)
		}
	}
}

func TestPublish_EmitsOneBatch(t *testing.T) {
	em := &fakeEmitter{}
	p := NewPublisher(em)

	n, err := p.Publish(context.Background(), "demo-model", sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("n = %d, want 12", n)
	}
	if len(em.batches) != 1 || len(em.batches[0]) != 12 {
		t.Fatalf("batches = %d, want one batch of 12", len(em.batches))
	}
}

func TestPublish_WrapsEmitterFailure(t *testing.T) {
	p := NewPublisher(&fakeEmitter{err: errors.New("backend down")})

	n, err := p.Publish(context.Background(), "demo-model", sampleReport())
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if !perr.IsCode(err, perr.ErrorCodePublish) {
		t.Fatalf("want publish error, got %v", err)
	}
}

func TestPublishValues_SortedDeterministicOrder(t *testing.T) {
	em := &fakeEmitter{}
	p := NewPublisher(em)

	n, err := p.PublishValues(context.Background(), "demo-model", map[string]float64{
		"zeta":  3,
		"alpha": 1,
		"mid":   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d", n)
	}

	got := em.batches[0]
	wantNames := []string{"demo-model/alpha", "demo-model/mid", "demo-model/zeta"}
	for i, want := range wantNames {
		if got[i].Name != want {
			t.Errorf("batch[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
	if got[2].Value != 3 {
		t.Errorf("zeta value = %v", got[2].Value)
	}
}
