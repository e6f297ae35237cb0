package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/monitor/domain"
	snapdom "driftwatch/internal/services/snapshots/domain"
)

type fakeReader struct {
	snap snapdom.Snapshot
	err  error
}

func (f *fakeReader) Snapshot(context.Context, snapdom.Ref) (snapdom.Snapshot, error) {
	return f.snap, f.err
}

type fakeRecorder struct {
	refs []snapdom.Ref
	ats  []time.Time
	err  error
}

func (f *fakeRecorder) TouchLastRun(_ context.Context, ref snapdom.Ref, at time.Time) error {
	f.refs = append(f.refs, ref)
	f.ats = append(f.ats, at)
	return f.err
}

type fakeHistory struct {
	sums []domain.RunSummary
	err  error
}

func (f *fakeHistory) Record(_ context.Context, sum domain.RunSummary) error {
	f.sums = append(f.sums, sum)
	return f.err
}

func mustFrame(t *testing.T, features []string, rows [][]float64) drift.Frame {
	t.Helper()
	fr, err := drift.NewFrame(features, rows)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	return fr
}

// driftingSnapshot drifts on data (disjoint samples) and prediction
// (mean 0.5 -> 0.7) but not on concept (accuracy 1.0 vs baseline 0.95)
func driftingSnapshot(t *testing.T) snapdom.Snapshot {
	t.Helper()
	feats := []string{"feature_1", "feature_2"}

	baseRows := make([][]float64, 20)
	curRows := make([][]float64, 20)
	baseScores := make([]float64, 20)
	curScores := make([]float64, 20)
	labels := make([]int, 20)
	for i := range baseRows {
		baseRows[i] = []float64{float64(i), float64(i) + 50}
		curRows[i] = []float64{float64(i) + 100, float64(i) + 150}
		baseScores[i] = 0.5
		curScores[i] = 0.7
		labels[i] = i % 2
	}

	return snapdom.Snapshot{
		Ref:              snapdom.Ref{ModelID: "demo-model", Environment: "dev"},
		Features:         feats,
		Baseline:         mustFrame(t, feats, baseRows),
		Current:          mustFrame(t, feats, curRows),
		BaselineAccuracy: 0.95,
		Predicted:        labels,
		Actuals:          labels,
		BaselineScores:   baseScores,
		CurrentScores:    curScores,
	}
}

func ref() snapdom.Ref { return snapdom.Ref{ModelID: "demo-model", Environment: "dev"} }

func TestRun_CompletesAndPublishes(t *testing.T) {
	em := &fakeEmitter{}
	rec := &fakeRecorder{}
	hist := &fakeHistory{}
	svc := New(domain.Ports{
		Snapshots: &fakeReader{snap: driftingSnapshot(t)},
		Recorder:  rec,
		History:   hist,
		Emitter:   em,
	}, Config{Threshold: 0.10})

	sum, err := svc.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Status != domain.StatusCompleted {
		t.Errorf("status = %s", sum.Status)
	}
	if sum.ID == uuid.Nil {
		t.Error("run id missing")
	}
	if !sum.Published || sum.MetricCount != 12 {
		t.Errorf("published = %t count = %d", sum.Published, sum.MetricCount)
	}
	if sum.Report == nil {
		t.Fatal("report missing")
	}
	if !sum.Report.Data.Detected {
		t.Error("data drift should fire on disjoint samples")
	}
	if sum.Report.Concept.Detected {
		t.Error("concept drift should not fire at perfect accuracy")
	}
	if !sum.Report.Prediction.Detected {
		t.Error("prediction drift should fire on 0.5 -> 0.7 means")
	}
	if want := "data drift: true, concept drift: false, prediction drift: true"; sum.Summary != want {
		t.Errorf("summary = %q, want %q", sum.Summary, want)
	}
	if sum.FinishedAt.Before(sum.StartedAt) {
		t.Errorf("finished %v before started %v", sum.FinishedAt, sum.StartedAt)
	}

	if len(em.batches) != 1 {
		t.Errorf("emitted batches = %d", len(em.batches))
	}
	if len(rec.refs) != 1 || rec.refs[0] != ref() || !rec.ats[0].Equal(sum.FinishedAt) {
		t.Errorf("recorder calls = %+v at %+v", rec.refs, rec.ats)
	}
	if len(hist.sums) != 1 || hist.sums[0].Status != domain.StatusCompleted {
		t.Errorf("history records = %+v", hist.sums)
	}
}

func TestRun_AcquisitionFailureSurfacesUnchanged(t *testing.T) {
	cause := perr.DataSourcef("window scan timed out")
	em := &fakeEmitter{}
	svc := New(domain.Ports{
		Snapshots: &fakeReader{err: cause},
		Emitter:   em,
	}, Config{})

	sum, err := svc.Run(context.Background(), ref())
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want the acquisition error", err)
	}
	if sum.Status != domain.StatusFailed {
		t.Errorf("status = %s", sum.Status)
	}
	if sum.Report != nil {
		t.Error("no report should exist before detection")
	}
	if len(em.batches) != 0 {
		t.Error("nothing may be published on a failed acquisition")
	}
}

func TestRun_DetectionFailureNamesTheOperation(t *testing.T) {
	snap := driftingSnapshot(t)
	snap.Current = mustFrame(t, []string{"feature_1"}, [][]float64{{1}, {2}, {3}})

	em := &fakeEmitter{}
	svc := New(domain.Ports{
		Snapshots: &fakeReader{snap: snap},
		Emitter:   em,
	}, Config{})

	sum, err := svc.Run(context.Background(), ref())
	if !perr.IsCode(err, perr.ErrorCodeSchemaMismatch) {
		t.Fatalf("want schema mismatch, got %v", err)
	}
	e, ok := perr.As(err)
	if !ok || e.Op() != "data drift" {
		t.Errorf("op = %q, want data drift", e.Op())
	}
	if sum.Status != domain.StatusFailed || sum.Report != nil {
		t.Errorf("status = %s report = %v", sum.Status, sum.Report)
	}
	if len(em.batches) != 0 {
		t.Error("no partial publish on detection failure")
	}
}

func TestRun_PublishFailureKeepsReport(t *testing.T) {
	em := &fakeEmitter{err: errors.New("import rejected")}
	hist := &fakeHistory{}
	svc := New(domain.Ports{
		Snapshots: &fakeReader{snap: driftingSnapshot(t)},
		History:   hist,
		Emitter:   em,
	}, Config{})

	sum, err := svc.Run(context.Background(), ref())
	if !perr.IsCode(err, perr.ErrorCodePublish) {
		t.Fatalf("want publish error, got %v", err)
	}
	if sum.Status != domain.StatusFailed {
		t.Errorf("status = %s", sum.Status)
	}
	if sum.Report == nil {
		t.Fatal("publish failure must not discard the computed report")
	}
	if sum.Published || sum.MetricCount != 0 {
		t.Errorf("published = %t count = %d", sum.Published, sum.MetricCount)
	}
	if sum.Summary == "" {
		t.Error("summary text should survive a publish failure")
	}
	if len(hist.sums) != 1 || hist.sums[0].Report == nil {
		t.Errorf("history should record the failed run with its report")
	}

	// the kept report matches what a healthy emitter computes on the same
	// snapshot, so publishing can be retried without rerunning detection
	good, err := New(domain.Ports{
		Snapshots: &fakeReader{snap: driftingSnapshot(t)},
		Emitter:   &fakeEmitter{},
	}, Config{}).Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(*sum.Report, *good.Report) {
		t.Errorf("failed run report = %+v, want %+v", *sum.Report, *good.Report)
	}
}

func TestRun_CatalogThresholdOverride(t *testing.T) {
	snap := driftingSnapshot(t)
	// prediction ratio is |0.7-0.5|/0.5 = 0.4; an override above that mutes it
	loose := 0.5
	snap.Threshold = &loose
	// keep data drift quiet too so only thresholds differ
	snap.Current = snap.Baseline

	overridden := New(domain.Ports{
		Snapshots: &fakeReader{snap: snap},
		Emitter:   &fakeEmitter{},
	}, Config{Threshold: 0.10})

	sum, err := overridden.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Report.Prediction.Detected {
		t.Error("override threshold 0.5 should mute a 0.4 ratio")
	}

	snap.Threshold = nil
	defaulted := New(domain.Ports{
		Snapshots: &fakeReader{snap: snap},
		Emitter:   &fakeEmitter{},
	}, Config{Threshold: 0.10})

	sum, err = defaulted.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Report.Prediction.Detected {
		t.Error("default threshold 0.10 should fire on a 0.4 ratio")
	}
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	snap := driftingSnapshot(t)

	seq := New(domain.Ports{Snapshots: &fakeReader{snap: snap}, Emitter: &fakeEmitter{}}, Config{})
	par := New(domain.Ports{Snapshots: &fakeReader{snap: snap}, Emitter: &fakeEmitter{}}, Config{Concurrent: true})

	a, err := seq.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	b, err := par.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("concurrent: %v", err)
	}
	if !reflect.DeepEqual(a.Report, b.Report) {
		t.Errorf("reports diverged:\n%+v\n%+v", a.Report, b.Report)
	}
}

func TestRun_ConcurrentDetectionFailureFailsRun(t *testing.T) {
	snap := driftingSnapshot(t)
	snap.Predicted = []int{1, 0}
	snap.Actuals = []int{1} // misaligned pair lengths

	svc := New(domain.Ports{
		Snapshots: &fakeReader{snap: snap},
		Emitter:   &fakeEmitter{},
	}, Config{Concurrent: true})

	sum, err := svc.Run(context.Background(), ref())
	if !perr.IsCode(err, perr.ErrorCodeSchemaMismatch) {
		t.Fatalf("want schema mismatch, got %v", err)
	}
	if sum.Status != domain.StatusFailed {
		t.Errorf("status = %s", sum.Status)
	}
}

func TestRun_BookkeepingFailuresDoNotChangeOutcome(t *testing.T) {
	svc := New(domain.Ports{
		Snapshots: &fakeReader{snap: driftingSnapshot(t)},
		Recorder:  &fakeRecorder{err: errors.New("catalog readonly")},
		History:   &fakeHistory{err: errors.New("ch down")},
		Emitter:   &fakeEmitter{},
	}, Config{})

	sum, err := svc.Run(context.Background(), ref())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Status != domain.StatusCompleted {
		t.Errorf("status = %s", sum.Status)
	}
}

func TestRun_TimeoutCancelsAcquisition(t *testing.T) {
	block := &blockingReader{release: make(chan struct{})}
	defer close(block.release)

	svc := New(domain.Ports{
		Snapshots: block,
		Emitter:   &fakeEmitter{},
	}, Config{RunTimeout: 10 * time.Millisecond})

	sum, err := svc.Run(context.Background(), ref())
	if err == nil {
		t.Fatal("want error from timed-out acquisition")
	}
	if sum.Status != domain.StatusFailed {
		t.Errorf("status = %s", sum.Status)
	}
}

type blockingReader struct {
	release chan struct{}
}

func (b *blockingReader) Snapshot(ctx context.Context, _ snapdom.Ref) (snapdom.Snapshot, error) {
	select {
	case <-ctx.Done():
		return snapdom.Snapshot{}, ctx.Err()
	case <-b.release:
		return snapdom.Snapshot{}, nil
	}
}
