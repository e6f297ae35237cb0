package featurestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/snapshots/domain"
)

func testPayload() payload {
	return payload{
		Features:         []string{"feature_1", "feature_2"},
		Baseline:         [][]float64{{1, 10}, {2, 20}, {3, 30}},
		Current:          [][]float64{{4, 40}, {5, 50}},
		BaselineAccuracy: 0.95,
		Predicted:        []int{1, 0},
		Actuals:          []int{1, 1},
		BaselineScores:   []float64{0.2, 0.4, 0.6},
		CurrentScores:    []float64{0.8, 0.9},
	}
}

func newTestClient(baseURL string, maxRetries int) *Client {
	c := NewClient(Options{BaseURL: baseURL, MaxRetries: maxRetries, RetryBase: time.Millisecond})
	c.sleep = func(time.Duration) {}
	return c
}

func TestSnapshot_DecodesPayload(t *testing.T) {
	var gotPath, gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode(testPayload())
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	ref := domain.Ref{ModelID: "demo-model", Environment: "dev"}
	snap, err := c.Snapshot(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v1/snapshots/demo-model/dev" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUA != "driftwatch-monitor" {
		t.Errorf("user agent = %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("accept = %q", gotAccept)
	}

	if snap.Ref != ref {
		t.Errorf("ref = %+v", snap.Ref)
	}
	if got := snap.Baseline.Columns["feature_2"]; !reflect.DeepEqual(got, []float64{10, 20, 30}) {
		t.Errorf("baseline feature_2 = %v", got)
	}
	if got := snap.Current.Columns["feature_1"]; !reflect.DeepEqual(got, []float64{4, 5}) {
		t.Errorf("current feature_1 = %v", got)
	}
	if snap.BaselineAccuracy != 0.95 {
		t.Errorf("baseline accuracy = %v", snap.BaselineAccuracy)
	}
	if !reflect.DeepEqual(snap.Predicted, []int{1, 0}) || !reflect.DeepEqual(snap.Actuals, []int{1, 1}) {
		t.Errorf("labels = %v / %v", snap.Predicted, snap.Actuals)
	}
	if len(snap.BaselineScores) != 3 || len(snap.CurrentScores) != 2 {
		t.Errorf("scores = %v / %v", snap.BaselineScores, snap.CurrentScores)
	}
}

func TestSnapshot_PathEscapesRef(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(testPayload())
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "team/model", Environment: "dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/snapshots/team%2Fmodel/dev" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSnapshot_ETagServes304FromCache(t *testing.T) {
	var calls int32
	var secondIfNoneMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.Header().Set("ETag", `"v1"`)
			_ = json.NewEncoder(w).Encode(testPayload())
		default:
			secondIfNoneMatch = r.Header.Get("If-None-Match")
			w.WriteHeader(http.StatusNotModified)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	ref := domain.Ref{ModelID: "demo-model", Environment: "dev"}

	first, err := c.Snapshot(context.Background(), ref)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := c.Snapshot(context.Background(), ref)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if secondIfNoneMatch != `"v1"` {
		t.Errorf("If-None-Match = %q", secondIfNoneMatch)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached snapshot diverged: %+v vs %+v", first, second)
	}
}

func TestSnapshot_304WithoutCacheIsDataSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeDataSource) {
		t.Fatalf("want data source error, got %v", err)
	}
}

func TestSnapshot_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "ghost", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestSnapshot_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(testPayload())
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, MaxRetries: 3, RetryBase: time.Millisecond})
	var backoffs []time.Duration
	c.sleep = func(d time.Duration) { backoffs = append(backoffs, d) }

	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(backoffs) != 2 || backoffs[1] <= backoffs[0] {
		t.Errorf("backoffs = %v, want two increasing delays", backoffs)
	}
}

func TestSnapshot_TransientExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeDataSource) {
		t.Fatalf("want data source error, got %v", err)
	}
}

func TestSnapshot_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeDataSource) {
		t.Fatalf("want data source error, got %v", err)
	}
}

func TestSnapshot_RaggedPayloadIsDataSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := testPayload()
		p.Baseline = [][]float64{{1, 10}, {2}}
		_ = json.NewEncoder(w).Encode(p)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeDataSource) {
		t.Fatalf("want data source error, got %v", err)
	}
}

func TestSnapshot_TransportErrorIsDataSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL, 1)
	_, err := c.Snapshot(context.Background(), domain.Ref{ModelID: "m", Environment: "dev"})
	if !perr.IsCode(err, perr.ErrorCodeDataSource) {
		t.Fatalf("want data source error, got %v", err)
	}
}

func TestSnapshot_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv.URL, 5)
	_, err := c.Snapshot(ctx, domain.Ref{ModelID: "m", Environment: "dev"})
	if err == nil {
		t.Fatal("want error from cancelled context")
	}
}

func TestBackoffCapsAtThirtySeconds(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://unused", RetryBase: 10 * time.Second})
	if got := c.backoff(0); got != 10*time.Second {
		t.Errorf("backoff(0) = %v", got)
	}
	if got := c.backoff(5); got != 30*time.Second {
		t.Errorf("backoff(5) = %v, want cap", got)
	}
}
