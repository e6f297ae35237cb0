// Package vmetrics publishes metric batches to a VictoriaMetrics import
// endpoint
package vmetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"driftwatch/internal/core/metricname"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/logger"
	"driftwatch/internal/services/monitor/domain"
)

const (
	defaultNamespace = "MLOps/Monitoring"
	defaultUA        = "driftwatch-monitor"
	defaultTimeout   = 10 * time.Second

	importPath = "/api/v1/import"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Namespace string
	UserAgent string
	Timeout   time.Duration
}

// Client implements the monitor emitter port against the VictoriaMetrics
// JSON-lines import API. One instance is safe for concurrent runs
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.Namespace == "" {
		o.Namespace = defaultNamespace
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("vmetrics"),
	}
}

// line is one JSON-lines import row
type line struct {
	Metric     map[string]string `json:"metric"`
	Values     []float64         `json:"values"`
	Timestamps []int64           `json:"timestamps"`
}

// Emit implements domain.EmitterPort
// The whole batch goes in one request; the backend charset is narrower than
// the domain name form so __name__ passes through metricname sanitization
func (c *Client) Emit(ctx context.Context, batch []domain.Metric) error {
	if len(batch) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, m := range batch {
		modelID, _ := metricname.Split(m.Name)
		labels := map[string]string{
			"__name__":  metricname.Metric(m.Name),
			"namespace": c.opts.Namespace,
			"unit":      m.Unit,
		}
		if modelID != "" {
			labels["model_id"] = modelID
		}
		if err := enc.Encode(line{
			Metric:     labels,
			Values:     []float64{m.Value},
			Timestamps: []int64{m.Timestamp.UnixMilli()},
		}); err != nil {
			return perr.PublishWrap(err, "encode metric %s", m.Name)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+importPath, &buf)
	if err != nil {
		return perr.PublishWrap(err, "import request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.PublishWrap(err, "victoria metrics unreachable")
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return perr.Publishf("victoria metrics import status %d body %s", resp.StatusCode, string(body))
	}

	c.log.Debug().Int("batch", len(batch)).Int("status", resp.StatusCode).Msg("metrics imported")
	return nil
}
