// Package featurestore provides an HTTP snapshot source backed by a remote
// feature-store service
package featurestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"driftwatch/internal/core/drift"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/logger"
	"driftwatch/internal/services/snapshots/domain"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUA        = "driftwatch-monitor"
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transient responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client fetches snapshots over HTTP with ETag-aware conditional requests.
// It implements the snapshots reader port; one instance is safe for
// concurrent runs
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	etag string
	snap domain.Snapshot
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("featurestore"),
		now:   time.Now,
		sleep: time.Sleep,
		cache: make(map[string]cacheEntry),
	}
}

// payload is the wire form of one snapshot
type payload struct {
	Features         []string    `json:"features"`
	Baseline         [][]float64 `json:"baseline"`
	Current          [][]float64 `json:"current"`
	BaselineAccuracy float64     `json:"baseline_accuracy"`
	Threshold        *float64    `json:"threshold,omitempty"`
	Predicted        []int       `json:"predicted"`
	Actuals          []int       `json:"actuals"`
	BaselineScores   []float64   `json:"baseline_scores"`
	CurrentScores    []float64   `json:"current_scores"`
}

// Snapshot implements domain.ReaderPort
func (c *Client) Snapshot(ctx context.Context, ref domain.Ref) (domain.Snapshot, error) {
	path := "/api/v1/snapshots/" + url.PathEscape(ref.ModelID) + "/" + url.PathEscape(ref.Environment)

	c.mu.RLock()
	cached, haveCached := c.cache[ref.String()]
	c.mu.RUnlock()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return domain.Snapshot{}, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
		if err != nil {
			return domain.Snapshot{}, perr.DataSourceWrap(err, "feature store request for %s", ref)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if haveCached && cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if !c.shouldRetry(attempts) {
				return domain.Snapshot{}, perr.DataSourceWrap(err, "feature store unreachable for %s", ref)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("feature store transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("feature store response")

		switch resp.StatusCode {
		case http.StatusOK:
			snap, etag, err := c.decode(ref, resp)
			if err != nil {
				return domain.Snapshot{}, err
			}
			if etag != "" {
				c.mu.Lock()
				c.cache[ref.String()] = cacheEntry{etag: etag, snap: snap}
				c.mu.Unlock()
			}
			return snap, nil
		case http.StatusNotModified:
			_ = drainAndClose(resp.Body)
			if !haveCached {
				return domain.Snapshot{}, perr.DataSourcef("feature store returned 304 without a cached snapshot for %s", ref)
			}
			return cached.snap, nil
		case http.StatusNotFound:
			_ = drainAndClose(resp.Body)
			return domain.Snapshot{}, perr.NotFoundf("feature store has no snapshot for %s", ref)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return domain.Snapshot{}, perr.DataSourcef("feature store transient failure for %s after %d attempts", ref, attempts+1)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("feature store transient error retrying")
			c.sleep(back)
			attempts++
			continue
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return domain.Snapshot{}, perr.DataSourcef(
				"feature store unexpected status %d for %s body %s", resp.StatusCode, ref, string(body))
		}
	}
}

func (c *Client) decode(ref domain.Ref, resp *http.Response) (domain.Snapshot, string, error) {
	defer func() { _ = drainAndClose(resp.Body) }()

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.Snapshot{}, "", perr.DataSourceWrap(err, "feature store payload for %s", ref)
	}

	baseline, err := drift.NewFrame(p.Features, p.Baseline)
	if err != nil {
		return domain.Snapshot{}, "", perr.DataSourceWrap(err, "feature store baseline frame for %s", ref)
	}
	current, err := drift.NewFrame(p.Features, p.Current)
	if err != nil {
		return domain.Snapshot{}, "", perr.DataSourceWrap(err, "feature store current frame for %s", ref)
	}

	return domain.Snapshot{
		Ref:              ref,
		Features:         p.Features,
		Baseline:         baseline,
		Current:          current,
		BaselineAccuracy: p.BaselineAccuracy,
		Threshold:        p.Threshold,
		Predicted:        p.Predicted,
		Actuals:          p.Actuals,
		BaselineScores:   p.BaselineScores,
		CurrentScores:    p.CurrentScores,
	}, resp.Header.Get("ETag"), nil
}

func (c *Client) backoff(attempt int) time.Duration {
	ms := int64(c.opts.RetryBase / time.Millisecond)
	ms = ms << uint(attempt)
	if limit := int64(30 * time.Second / time.Millisecond); ms > limit {
		ms = limit
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<20))
	return rc.Close()
}
