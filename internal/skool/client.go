// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
client.go - Resilient Upstream Request Client

Executes one logical HTTP call against the platform's private API with
retry, backoff, and proxy policy. Failures are classified per attempt:

  - transient: network error, 5xx, 429, or a 4xx not excluded by policy;
    retried after backoff * 2^(attempt-1) (capped) on a freshly drawn proxy
  - terminal: 404/401 when the corresponding skip flag is set, or retries
    exhausted; returned immediately with a sentinel error

The client never mutates credential or community state. Rate limiting
(politeness delay between calls) and the circuit breaker are shared
across all callers of one Client.
*/
package skool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
)

// maxBodyBytes bounds how much of a response body is read. Upstream
// pages are tens of kilobytes; anything near this limit is hostile.
const maxBodyBytes = 32 << 20

// Outcome classifies the final result of a logical call. Values double
// as Prometheus label values.
type Outcome string

// Call outcomes.
const (
	OutcomeOK           Outcome = "ok"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeExhausted    Outcome = "exhausted"
)

// Policy controls retry, backoff, and proxy behavior for one call.
type Policy struct {
	// MaxRetries bounds total attempts. After MaxRetries transient
	// failures the call returns ErrRetriesExhausted.
	MaxRetries int
	// Backoff is the base delay; attempt n sleeps Backoff * 2^(n-1).
	Backoff time.Duration
	// MaxBackoff caps the exponential delay. Zero means no cap.
	MaxBackoff time.Duration
	// Timeout is the per-attempt deadline for direct connections.
	Timeout time.Duration
	// ProxyTimeout is the per-attempt deadline for proxied connections,
	// longer because proxied connections are slower.
	ProxyTimeout time.Duration
	// SkipRetryOn404 treats not-found as terminal rather than transient.
	SkipRetryOn404 bool
	// SkipRetryOn401 treats unauthorized as terminal rather than transient.
	SkipRetryOn401 bool
	// UseProxy draws a random proxy from the pool for every attempt.
	UseProxy bool
}

func (p Policy) attemptTimeout(proxied bool) time.Duration {
	if proxied && p.ProxyTimeout > 0 {
		return p.ProxyTimeout
	}
	return p.Timeout
}

func (p Policy) delayFor(attempt int) time.Duration {
	d := p.Backoff * time.Duration(1<<uint(attempt-1))
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// Request describes one logical upstream call.
type Request struct {
	Method string
	URL    string
	// Endpoint is the stable metrics label for this call (for example
	// "members_page"), never the raw URL.
	Endpoint string
	Params   url.Values
	Header   http.Header
}

// Result is the terminal state of a logical call. Outcome distinguishes
// success, terminal-expected emptiness, and exhaustion so callers can
// tell "nothing found" from "failed".
type Result struct {
	Outcome    Outcome
	StatusCode int
	Body       []byte
}

// OK reports whether the call succeeded with a usable body.
func (r *Result) OK() bool { return r != nil && r.Outcome == OutcomeOK }

// Options configures a Client.
type Options struct {
	// Pool supplies proxy endpoints. Nil or empty means direct.
	Pool *ProxyPool
	// RequestDelay is the politeness interval between upstream calls.
	// Zero disables rate limiting.
	RequestDelay time.Duration
	// Breaker guards attempts against a failing upstream. Nil disables.
	Breaker *CircuitBreaker
}

// Client executes requests against the upstream platform. Safe for
// concurrent use.
type Client struct {
	pool    *ProxyPool
	limiter *rate.Limiter
	breaker *CircuitBreaker

	direct *http.Client

	mu      sync.Mutex
	proxied map[string]*http.Client
}

// NewClient builds a client with the given options.
func NewClient(opts Options) *Client {
	c := &Client{
		pool:    opts.Pool,
		breaker: opts.Breaker,
		direct:  &http.Client{},
		proxied: make(map[string]*http.Client),
	}
	if opts.RequestDelay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}
	return c
}

// Do executes one logical call under the given policy. The returned
// Result is non-nil for every classified outcome; the error is nil only
// on success. Terminal outcomes map to ErrNotFound, ErrUnauthorized,
// and ErrRetriesExhausted.
func (c *Client) Do(ctx context.Context, req Request, policy Policy) (*Result, error) {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}

	var (
		lastStatus int
		lastErr    error
	)
attempts:
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var proxyURL *url.URL
		if policy.UseProxy {
			proxyURL = c.pool.Draw()
		}

		start := time.Now()
		resp, err := c.attempt(ctx, req, policy, proxyURL)
		metrics.UpstreamRequestDuration.WithLabelValues(req.Endpoint).Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			lastStatus = 0
			logging.Warn().
				Str("endpoint", req.Endpoint).
				Int("attempt", attempt).
				Err(err).
				Msg("upstream request failed")
			if !c.sleepBeforeRetry(ctx, req.Endpoint, policy, attempt, 0) {
				break
			}
			continue
		}

		lastStatus = resp.StatusCode
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			closeBody(resp)
			if readErr != nil {
				lastErr = fmt.Errorf("reading response body: %w", readErr)
				if !c.sleepBeforeRetry(ctx, req.Endpoint, policy, attempt, 0) {
					break attempts
				}
				continue
			}
			metrics.UpstreamRequestsTotal.WithLabelValues(req.Endpoint, string(OutcomeOK)).Inc()
			return &Result{Outcome: OutcomeOK, StatusCode: resp.StatusCode, Body: body}, nil

		case resp.StatusCode == http.StatusNotFound && policy.SkipRetryOn404:
			closeBody(resp)
			metrics.UpstreamRequestsTotal.WithLabelValues(req.Endpoint, string(OutcomeNotFound)).Inc()
			return &Result{Outcome: OutcomeNotFound, StatusCode: resp.StatusCode},
				fmt.Errorf("%s %s: %w", req.Method, req.Endpoint, ErrNotFound)

		case resp.StatusCode == http.StatusUnauthorized && policy.SkipRetryOn401:
			closeBody(resp)
			metrics.UpstreamRequestsTotal.WithLabelValues(req.Endpoint, string(OutcomeUnauthorized)).Inc()
			return &Result{Outcome: OutcomeUnauthorized, StatusCode: resp.StatusCode},
				fmt.Errorf("%s %s: %w", req.Method, req.Endpoint, ErrUnauthorized)

		default:
			// Transient: 5xx, 429, or a 4xx the policy does not exclude.
			retryAfter := parseRetryAfter(resp)
			lastErr = fmt.Errorf("upstream status %d: %s", resp.StatusCode, readErrorBody(resp))
			closeBody(resp)
			logging.Warn().
				Str("endpoint", req.Endpoint).
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("transient upstream failure")
			if !c.sleepBeforeRetry(ctx, req.Endpoint, policy, attempt, retryAfter) {
				break attempts
			}
		}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(req.Endpoint, string(OutcomeExhausted)).Inc()
	res := &Result{Outcome: OutcomeExhausted, StatusCode: lastStatus}
	if lastErr != nil {
		return res, fmt.Errorf("%s %s after %d attempts: %v: %w",
			req.Method, req.Endpoint, policy.MaxRetries, lastErr, ErrRetriesExhausted)
	}
	return res, fmt.Errorf("%s %s: %w", req.Method, req.Endpoint, ErrRetriesExhausted)
}

// sleepBeforeRetry waits out the backoff delay unless this was the final
// attempt. Returns false when the loop should stop.
func (c *Client) sleepBeforeRetry(ctx context.Context, endpoint string, policy Policy, attempt int, retryAfter time.Duration) bool {
	if attempt >= policy.MaxRetries {
		return false
	}
	delay := policy.delayFor(attempt)
	if retryAfter > delay {
		delay = retryAfter
	}
	metrics.UpstreamRetriesTotal.WithLabelValues(endpoint).Inc()
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) attempt(ctx context.Context, req Request, policy Policy, proxyURL *url.URL) (*http.Response, error) {
	fullURL := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	client := c.clientFor(proxyURL, policy.attemptTimeout(proxyURL != nil))
	if c.breaker != nil {
		return c.breaker.Do(client, httpReq)
	}
	return client.Do(httpReq)
}

// clientFor returns an http.Client with the right proxy and timeout.
// Proxied clients are cached per endpoint so connections are reused
// across attempts that happen to draw the same proxy.
func (c *Client) clientFor(proxyURL *url.URL, timeout time.Duration) *http.Client {
	if proxyURL == nil {
		return &http.Client{Transport: c.direct.Transport, Timeout: timeout}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := proxyURL.String()
	cached, ok := c.proxied[key]
	if !ok {
		cached = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
		c.proxied[key] = cached
	}
	return &http.Client{Transport: cached.Transport, Timeout: timeout}
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// readErrorBody captures a bounded prefix of an error response for
// logging. 64KB is plenty for any real upstream error payload.
func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return resp.Status
	}
	return string(body)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
