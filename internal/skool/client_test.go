// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Backoff:    time.Millisecond,
		Timeout:    2 * time.Second,
	}
}

// apiPolicy mirrors the production endpoint policy: not-found and
// unauthorized are terminal.
func apiPolicy() Policy {
	p := testPolicy()
	p.SkipRetryOn404 = true
	p.SkipRetryOn401 = true
	return p
}

func TestDoRetriesTransientFailuresThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	res, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, testPolicy())
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if !res.OK() {
		t.Fatalf("Do() outcome = %v, want ok", res.Outcome)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("request count = %d, want 3 (two transient failures then success)", got)
	}
}

func TestDoReturnsExhaustedAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	res, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, testPolicy())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Do() error = %v, want ErrRetriesExhausted", err)
	}
	if res == nil || res.Outcome != OutcomeExhausted {
		t.Fatalf("Do() result = %+v, want exhausted outcome", res)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("request count = %d, want exactly max_retries=3", got)
	}
}

func TestDoSkipRetryOn401IsTerminalAfterOneAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	policy := testPolicy()
	policy.SkipRetryOn401 = true

	c := NewClient(Options{})
	res, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, policy)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Do() error = %v, want ErrUnauthorized", err)
	}
	if res.Outcome != OutcomeUnauthorized {
		t.Errorf("outcome = %v, want unauthorized", res.Outcome)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("request count = %d, want a single attempt regardless of max_retries", got)
	}
}

func TestDoSkipRetryOn404IsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	policy := testPolicy()
	policy.SkipRetryOn404 = true

	c := NewClient(Options{})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, policy)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Do() error = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
}

func TestDo404WithoutSkipIsTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	res, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, testPolicy())
	if err != nil || !res.OK() {
		t.Fatalf("Do() = (%+v, %v), want retried success", res, err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
}

func TestDoHonorsRetryAfterOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	res, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, testPolicy())
	if err != nil || !res.OK() {
		t.Fatalf("Do() = (%+v, %v), want success after rate limit", res, err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
}

func TestDoCancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := testPolicy()
	policy.Backoff = time.Minute

	c := NewClient(Options{})
	_, err := c.Do(ctx, Request{Method: http.MethodGet, URL: srv.URL, Endpoint: "test"}, policy)
	if err == nil {
		t.Fatal("Do() with cancelled context returned nil error")
	}
}

func TestDoAppendsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("p"); got != "2" {
			t.Errorf("query p = %q, want 2", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q, want bearer token", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	req := Request{
		Method:   http.MethodGet,
		URL:      srv.URL,
		Endpoint: "test",
		Header:   authHeader("tok"),
	}
	req.Params = map[string][]string{"p": {"2"}}
	if _, err := c.Do(context.Background(), req, testPolicy()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}
