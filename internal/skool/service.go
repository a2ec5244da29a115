// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"strings"
	"time"

	"github.com/PATRICK079/skool-data/internal/config"
)

// API bundles the typed endpoint fetchers for the upstream platform.
// One API instance serves all communities; per-call state (credential,
// community, build identifier) is passed in explicitly.
type API struct {
	client     *Client
	builds     *BuildManager
	baseURL    string
	apiBaseURL string
	policy     Policy
	pageSize   int
	// pageConcurrency bounds parallel page fetches within one listing.
	pageConcurrency int
}

// NewAPI wires the API from configuration. The build manager refreshes
// identifiers through the same client, so it shares the politeness
// limiter and circuit breaker.
func NewAPI(cfg config.SkoolConfig, pageConcurrency int) (*API, error) {
	pool, err := NewProxyPool(cfg.Proxies, time.Now().UnixNano())
	if err != nil {
		return nil, err
	}
	client := NewClient(Options{
		Pool:         pool,
		RequestDelay: cfg.RequestDelay,
		Breaker:      NewCircuitBreaker(hostOf(cfg.BaseURL)),
	})
	policy := Policy{
		MaxRetries:     cfg.MaxRetries,
		Backoff:        cfg.Backoff,
		MaxBackoff:     cfg.MaxBackoff,
		Timeout:        cfg.Timeout,
		ProxyTimeout:   cfg.ProxyTimeout,
		SkipRetryOn404: true,
		SkipRetryOn401: true,
		UseProxy:       cfg.UseProxy,
	}
	return &API{
		client:          client,
		builds:          NewBuildManager(client, cfg.BaseURL, policy, cfg.BuildRefreshLimit),
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiBaseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		policy:          policy,
		pageSize:        cfg.PageSize,
		pageConcurrency: pageConcurrency,
	}, nil
}

// NewAPIForTesting wires an API against arbitrary base URLs with the
// given client. Used by package tests with httptest servers.
func NewAPIForTesting(client *Client, baseURL, apiBaseURL string, policy Policy, pageSize int) *API {
	return &API{
		client:          client,
		builds:          NewBuildManager(client, baseURL, policy, 1),
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiBaseURL:      strings.TrimRight(apiBaseURL, "/"),
		policy:          policy,
		pageSize:        pageSize,
		pageConcurrency: 1,
	}
}

// Builds exposes the build identifier manager.
func (a *API) Builds() *BuildManager { return a.builds }

func hostOf(rawURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
