// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
buildid.go - Build Identifier Manager

The platform versions its _next/data endpoints with a build identifier
embedded in the landing page's __NEXT_DATA__ script tag. The identifier
rotates without notice; requests carrying a stale one return 404.

The manager caches one identifier per community slug and refreshes it
when a data request comes back not-found, bounded by a refresh limit so
a genuinely missing resource is not chased forever.
*/
package skool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
)

const nextDataMarker = `id="__NEXT_DATA__"`

// BuildManager caches and refreshes build identifiers per community.
// Safe for concurrent use.
type BuildManager struct {
	client       *Client
	baseURL      string
	policy       Policy
	refreshLimit int

	mu     sync.Mutex
	builds map[string]string
}

// NewBuildManager creates a manager scraping identifiers from pages
// under baseURL. refreshLimit bounds refresh-and-retry cycles per call;
// values below 1 are raised to 1.
func NewBuildManager(client *Client, baseURL string, policy Policy, refreshLimit int) *BuildManager {
	if refreshLimit < 1 {
		refreshLimit = 1
	}
	return &BuildManager{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		policy:       policy,
		refreshLimit: refreshLimit,
		builds:       make(map[string]string),
	}
}

// Get returns the cached identifier for slug, scraping one if none is
// cached yet.
func (b *BuildManager) Get(ctx context.Context, slug string) (string, error) {
	b.mu.Lock()
	cached, ok := b.builds[slug]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}
	return b.Refresh(ctx, slug)
}

// Refresh scrapes a fresh identifier from the community landing page
// and caches it.
func (b *BuildManager) Refresh(ctx context.Context, slug string) (string, error) {
	res, err := b.client.Do(ctx, Request{
		Method:   http.MethodGet,
		URL:      b.baseURL + "/" + slug,
		Endpoint: "landing_page",
	}, b.policy)
	if err != nil {
		return "", fmt.Errorf("fetching landing page for %s: %w", slug, err)
	}

	id, err := extractBuildID(res.Body)
	if err != nil {
		return "", fmt.Errorf("community %s: %w", slug, err)
	}

	b.mu.Lock()
	b.builds[slug] = id
	b.mu.Unlock()
	logging.Debug().Str("community", slug).Str("build_id", id).Msg("build identifier refreshed")
	return id, nil
}

// Invalidate drops the cached identifier for slug.
func (b *BuildManager) Invalidate(slug string) {
	b.mu.Lock()
	delete(b.builds, slug)
	b.mu.Unlock()
}

// WithBuild runs fn with the current build identifier, refreshing and
// retrying when fn reports not-found with a stale identifier. After the
// refresh limit is reached the not-found is accepted as real and
// returned to the caller.
func (b *BuildManager) WithBuild(ctx context.Context, slug string, fn func(buildID string) error) error {
	var lastErr error
	for i := 0; i <= b.refreshLimit; i++ {
		buildID, err := b.Get(ctx, slug)
		if err != nil {
			return err
		}
		err = fn(buildID)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err
		if i == b.refreshLimit {
			break
		}
		metrics.BuildRefreshesTotal.Inc()
		logging.Info().Str("community", slug).Int("refresh", i+1).Msg("stale build identifier, refreshing")
		b.Invalidate(slug)
	}
	return lastErr
}

// extractBuildID pulls the buildId field out of the __NEXT_DATA__
// script tag embedded in a landing page.
func extractBuildID(page []byte) (string, error) {
	html := string(page)
	idx := strings.Index(html, nextDataMarker)
	if idx < 0 {
		return "", ErrBuildNotFound
	}
	rest := html[idx:]
	open := strings.Index(rest, ">")
	if open < 0 {
		return "", ErrBuildNotFound
	}
	rest = rest[open+1:]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		return "", ErrBuildNotFound
	}

	var payload struct {
		BuildID string `json:"buildId"`
	}
	if err := json.Unmarshal([]byte(rest[:end]), &payload); err != nil {
		return "", fmt.Errorf("parsing __NEXT_DATA__: %w", err)
	}
	if payload.BuildID == "" {
		return "", ErrBuildNotFound
	}
	return payload.BuildID, nil
}
