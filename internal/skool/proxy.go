// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"fmt"
	"math/rand"
	"net/url"
	"sync"
)

// ProxyPool holds the configured outbound proxy endpoints. One endpoint
// is drawn at random per request attempt so that a retry after a
// transient failure goes out through a fresh proxy.
type ProxyPool struct {
	mu   sync.Mutex
	urls []*url.URL
	rnd  *rand.Rand
}

// NewProxyPool parses the configured proxy endpoints. An empty list
// yields a pool whose Draw always returns nil (direct connection).
func NewProxyPool(endpoints []string, seed int64) (*ProxyPool, error) {
	urls := make([]*url.URL, 0, len(endpoints))
	for _, e := range endpoints {
		u, err := url.Parse(e)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy endpoint %q: %w", e, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy endpoint %q: missing scheme or host", e)
		}
		urls = append(urls, u)
	}
	return &ProxyPool{
		urls: urls,
		rnd:  rand.New(rand.NewSource(seed)),
	}, nil
}

// Draw returns a randomly chosen proxy endpoint, or nil when the pool is
// empty.
func (p *ProxyPool) Draw() *url.URL {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.urls) == 0 {
		return nil
	}
	return p.urls[p.rnd.Intn(len(p.urls))]
}

// Size returns the number of configured endpoints.
func (p *ProxyPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.urls)
}
