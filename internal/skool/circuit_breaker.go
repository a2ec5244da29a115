// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
)

// CircuitBreaker guards HTTP attempts against a persistently failing
// upstream. Only transport-level failures count against the breaker;
// HTTP error statuses still reach the retry classifier, which owns the
// transient/terminal decision.
//
// The breaker trips at >=60% transport failures over a window with at
// least 10 requests, stays open for 2 minutes, then allows 3 probe
// requests in half-open state.
type CircuitBreaker struct {
	host string
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// NewCircuitBreaker creates a breaker for the given upstream host. The
// host is only used for logging and metric labels.
func NewCircuitBreaker(host string) *CircuitBreaker {
	b := &CircuitBreaker{host: host}
	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        host,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logging.Warn().
				Str("host", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(host).Set(stateValue(gobreaker.StateClosed))
	return b
}

// Do executes the request through the breaker. When the breaker is open
// the request is rejected without touching the network.
func (b *CircuitBreaker) Do(client *http.Client, req *http.Request) (*http.Response, error) {
	return b.cb.Execute(func() (*http.Response, error) {
		return client.Do(req)
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
