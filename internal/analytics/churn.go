// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package analytics

import (
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

// churnWindow is the trailing window for the headline churn rate.
const churnWindow = 30 * 24 * time.Hour

// ChurnRate computes the trailing 30-day churn rate: members churned
// within the window divided by members active at the window start. A
// zero denominator yields zero, not an error.
func ChurnRate(members []*models.Member, now time.Time) float64 {
	windowStart := now.Add(-churnWindow)
	churned := ChurnedSince(members, windowStart, now)
	base := activeAt(members, windowStart)
	if base == 0 {
		return 0
	}
	return float64(churned) / float64(base)
}

// ChurnedSince counts members whose churn landed in (from, to].
func ChurnedSince(members []*models.Member, from, to time.Time) int {
	n := 0
	for _, m := range members {
		if m.ChurnedAt == nil {
			continue
		}
		if m.ChurnedAt.After(from) && !m.ChurnedAt.After(to) {
			n++
		}
	}
	return n
}

// JoinedSince counts members who joined in (from, to].
func JoinedSince(members []*models.Member, from, to time.Time) int {
	n := 0
	for _, m := range members {
		if m.JoinedAt.After(from) && !m.JoinedAt.After(to) {
			n++
		}
	}
	return n
}

// activeAt counts members who had joined by t and had not churned yet.
// Cancelling members still hold access and count as active.
func activeAt(members []*models.Member, t time.Time) int {
	n := 0
	for _, m := range members {
		if m.JoinedAt.After(t) {
			continue
		}
		if m.ChurnedAt != nil && !m.ChurnedAt.After(t) {
			continue
		}
		n++
	}
	return n
}
