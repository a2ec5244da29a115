// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package analytics

import (
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

// MonthlySeries recomputes MRR and churn for every completed historical
// month from the earliest join onward, ordered by month. The current
// partial month is never included.
//
// Point-in-time membership is reconstructed from join and churn
// timestamps; prices are the members' current prices, the closest
// approximation available without historical billing records.
func MonthlySeries(members []*models.Member, now time.Time) []models.MonthlyPoint {
	if len(members) == 0 {
		return nil
	}

	earliest := now
	for _, m := range members {
		if !m.JoinedAt.IsZero() && m.JoinedAt.Before(earliest) {
			earliest = m.JoinedAt
		}
	}

	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	month := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, now.Location())

	var series []models.MonthlyPoint
	for month.Before(currentMonth) {
		monthEnd := month.AddDate(0, 1, 0)

		activeAtStart := activeAt(members, month)
		churned := ChurnedSince(members, month, monthEnd)
		point := models.MonthlyPoint{
			Month:         month,
			ActiveMembers: activeAt(members, monthEnd),
			NewMembers:    JoinedSince(members, month, monthEnd),
			Churned:       churned,
			MRR:           mrrAt(members, monthEnd),
		}
		if activeAtStart > 0 {
			point.ChurnRate = float64(churned) / float64(activeAtStart)
		}
		series = append(series, point)
		month = monthEnd
	}
	return series
}

// mrrAt sums normalized monthly prices over members active at t.
func mrrAt(members []*models.Member, t time.Time) float64 {
	var total float64
	for _, m := range members {
		if m.JoinedAt.After(t) {
			continue
		}
		if m.ChurnedAt != nil && !m.ChurnedAt.After(t) {
			continue
		}
		total += m.MonthlyPrice()
	}
	return total
}
