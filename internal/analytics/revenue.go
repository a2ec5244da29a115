// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package analytics derives revenue and churn figures from member
// snapshots. Everything here is a pure computation over the post-sync
// member set; persistence and export are the caller's concern.
package analytics

import (
	"math"

	"github.com/PATRICK079/skool-data/internal/models"
)

// revenueActive reports whether a member still contributes revenue.
// Members in their cancellation window keep paying until the
// subscription actually ends, so only churned members fall out.
func revenueActive(m *models.Member) bool {
	return m.Status != models.StatusChurned
}

// MRR sums the normalized monthly price of every revenue-active paid
// member. Annual plans contribute a twelfth of their price; one-time
// purchases and unpaid members contribute zero.
func MRR(members []*models.Member) float64 {
	var total float64
	for _, m := range members {
		if !revenueActive(m) {
			continue
		}
		total += m.MonthlyPrice()
	}
	return total
}

// ARPU is the average monthly revenue per revenue-active member, zero
// when the community has none.
func ARPU(members []*models.Member) float64 {
	active := 0
	for _, m := range members {
		if revenueActive(m) {
			active++
		}
	}
	if active == 0 {
		return 0
	}
	return MRR(members) / float64(active)
}

// LTV estimates member lifetime value as ARPU divided by the monthly
// churn rate. A zero churn rate yields zero rather than infinity; with
// no observed churn the estimate is meaningless.
func LTV(arpu, churnRate float64) float64 {
	if churnRate <= 0 {
		return 0
	}
	return arpu / churnRate
}

// MemberCeiling is the equilibrium community size where monthly churn
// cancels monthly acquisition.
func MemberCeiling(monthlyAcquisition float64, churnRate float64) float64 {
	if churnRate <= 0 {
		return 0
	}
	return monthlyAcquisition / churnRate
}

// MRRCeiling is the recurring revenue at the member ceiling assuming
// ARPU holds.
func MRRCeiling(memberCeiling, arpu float64) float64 {
	return memberCeiling * arpu
}

// MonthsToCeiling estimates how many months until the active member
// count reaches 95% of the ceiling, assuming constant acquisition and
// churn. The gap to the ceiling decays by the churn rate each month.
// Returns zero when the ceiling is unreachable or already reached.
func MonthsToCeiling(active, ceiling, churnRate float64) float64 {
	if ceiling <= 0 || churnRate <= 0 || churnRate >= 1 {
		return 0
	}
	gap := 1 - active/ceiling
	if gap <= 0.05 {
		return 0
	}
	return math.Log(gap/0.05) / math.Log(1/(1-churnRate))
}
