// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package analytics

import (
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

// Snapshot derives the full metric snapshot for one community from its
// post-sync member set. The result is ready for append-only storage.
func Snapshot(community string, members []*models.Member, now time.Time) *models.MetricSnapshot {
	active := 0
	for _, m := range members {
		if revenueActive(m) {
			active++
		}
	}

	windowStart := now.Add(-churnWindow)
	mrr := MRR(members)
	arpu := ARPU(members)
	churnRate := ChurnRate(members, now)
	acquisition := float64(JoinedSince(members, windowStart, now))
	ceiling := MemberCeiling(acquisition, churnRate)

	return &models.MetricSnapshot{
		Community:       community,
		TakenAt:         now,
		MRR:             mrr,
		ARPU:            arpu,
		ChurnRate:       churnRate,
		ActiveMembers:   active,
		Churned30d:      ChurnedSince(members, windowStart, now),
		LTV:             LTV(arpu, churnRate),
		MemberCeiling:   ceiling,
		MRRCeiling:      MRRCeiling(ceiling, arpu),
		MonthsToCeiling: MonthsToCeiling(float64(active), ceiling, churnRate),
	}
}
