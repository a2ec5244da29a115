// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PATRICK079/skool-data/internal/models"
)

func paidMember(userID string, price float64, interval models.BillingInterval) *models.Member {
	return &models.Member{
		Community: "ai-builders",
		UserID:    userID,
		Status:    models.StatusActive,
		Price:     price,
		Interval:  interval,
	}
}

func TestMRRSumsActivePaidMembers(t *testing.T) {
	members := []*models.Member{
		paidMember("u1", 29, models.IntervalMonthly),
		paidMember("u2", 19, models.IntervalMonthly),
		paidMember("u3", 0, models.IntervalNone),
	}
	assert.InDelta(t, 48.00, MRR(members), 1e-9)
}

func TestMRRNormalizesAnnualPlans(t *testing.T) {
	members := []*models.Member{
		paidMember("u1", 240, models.IntervalAnnual),
		paidMember("u2", 10, models.IntervalMonthly),
	}
	assert.InDelta(t, 30.00, MRR(members), 1e-9)
}

func TestMRRCountsCancellingMembers(t *testing.T) {
	cancelling := paidMember("u1", 29, models.IntervalMonthly)
	cancelling.Status = models.StatusCancelling
	members := []*models.Member{cancelling, paidMember("u2", 19, models.IntervalMonthly)}

	// A member in the cancellation window keeps paying until the
	// subscription actually ends.
	assert.InDelta(t, 48.00, MRR(members), 1e-9)
	assert.InDelta(t, 24.00, ARPU(members), 1e-9)
}

func TestMRRIgnoresInactiveAndOneTime(t *testing.T) {
	churned := paidMember("u1", 100, models.IntervalMonthly)
	churned.Status = models.StatusChurned
	members := []*models.Member{
		churned,
		paidMember("u2", 99, models.IntervalOneTime),
		paidMember("u3", 25, models.IntervalMonthly),
	}
	assert.InDelta(t, 25.00, MRR(members), 1e-9)
}

func TestARPU(t *testing.T) {
	members := []*models.Member{
		paidMember("u1", 30, models.IntervalMonthly),
		paidMember("u2", 10, models.IntervalMonthly),
		paidMember("u3", 0, models.IntervalNone), // free members dilute ARPU
	}
	assert.InDelta(t, 40.0/3, ARPU(members), 1e-9)
	assert.Zero(t, ARPU(nil))
}

func TestLTV(t *testing.T) {
	assert.InDelta(t, 400, LTV(20, 0.05), 1e-9)
	assert.Zero(t, LTV(20, 0), "no observed churn yields no estimate")
}

func TestCeilings(t *testing.T) {
	// 10 joins a month at 5% churn settles at 200 members.
	assert.InDelta(t, 200, MemberCeiling(10, 0.05), 1e-9)
	assert.Zero(t, MemberCeiling(10, 0))
	assert.InDelta(t, 4000, MRRCeiling(200, 20), 1e-9)
}

func TestMonthsToCeiling(t *testing.T) {
	tests := []struct {
		name     string
		active   float64
		ceiling  float64
		churn    float64
		wantZero bool
	}{
		{"already at ceiling", 200, 200, 0.05, true},
		{"within five percent", 195, 200, 0.05, true},
		{"no ceiling", 50, 0, 0.05, true},
		{"no churn", 50, 200, 0, true},
		{"growing community", 50, 200, 0.05, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsToCeiling(tt.active, tt.ceiling, tt.churn)
			if tt.wantZero {
				assert.Zero(t, got)
				return
			}
			assert.Greater(t, got, 0.0)
		})
	}

	// The gap decays by the churn rate each month, so halving the gap
	// takes longer at lower churn.
	slow := MonthsToCeiling(50, 200, 0.02)
	fast := MonthsToCeiling(50, 200, 0.10)
	assert.Greater(t, slow, fast)
}
