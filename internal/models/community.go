// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is one admin account credential for an organization's
// community. Selected once per run by the credential selector and never
// mutated afterwards.
type Credential struct {
	Handle string
	Token  string
	OrgID  string
}

// Community binds an organization to its upstream slug and the build
// identifier currently in use. The build identifier is a versioning token
// the platform rotates; stale values cause not-found responses and must
// be refreshed before use.
type Community struct {
	OrgID   string
	Slug    string
	BuildID string
}

// MetricSnapshot is an immutable append-only record of the revenue and
// churn figures derived after a sync run.
type MetricSnapshot struct {
	ID        uuid.UUID
	Community string
	TakenAt   time.Time

	MRR           float64
	ARPU          float64
	ChurnRate     float64
	ActiveMembers int
	Churned30d    int

	// Growth figures derived from the churn-limited ceiling model.
	LTV             float64
	MemberCeiling   float64
	MRRCeiling      float64
	MonthsToCeiling float64
}

// MonthlyPoint is one completed historical month in the metrics time
// series.
type MonthlyPoint struct {
	Month         time.Time
	MRR           float64
	ChurnRate     float64
	ActiveMembers int
	NewMembers    int
	Churned       int
}
