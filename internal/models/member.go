// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package models defines the domain entities shared by the extraction,
// synchronization, and analytics layers. External IDs are the sole merge
// keys; every entity is addressed by the upstream platform's stable ID.
package models

import "time"

// MembershipStatus is the billing-level membership state.
type MembershipStatus string

// Membership states. A member moves active -> cancelling (subscription
// cancelled, access retained until period end) -> churned, or directly
// active -> churned.
const (
	StatusActive     MembershipStatus = "active"
	StatusCancelling MembershipStatus = "cancelling"
	StatusChurned    MembershipStatus = "churned"
)

// Segment is the outreach segmentation label, distinct from membership
// status. Assigning a segment overwrites the previous one.
type Segment string

// Fixed segment labels.
const (
	SegmentChillin   Segment = "chillin"
	SegmentChurnRisk Segment = "churn_risk"
	SegmentHot       Segment = "hot"
)

// BillingInterval is the upstream billing unit of a subscription.
type BillingInterval string

// Billing intervals as reported by the platform's billing products.
const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
	IntervalOneTime BillingInterval = "one_time"
	IntervalNone    BillingInterval = ""
)

// Member is one community member, merged by (Community, UserID).
type Member struct {
	Community string
	UserID    string
	Handle    string
	FirstName string
	LastName  string
	Email     string

	Status       MembershipStatus
	Segment      Segment
	JoinedAt     time.Time
	LastActiveAt time.Time
	CancelledAt  *time.Time
	ChurnedAt    *time.Time

	// Price is the subscription price in the billing interval's unit.
	// Zero with IntervalNone means an unpaid member.
	Price    float64
	Interval BillingInterval

	PostCount    int
	CommentCount int

	// Disabled and Pinned members are skipped by segment assignment.
	Disabled bool
	Pinned   bool
}

// MonthlyPrice returns the member's subscription price normalized to one
// month. Annual plans divide by 12; one-time purchases and unpaid members
// contribute nothing to recurring revenue.
func (m *Member) MonthlyPrice() float64 {
	switch m.Interval {
	case IntervalMonthly:
		return m.Price
	case IntervalAnnual:
		return m.Price / 12
	default:
		return 0
	}
}

// Equal reports whether two member records carry identical upstream
// fields. Used to skip rewrites of unchanged rows.
func (m *Member) Equal(o *Member) bool {
	if m.Community != o.Community || m.UserID != o.UserID {
		return false
	}
	if m.Handle != o.Handle || m.FirstName != o.FirstName || m.LastName != o.LastName || m.Email != o.Email {
		return false
	}
	if m.Status != o.Status || m.Segment != o.Segment {
		return false
	}
	if !m.JoinedAt.Equal(o.JoinedAt) || !m.LastActiveAt.Equal(o.LastActiveAt) {
		return false
	}
	if !timePtrEqual(m.CancelledAt, o.CancelledAt) || !timePtrEqual(m.ChurnedAt, o.ChurnedAt) {
		return false
	}
	if m.Price != o.Price || m.Interval != o.Interval {
		return false
	}
	if m.PostCount != o.PostCount || m.CommentCount != o.CommentCount {
		return false
	}
	return m.Disabled == o.Disabled && m.Pinned == o.Pinned
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
