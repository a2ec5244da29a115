// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
members.go - Member Upsert and Churn Reconciliation

The upstream member listing is authoritative. Each fetched record is
merged by external user ID with writes skipped for unchanged rows, then
the stored active set is diffed against the fetched one:

  - stored-active but absent upstream        -> churned
  - fetched-active but stored as churned     -> reactivated
  - everyone else                            -> untouched

The transition writes happen in one store transaction per community.
*/
package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
)

// syncMembers fetches all three membership tabs, merges every record,
// and applies churn transitions atomically.
func (e *Engine) syncMembers(ctx context.Context, cred models.Credential, community string, res *Result) error {
	now := e.now()

	stored, err := e.store.GetMembers(ctx, community, "")
	if err != nil {
		return err
	}
	storedByID := make(map[string]*models.Member, len(stored))
	storedActive := make(map[string]bool)
	for _, m := range stored {
		storedByID[m.UserID] = m
		if m.Status == models.StatusActive {
			storedActive[m.UserID] = true
		}
	}

	fetchedActive := make(map[string]bool)
	for _, status := range []models.MembershipStatus{models.StatusActive, models.StatusCancelling, models.StatusChurned} {
		members, _, err := e.upstream.FetchMembers(ctx, cred, community, status)
		if err != nil && len(members) == 0 {
			return fmt.Errorf("fetching %s members: %w", status, err)
		}
		if err != nil {
			// Partial listing: merge what arrived, but skip the churn
			// diff below so absent members are not misread as churned.
			res.Failures++
			e.upsertAll(ctx, community, members, storedByID, res)
			return fmt.Errorf("fetching %s members incomplete: %w", status, err)
		}
		if status == models.StatusActive {
			for _, m := range members {
				fetchedActive[m.UserID] = true
			}
		}
		e.upsertAll(ctx, community, members, storedByID, res)
	}

	// Set difference against the stored active picture. Sorted for
	// deterministic batches and logs.
	var churned, reactivated []string
	for id := range storedActive {
		if !fetchedActive[id] {
			churned = append(churned, id)
		}
	}
	for id := range fetchedActive {
		if m, ok := storedByID[id]; ok && m.Status == models.StatusChurned {
			// Already rewritten as active by the upsert above, listed
			// here only for the transition count. Cancelling members
			// stay in the active tab and are not comebacks.
			reactivated = append(reactivated, id)
		}
	}
	sort.Strings(churned)
	sort.Strings(reactivated)

	if len(churned) > 0 {
		if err := e.store.ApplyChurnTransitions(ctx, community, churned, nil, now); err != nil {
			return fmt.Errorf("applying churn transitions: %w", err)
		}
	}
	res.Churned = len(churned)
	res.Reactivated = len(reactivated)
	metrics.SyncItemsTotal.WithLabelValues(community, "member_churned").Add(float64(len(churned)))
	metrics.SyncItemsTotal.WithLabelValues(community, "member_reactivated").Add(float64(len(reactivated)))
	return nil
}

// upsertAll merges fetched members, preserving locally assigned
// segments: the segment is outreach state, not upstream data.
func (e *Engine) upsertAll(ctx context.Context, community string, members []*models.Member, storedByID map[string]*models.Member, res *Result) {
	for _, m := range members {
		if prev, ok := storedByID[m.UserID]; ok {
			m.Segment = prev.Segment
		} else if m.Segment == "" {
			m.Segment = models.SegmentChillin
		}
		written, err := e.store.UpsertMember(ctx, m)
		if err != nil {
			metrics.SyncFailuresTotal.WithLabelValues(community, "member_upsert").Inc()
			res.Failures++
			continue
		}
		if written {
			res.MembersUpserted++
			metrics.SyncItemsTotal.WithLabelValues(community, "member_upserted").Inc()
		} else {
			res.MembersUnchanged++
		}
	}
}
