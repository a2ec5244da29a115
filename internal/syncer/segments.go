// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
segments.go - Segment and Tag Assignment

Segments drive outreach. Each run first resets every member to the
default segment, then overwrites the segment for exactly the members
the read-side queries select, in bounded batches so one bad batch can
be retried as a whole unit without touching the others.
*/
package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
)

// assignSegments recomputes the segmentation for a community: fading
// members become churn_risk, consistently engaged members become hot,
// disengaged newcomers get the onboarding tag. Hot is assigned last so
// an engaged member never stays flagged as at risk.
func (e *Engine) assignSegments(ctx context.Context, community string, res *Result) error {
	now := e.now()

	if err := e.store.ResetSegments(ctx, community, now); err != nil {
		return fmt.Errorf("resetting segments: %w", err)
	}

	atRisk, err := e.store.ChurnRiskUserIDs(ctx, community, e.seg.ChurnRisk, now)
	if err != nil {
		return fmt.Errorf("selecting churn risk members: %w", err)
	}
	if err := e.setSegmentBatched(ctx, community, atRisk, models.SegmentChurnRisk); err != nil {
		return err
	}
	res.ChurnRisk = len(atRisk)

	ascending, err := e.store.AscensionUserIDs(ctx, community, e.seg.Ascension, now)
	if err != nil {
		return fmt.Errorf("selecting ascension members: %w", err)
	}
	if err := e.setSegmentBatched(ctx, community, ascending, models.SegmentHot); err != nil {
		return err
	}
	res.Ascension = len(ascending)
	metrics.SyncItemsTotal.WithLabelValues(community, "status_assigned").Add(float64(len(atRisk) + len(ascending)))

	onboarding, err := e.store.OnboardingUserIDs(ctx, community, e.seg.Onboarding, now)
	if err != nil {
		return fmt.Errorf("selecting onboarding members: %w", err)
	}
	res.Onboarding = len(onboarding)

	tags := make([]models.TagAssignment, 0, len(onboarding))
	for _, id := range onboarding {
		tags = append(tags, models.TagAssignment{
			Community:  community,
			UserID:     id,
			Label:      NormalizeTag("Needs Onboarding"),
			AssignedAt: now,
		})
	}
	if err := e.applyTagsBatched(ctx, tags); err != nil {
		return fmt.Errorf("applying onboarding tags: %w", err)
	}
	metrics.SyncItemsTotal.WithLabelValues(community, "tag_assigned").Add(float64(len(tags)))
	return nil
}

// AssignSegment overwrites the segment for exactly the listed members.
func (e *Engine) AssignSegment(ctx context.Context, community string, userIDs []string, segment models.Segment) error {
	return e.setSegmentBatched(ctx, community, userIDs, segment)
}

// setSegmentBatched writes segment assignments in batches. A failed
// batch fails whole and is reported; earlier batches stand.
func (e *Engine) setSegmentBatched(ctx context.Context, community string, userIDs []string, segment models.Segment) error {
	now := e.now()
	for start := 0; start < len(userIDs); start += e.batch {
		end := start + e.batch
		if end > len(userIDs) {
			end = len(userIDs)
		}
		if err := e.store.SetSegment(ctx, community, userIDs[start:end], segment, now); err != nil {
			return fmt.Errorf("assigning segment %s (batch %d-%d): %w", segment, start, end, err)
		}
	}
	return nil
}

// applyTagsBatched writes tag assignments in the same bounded batches
// as segment writes.
func (e *Engine) applyTagsBatched(ctx context.Context, tags []models.TagAssignment) error {
	for start := 0; start < len(tags); start += e.batch {
		end := start + e.batch
		if end > len(tags) {
			end = len(tags)
		}
		if err := e.store.ApplyTags(ctx, tags[start:end]); err != nil {
			return fmt.Errorf("applying tags (batch %d-%d): %w", start, end, err)
		}
	}
	return nil
}

// NormalizeTag lowercases a label and replaces spaces with underscores
// so tags compare stably across runs.
func NormalizeTag(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}
