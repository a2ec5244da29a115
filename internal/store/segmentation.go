// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
segmentation.go - Read-Side Segmentation Queries

Pure selection queries over stored members and activity history. They
produce user ID sets and have no side effects; applying the resulting
segments is a separate write.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/models"
)

// ChurnRiskUserIDs selects active members whose authored activity in
// the lookback window falls within [min, max] and who have been offline
// at least the configured number of days. Disabled and pinned members
// are excluded; they are not outreach targets.
func (db *DB) ChurnRiskUserIDs(ctx context.Context, community string, cfg config.ChurnRiskConfig, now time.Time) ([]string, error) {
	lookbackCutoff := now.AddDate(0, 0, -cfg.LookbackDays)
	offlineCutoff := now.AddDate(0, 0, -cfg.MinDaysOffline)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.user_id
		FROM members m
		WHERE m.community = ?
		  AND m.status = ?
		  AND NOT m.disabled
		  AND NOT m.pinned
		  AND m.last_active_at <= ?
		  AND (
			SELECT count(*) FROM content_items c
			WHERE c.community = m.community
			  AND c.author_id = m.user_id
			  AND c.created_at >= ?
		  ) BETWEEN ? AND ?
		ORDER BY m.user_id`,
		community, string(models.StatusActive), offlineCutoff, lookbackCutoff,
		cfg.MinActivity, cfg.MaxActivity)
	if err != nil {
		return nil, fmt.Errorf("querying churn risk members: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// AscensionUserIDs selects active members who were online within the
// configured number of days and whose authored activity spans at least
// the minimum number of distinct days in the lookback window. Disabled
// and pinned members are excluded.
func (db *DB) AscensionUserIDs(ctx context.Context, community string, cfg config.AscensionConfig, now time.Time) ([]string, error) {
	lookbackCutoff := now.AddDate(0, 0, -cfg.LookbackDays)
	onlineCutoff := now.AddDate(0, 0, -cfg.MaxDaysOffline)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.user_id
		FROM members m
		WHERE m.community = ?
		  AND m.status = ?
		  AND NOT m.disabled
		  AND NOT m.pinned
		  AND m.last_active_at >= ?
		  AND (
			SELECT count(DISTINCT date_trunc('day', c.created_at))
			FROM content_items c
			WHERE c.community = m.community
			  AND c.author_id = m.user_id
			  AND c.created_at >= ?
		  ) >= ?
		ORDER BY m.user_id`,
		community, string(models.StatusActive), onlineCutoff, lookbackCutoff,
		cfg.MinActiveDays)
	if err != nil {
		return nil, fmt.Errorf("querying ascension members: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// OnboardingUserIDs selects active members whose tenure is under the
// configured maximum and whose post and comment counts are both under
// their minimums. Disabled and pinned members are excluded.
func (db *DB) OnboardingUserIDs(ctx context.Context, community string, cfg config.OnboardingConfig, now time.Time) ([]string, error) {
	joinedAfter := now.AddDate(0, 0, -cfg.MaxDaysInCommunity)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id FROM members
		WHERE community = ?
		  AND status = ?
		  AND NOT disabled
		  AND NOT pinned
		  AND joined_at > ?
		  AND post_count < ?
		  AND comment_count < ?
		ORDER BY user_id`,
		community, string(models.StatusActive), joinedAfter, cfg.MinPosts, cfg.MinComments)
	if err != nil {
		return nil, fmt.Errorf("querying onboarding members: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

type idRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectIDs(rows idRows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
