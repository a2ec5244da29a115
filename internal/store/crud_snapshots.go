// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PATRICK079/skool-data/internal/models"
)

// InsertSnapshot appends one metric snapshot. Snapshots are immutable;
// there is no update path.
func (db *DB) InsertSnapshot(ctx context.Context, s *models.MetricSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO metric_snapshots
		(id, community, taken_at, mrr, arpu, churn_rate, active_members, churned_30d,
		 ltv, member_ceiling, mrr_ceiling, months_to_ceiling)
		VALUES (`+placeholders(12)+`)`,
		s.ID.String(), s.Community, s.TakenAt, s.MRR, s.ARPU, s.ChurnRate,
		s.ActiveMembers, s.Churned30d, s.LTV, s.MemberCeiling, s.MRRCeiling, s.MonthsToCeiling)
	if err != nil {
		return fmt.Errorf("inserting snapshot for %s: %w", s.Community, err)
	}
	return nil
}

// Snapshots returns a community's snapshots ordered oldest first.
func (db *DB) Snapshots(ctx context.Context, community string, since time.Time) ([]*models.MetricSnapshot, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, community, taken_at, mrr, arpu, churn_rate, active_members, churned_30d,
		ltv, member_ceiling, mrr_ceiling, months_to_ceiling
		FROM metric_snapshots WHERE community = ? AND taken_at >= ? ORDER BY taken_at`,
		community, since)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []*models.MetricSnapshot
	for rows.Next() {
		var (
			s  models.MetricSnapshot
			id string
		)
		if err := rows.Scan(&id, &s.Community, &s.TakenAt, &s.MRR, &s.ARPU, &s.ChurnRate,
			&s.ActiveMembers, &s.Churned30d, &s.LTV, &s.MemberCeiling, &s.MRRCeiling,
			&s.MonthsToCeiling); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("snapshot with malformed id %q: %w", id, err)
		}
		s.ID = parsed
		out = append(out, &s)
	}
	return out, rows.Err()
}
