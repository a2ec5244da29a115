// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

// SetSegment overwrites the segmentation label for exactly the listed
// members. Prior segments of unlisted members are left alone.
func (db *DB) SetSegment(ctx context.Context, community string, userIDs []string, segment models.Segment, now time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		args := []any{string(segment), now, community}
		for _, id := range userIDs {
			args = append(args, id)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE members SET segment = ?, updated_at = ?
			 WHERE community = ? AND user_id IN (`+placeholders(len(userIDs))+`)`,
			args...)
		if err != nil {
			return fmt.Errorf("setting segment %s: %w", segment, err)
		}
		return nil
	})
}

// ResetSegments moves every member of the community back to the
// default segment irrespective of current value.
func (db *DB) ResetSegments(ctx context.Context, community string, now time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE members SET segment = ?, updated_at = ? WHERE community = ?`,
		string(models.SegmentChillin), now, community)
	if err != nil {
		return fmt.Errorf("resetting segments: %w", err)
	}
	return nil
}

// SegmentUserIDs returns the members currently carrying a segment.
func (db *DB) SegmentUserIDs(ctx context.Context, community string, segment models.Segment) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM members WHERE community = ? AND segment = ? ORDER BY user_id`,
		community, string(segment))
	if err != nil {
		return nil, fmt.Errorf("querying segment %s: %w", segment, err)
	}
	defer rows.Close()

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

// ApplyTags stores free-form tag assignments. Re-applying an existing
// tag refreshes its timestamp.
func (db *DB) ApplyTags(ctx context.Context, tags []models.TagAssignment) error {
	if len(tags) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tag_assignments (community, user_id, label, assigned_at)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT (community, user_id, label) DO UPDATE SET assigned_at = excluded.assigned_at`,
				t.Community, t.UserID, t.Label, t.AssignedAt); err != nil {
				return fmt.Errorf("applying tag %s to %s: %w", t.Label, t.UserID, err)
			}
		}
		return nil
	})
}
