// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PATRICK079/skool-data/internal/models"
)

// Likers returns the stored liker user IDs for one subject.
func (db *DB) Likers(ctx context.Context, subjectID string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM likes WHERE subject_id = ?`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying likers for %s: %w", subjectID, err)
	}
	defer rows.Close()

	likers := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		likers[id] = true
	}
	return likers, rows.Err()
}

// InsertLikes adds like pairs in one transaction. Existing pairs are
// ignored, never rewritten; the stored set only grows.
func (db *DB) InsertLikes(ctx context.Context, likes []models.Like) error {
	if len(likes) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range likes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO likes (community, subject_id, user_id, created_at)
				 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				l.Community, l.SubjectID, l.UserID, l.CreatedAt); err != nil {
				return fmt.Errorf("inserting like %s/%s: %w", l.SubjectID, l.UserID, err)
			}
		}
		return nil
	})
}

// LikeCount returns the number of stored likes for a subject.
func (db *DB) LikeCount(ctx context.Context, subjectID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM likes WHERE subject_id = ?`, subjectID).Scan(&n)
	return n, err
}
