// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"fmt"

	"github.com/PATRICK079/skool-data/internal/models"
)

// UpsertContent merges content items by ID. Engagement counters move
// with every fetch, so content rows are always rewritten on conflict.
func (db *DB) UpsertContent(ctx context.Context, items []*models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO content_items
			(id, community, kind, parent_id, root_post_id, author_id, created_at, updated_at, like_count, reply_count)
			VALUES (`+placeholders(10)+`)
			ON CONFLICT (id) DO UPDATE SET
				updated_at = excluded.updated_at,
				like_count = excluded.like_count,
				reply_count = excluded.reply_count`,
			item.ID, item.Community, string(item.Kind), item.ParentID, item.RootPostID,
			item.AuthorID, item.CreatedAt, item.UpdatedAt, item.LikeCount, item.ReplyCount)
		if err != nil {
			return fmt.Errorf("upserting content %s: %w", item.ID, err)
		}
	}
	return nil
}

// ContentIDs returns all content item IDs for a community, optionally
// restricted to one kind.
func (db *DB) ContentIDs(ctx context.Context, community string, kind models.ContentKind) ([]string, error) {
	query := `SELECT id FROM content_items WHERE community = ?`
	args := []any{community}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying content ids: %w", err)
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
