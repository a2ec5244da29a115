// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"fmt"
)

// schemaStatements create the tables in dependency order. All writes
// are keyed by upstream external IDs, so every table's primary key is
// the merge key for idempotent upserts.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		community        VARCHAR NOT NULL,
		user_id          VARCHAR NOT NULL,
		handle           VARCHAR,
		first_name       VARCHAR,
		last_name        VARCHAR,
		email            VARCHAR,
		status           VARCHAR NOT NULL,
		segment          VARCHAR NOT NULL DEFAULT 'chillin',
		joined_at        TIMESTAMP,
		last_active_at   TIMESTAMP,
		cancelled_at     TIMESTAMP,
		churned_at       TIMESTAMP,
		price            DOUBLE NOT NULL DEFAULT 0,
		billing_interval VARCHAR NOT NULL DEFAULT '',
		post_count       INTEGER NOT NULL DEFAULT 0,
		comment_count    INTEGER NOT NULL DEFAULT 0,
		disabled         BOOLEAN NOT NULL DEFAULT false,
		pinned           BOOLEAN NOT NULL DEFAULT false,
		updated_at       TIMESTAMP NOT NULL,
		PRIMARY KEY (community, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id           VARCHAR PRIMARY KEY,
		community    VARCHAR NOT NULL,
		kind         VARCHAR NOT NULL,
		parent_id    VARCHAR,
		root_post_id VARCHAR,
		author_id    VARCHAR,
		created_at   TIMESTAMP,
		updated_at   TIMESTAMP,
		like_count   INTEGER NOT NULL DEFAULT 0,
		reply_count  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		community  VARCHAR NOT NULL,
		subject_id VARCHAR NOT NULL,
		user_id    VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (subject_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tag_assignments (
		community   VARCHAR NOT NULL,
		user_id     VARCHAR NOT NULL,
		label       VARCHAR NOT NULL,
		assigned_at TIMESTAMP NOT NULL,
		PRIMARY KEY (community, user_id, label)
	)`,
	`CREATE TABLE IF NOT EXISTS metric_snapshots (
		id                VARCHAR PRIMARY KEY,
		community         VARCHAR NOT NULL,
		taken_at          TIMESTAMP NOT NULL,
		mrr               DOUBLE NOT NULL,
		arpu              DOUBLE NOT NULL,
		churn_rate        DOUBLE NOT NULL,
		active_members    INTEGER NOT NULL,
		churned_30d       INTEGER NOT NULL,
		ltv               DOUBLE NOT NULL,
		member_ceiling    DOUBLE NOT NULL,
		mrr_ceiling       DOUBLE NOT NULL,
		months_to_ceiling DOUBLE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_author ON content_items (community, author_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_community ON metric_snapshots (community, taken_at)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}
