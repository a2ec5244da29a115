// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

const memberColumns = `community, user_id, handle, first_name, last_name, email,
	status, segment, joined_at, last_active_at, cancelled_at, churned_at,
	price, billing_interval, post_count, comment_count, disabled, pinned`

// GetMember fetches one member, or nil when absent.
func (db *DB) GetMember(ctx context.Context, community, userID string) (*models.Member, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE community = ? AND user_id = ?`,
		community, userID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// GetMembers fetches all members of a community, optionally filtered by
// status. An empty status returns every member.
func (db *DB) GetMembers(ctx context.Context, community string, status models.MembershipStatus) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE community = ?`
	args := []any{community}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY user_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ActiveUserIDs returns the IDs of members currently stored as active.
func (db *DB) ActiveUserIDs(ctx context.Context, community string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM members WHERE community = ? AND status = ? ORDER BY user_id`,
		community, string(models.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("querying active user ids: %w", err)
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

// UpsertMember merges one member by (community, user_id). Returns true
// when a row was written; an unchanged record is not rewritten.
func (db *DB) UpsertMember(ctx context.Context, m *models.Member) (bool, error) {
	existing, err := db.GetMember(ctx, m.Community, m.UserID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.Equal(m) {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO members (`+memberColumns+`, updated_at)
		VALUES (`+placeholders(19)+`)
		ON CONFLICT (community, user_id) DO UPDATE SET
			handle = excluded.handle,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			status = excluded.status,
			segment = excluded.segment,
			joined_at = excluded.joined_at,
			last_active_at = excluded.last_active_at,
			cancelled_at = excluded.cancelled_at,
			churned_at = excluded.churned_at,
			price = excluded.price,
			billing_interval = excluded.billing_interval,
			post_count = excluded.post_count,
			comment_count = excluded.comment_count,
			disabled = excluded.disabled,
			pinned = excluded.pinned,
			updated_at = excluded.updated_at`,
		m.Community, m.UserID, m.Handle, m.FirstName, m.LastName, m.Email,
		string(m.Status), string(m.Segment), m.JoinedAt, m.LastActiveAt,
		nullTime(m.CancelledAt), nullTime(m.ChurnedAt),
		m.Price, string(m.Interval), m.PostCount, m.CommentCount,
		m.Disabled, m.Pinned, time.Now())
	if err != nil {
		return false, fmt.Errorf("upserting member %s/%s: %w", m.Community, m.UserID, err)
	}
	return true, nil
}

// ApplyChurnTransitions marks the given members churned and reactivated
// in a single transaction, so a partial failure never leaves the
// community's member set in a mixed state.
func (db *DB) ApplyChurnTransitions(ctx context.Context, community string, churned, reactivated []string, now time.Time) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if len(churned) > 0 {
			args := []any{string(models.StatusChurned), now, now, community}
			for _, id := range churned {
				args = append(args, id)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE members SET status = ?, churned_at = ?, updated_at = ?
				 WHERE community = ? AND user_id IN (`+placeholders(len(churned))+`)`,
				args...); err != nil {
				return fmt.Errorf("marking members churned: %w", err)
			}
		}
		if len(reactivated) > 0 {
			args := []any{string(models.StatusActive), now, community}
			for _, id := range reactivated {
				args = append(args, id)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE members SET status = ?, churned_at = NULL, cancelled_at = NULL, updated_at = ?
				 WHERE community = ? AND user_id IN (`+placeholders(len(reactivated))+`)`,
				args...); err != nil {
				return fmt.Errorf("reactivating members: %w", err)
			}
		}
		return nil
	})
}

// SetMemberStatus moves the listed members to the given membership
// status inside one transaction.
func (db *DB) SetMemberStatus(ctx context.Context, community string, userIDs []string, status models.MembershipStatus, now time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		args := []any{string(status), now, community}
		for _, id := range userIDs {
			args = append(args, id)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE members SET status = ?, updated_at = ?
			 WHERE community = ? AND user_id IN (`+placeholders(len(userIDs))+`)`,
			args...)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m                      models.Member
		status, segment, ival  string
		joined, lastActive     sql.NullTime
		cancelledAt, churnedAt sql.NullTime
	)
	err := row.Scan(&m.Community, &m.UserID, &m.Handle, &m.FirstName, &m.LastName, &m.Email,
		&status, &segment, &joined, &lastActive, &cancelledAt, &churnedAt,
		&m.Price, &ival, &m.PostCount, &m.CommentCount, &m.Disabled, &m.Pinned)
	if err != nil {
		return nil, err
	}
	m.Status = models.MembershipStatus(status)
	m.Segment = models.Segment(segment)
	m.Interval = models.BillingInterval(ival)
	if joined.Valid {
		m.JoinedAt = joined.Time
	}
	if lastActive.Valid {
		m.LastActiveAt = lastActive.Time
	}
	m.CancelledAt = timePtr(cancelledAt)
	m.ChurnedAt = timePtr(churnedAt)
	return &m, nil
}
