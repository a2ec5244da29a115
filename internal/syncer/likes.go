// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
likes.go - Add-Only Like Synchronization

The upstream does not reliably report unlikes, so the stored like set
is monotonically non-decreasing: each sync inserts the set difference
between current upstream likers and stored likers, and never deletes.
*/
package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
)

// SyncSubjectLikes reconciles the likers of one subject (post or
// comment) and returns the number of new pairs inserted.
func (e *Engine) SyncSubjectLikes(ctx context.Context, cred models.Credential, community, subjectID string) (int, error) {
	current, err := e.upstream.FetchLikers(ctx, cred.Token, subjectID)
	if err != nil && len(current) == 0 {
		return 0, fmt.Errorf("fetching likers for %s: %w", subjectID, err)
	}

	stored, storeErr := e.store.Likers(ctx, subjectID)
	if storeErr != nil {
		return 0, storeErr
	}

	now := e.now()
	var fresh []models.Like
	seen := make(map[string]bool, len(current))
	for _, userID := range current {
		if stored[userID] || seen[userID] {
			continue
		}
		seen[userID] = true
		fresh = append(fresh, models.Like{
			Community: community,
			SubjectID: subjectID,
			UserID:    userID,
			CreatedAt: now,
		})
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].UserID < fresh[j].UserID })

	if err := e.store.InsertLikes(ctx, fresh); err != nil {
		return 0, fmt.Errorf("inserting likes for %s: %w", subjectID, err)
	}
	metrics.SyncItemsTotal.WithLabelValues(community, "like_inserted").Add(float64(len(fresh)))
	return len(fresh), err
}

// syncLikes walks every stored content subject and reconciles its
// likers. A failed subject is skipped; the walk continues.
func (e *Engine) syncLikes(ctx context.Context, cred models.Credential, community string, res *Result) error {
	var firstErr error
	for _, kind := range []models.ContentKind{models.KindPost, models.KindComment, models.KindReply} {
		ids, err := e.store.ContentIDs(ctx, community, kind)
		if err != nil {
			return err
		}
		for _, id := range ids {
			inserted, err := e.SyncSubjectLikes(ctx, cred, community, id)
			res.NewLikes += inserted
			if err != nil {
				logging.Warn().Str("community", community).Str("subject", id).Err(err).Msg("like sync incomplete for subject")
				metrics.SyncFailuresTotal.WithLabelValues(community, "likes").Inc()
				res.Failures++
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}
