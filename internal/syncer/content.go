// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package syncer

import (
	"context"
	"fmt"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
)

// syncContent fetches the community feed and every post's flattened
// comment tree. A failed tree yields that post's partial items and the
// run continues with the next post.
func (e *Engine) syncContent(ctx context.Context, cred models.Credential, community string, res *Result) error {
	posts, err := e.upstream.FetchPosts(ctx, cred, community)
	if err != nil && len(posts) == 0 {
		return fmt.Errorf("fetching posts: %w", err)
	}
	if err != nil {
		logging.Warn().Str("community", community).Err(err).Msg("post listing incomplete")
		res.Failures++
	}
	if upErr := e.store.UpsertContent(ctx, posts); upErr != nil {
		return fmt.Errorf("storing posts: %w", upErr)
	}
	res.ContentItems += len(posts)
	metrics.SyncItemsTotal.WithLabelValues(community, "post").Add(float64(len(posts)))

	var firstErr error
	for _, post := range posts {
		if post.ReplyCount == 0 {
			continue
		}
		tree, treeErr := e.upstream.FetchCommentTree(ctx, cred, community, post.ID)
		if treeErr != nil {
			logging.Warn().Str("community", community).Str("post", post.ID).Err(treeErr).Msg("comment tree incomplete")
			metrics.SyncFailuresTotal.WithLabelValues(community, "comment_tree").Inc()
			res.Failures++
			if firstErr == nil {
				firstErr = treeErr
			}
			if len(tree) == 0 {
				continue
			}
		}
		if upErr := e.store.UpsertContent(ctx, tree); upErr != nil {
			return fmt.Errorf("storing comment tree for %s: %w", post.ID, upErr)
		}
		res.ContentItems += len(tree)
		metrics.SyncItemsTotal.WithLabelValues(community, "comment").Add(float64(len(tree)))
	}
	return firstErr
}
