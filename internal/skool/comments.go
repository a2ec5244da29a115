// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
comments.go - Comment Tree Extraction and Flattening

Comments under a post use watermark pagination: each batch carries a
"last" timestamp fed back as created_gt, and a zero or repeated
watermark ends the listing. Each comment's replies are a separate
cursor-paginated listing.

The tree (post -> comments -> replies) is flattened iteratively with an
explicit work list of pending (parent, cursor) reply fetches, so the
call stack stays flat regardless of reply volume. Output order is
parent-before-children with parent linkage preserved on every item.
*/
package skool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/models"
)

// replyWork is one pending reply fetch: all reply pages of one comment.
type replyWork struct {
	commentID string
	postID    string
}

// FetchCommentTree retrieves every comment and reply under a post as a
// single flattened sequence. Malformed items are skipped and logged;
// a terminally failed reply listing yields the items gathered so far
// for that comment and the traversal continues with the remaining work.
func (a *API) FetchCommentTree(ctx context.Context, cred models.Credential, community, postID string) ([]*models.ContentItem, error) {
	comments, err := a.fetchComments(ctx, cred, postID)
	if err != nil && len(comments) == 0 {
		return nil, err
	}

	items := make([]*models.ContentItem, 0, len(comments))
	var work []replyWork
	for i := range comments {
		item, convErr := a.convertComment(community, postID, &comments[i], models.KindComment, postID)
		if convErr != nil {
			logging.Warn().Str("post", postID).Err(convErr).Msg("skipping malformed comment")
			continue
		}
		items = append(items, item)
		if comments[i].ReplyCount > 0 {
			work = append(work, replyWork{commentID: comments[i].ID, postID: postID})
		}
	}

	// Iterative traversal: pop one comment's reply listing at a time.
	// Replies cannot themselves have replies, so the work list only
	// shrinks, but the shape stays a queue in case the upstream ever
	// nests deeper.
	for len(work) > 0 {
		w := work[0]
		work = work[1:]

		replies, repErr := FetchCursor(ctx, func(ctx context.Context, cursor string) ([]CommentRecord, string, error) {
			page, err := a.fetchReplies(ctx, cred, w.commentID, cursor)
			if err != nil {
				return nil, "", err
			}
			next := page.Cursor
			if !page.HasMore {
				next = ""
			}
			return page.Replies, next, nil
		})
		if repErr != nil {
			logging.Warn().Str("comment", w.commentID).Err(repErr).Msg("reply listing incomplete")
		}
		for i := range replies {
			item, convErr := a.convertComment(community, w.postID, &replies[i], models.KindReply, w.commentID)
			if convErr != nil {
				logging.Warn().Str("comment", w.commentID).Err(convErr).Msg("skipping malformed reply")
				continue
			}
			items = append(items, item)
		}
	}
	return items, err
}

// fetchComments walks the watermark pagination of a post's top-level
// comments. The listing ends when the server reports a zero watermark
// or repeats the previous one.
func (a *API) fetchComments(ctx context.Context, cred models.Credential, postID string) ([]CommentRecord, error) {
	var (
		all  []CommentRecord
		last int64
	)
	for i := 0; i < maxTraversalIterations; i++ {
		params := url.Values{}
		if last > 0 {
			params.Set("created_gt", strconv.FormatInt(last, 10))
		}
		resp, err := callJSON[CommentsResponse](ctx, a.client, Request{
			Method:   http.MethodGet,
			URL:      fmt.Sprintf("%s/posts/%s/comments", a.apiBaseURL, postID),
			Endpoint: "comments",
			Params:   params,
			Header:   authHeader(cred.Token),
		}, a.policy, nil)
		if err != nil {
			return all, err
		}
		all = append(all, resp.Comments...)
		if resp.Last == 0 || resp.Last == last || len(resp.Comments) == 0 {
			return all, nil
		}
		last = resp.Last
	}
	return all, ErrCursorStalled
}

func (a *API) fetchReplies(ctx context.Context, cred models.Credential, commentID, cursor string) (*RepliesPage, error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return callJSON[RepliesPage](ctx, a.client, Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/comments/%s/replies", a.apiBaseURL, commentID),
		Endpoint: "replies",
		Params:   params,
		Header:   authHeader(cred.Token),
	}, a.policy, nil)
}

func (a *API) convertComment(community, postID string, r *CommentRecord, kind models.ContentKind, parentID string) (*models.ContentItem, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("comment record without id: %w", ErrMalformedItem)
	}
	return &models.ContentItem{
		ID:         r.ID,
		Community:  community,
		Kind:       kind,
		ParentID:   parentID,
		RootPostID: postID,
		AuthorID:   r.AuthorID,
		CreatedAt:  r.CreatedAt,
		LikeCount:  r.Upvotes,
		ReplyCount: r.ReplyCount,
	}, nil
}
